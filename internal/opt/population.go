package opt

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"

	"github.com/sourcegraph/conc/pool"
)

// ErrNonFiniteFitness is returned when the objective produces NaN or ±Inf.
var ErrNonFiniteFitness = errors.New("objective returned non-finite fitness")

// candidate is one individual of a DE-family population.
type candidate struct {
	vector  []float64
	fitness float64

	// Control parameters sampled for the current generation (LSHADE/FODE).
	f, cr float64
}

func randomPopulation(rng *rand.Rand, size, dim, cellCount int) []*candidate {
	pop := make([]*candidate, size)
	for i := range pop {
		v := make([]float64, dim)
		for d := range v {
			v[d] = rng.Float64() * float64(cellCount)
		}
		pop[i] = &candidate{vector: v}
	}
	return pop
}

func bestOf(pop []*candidate) *candidate {
	best := pop[0]
	for _, c := range pop[1:] {
		if c.fitness > best.fitness {
			best = c
		}
	}
	return best
}

func averageFitness(pop []*candidate) float64 {
	if len(pop) == 0 {
		return 0
	}
	var sum float64
	for _, c := range pop {
		sum += c.fitness
	}
	return sum / float64(len(pop))
}

// sortedByFitness returns a copy of pop ordered best first. Ties keep their
// population order so runs stay reproducible.
func sortedByFitness(pop []*candidate) []*candidate {
	sorted := slices.Clone(pop)
	slices.SortStableFunc(sorted, func(a, b *candidate) int {
		return cmp.Compare(b.fitness, a.fitness)
	})
	return sorted
}

// scorer discretizes and evaluates vectors, optionally on several goroutines.
// Results only depend on the vectors, never on scheduling.
type scorer struct {
	obj         Objective
	cellCount   int
	workers     int
	evaluations int
}

func newScorer(obj Objective, workers int) *scorer {
	return &scorer{
		obj:       obj,
		cellCount: obj.Problem().CellCount(),
		workers:   workers,
	}
}

func (s *scorer) score(vector []float64) (float64, error) {
	layout := Discretize(vector, s.cellCount)
	fitness, err := s.obj.Evaluate(layout)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(fitness) || math.IsInf(fitness, 0) {
		return 0, fmt.Errorf("%w: layout %v", ErrNonFiniteFitness, layout)
	}
	return fitness, nil
}

// scoreAll evaluates every vector and returns fitness values in input order.
func (s *scorer) scoreAll(vectors [][]float64) ([]float64, error) {
	results := make([]float64, len(vectors))
	s.evaluations += len(vectors)

	if s.workers <= 1 {
		for i, v := range vectors {
			f, err := s.score(v)
			if err != nil {
				return nil, fmt.Errorf("failed to evaluate candidate %d: %w", i, err)
			}
			results[i] = f
		}
		return results, nil
	}

	p := pool.New().WithErrors().WithMaxGoroutines(s.workers)
	for i, v := range vectors {
		p.Go(func() error {
			f, err := s.score(v)
			if err != nil {
				return fmt.Errorf("failed to evaluate candidate %d: %w", i, err)
			}
			results[i] = f
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// scorePopulation evaluates every candidate in place.
func (s *scorer) scorePopulation(pop []*candidate) error {
	vectors := make([][]float64, len(pop))
	for i, c := range pop {
		vectors[i] = c.vector
	}
	results, err := s.scoreAll(vectors)
	if err != nil {
		return err
	}
	for i, c := range pop {
		c.fitness = results[i]
	}
	return nil
}

// binomialCrossover mixes mutant into target: each gene comes from the mutant
// with probability cr, and gene jRand always does.
func binomialCrossover(rng *rand.Rand, target, mutant []float64, cr float64) []float64 {
	trial := make([]float64, len(target))
	jRand := rng.Intn(len(target))
	for j := range trial {
		if rng.Float64() < cr || j == jRand {
			trial[j] = mutant[j]
		} else {
			trial[j] = target[j]
		}
	}
	return trial
}

// distinctIndices draws k distinct indices from [0, n) that are all different
// from exclude.
func distinctIndices(rng *rand.Rand, n, exclude, k int) []int {
	picked := make([]int, 0, k)
	for len(picked) < k {
		idx := rng.Intn(n)
		if idx == exclude || slices.Contains(picked, idx) {
			continue
		}
		picked = append(picked, idx)
	}
	return picked
}
