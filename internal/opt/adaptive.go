package opt

import (
	"context"
	"fmt"
	"math"
	"math/rand"
)

// mutation builds the donor vector for one target. f is the target's sampled
// scale factor; ranked is the population ordered best first.
type mutation interface {
	donor(rng *rand.Rand, pop, ranked []*candidate, i int, f float64) []float64
}

// pbestCount is max(2, round(rate*n)) capped at n.
func pbestCount(rate float64, n int) int {
	p := max(2, int(math.Round(rate*float64(n))))
	return min(p, n)
}

// pickPBest returns a uniformly chosen member of the top pbestCount of ranked.
func pickPBest(rng *rand.Rand, ranked []*candidate, rate float64) *candidate {
	return ranked[rng.Intn(pbestCount(rate, len(ranked)))]
}

// currentToPBest is current-to-pbest/1:
// v = x + F(pbest - x) + F(r1 - r2).
type currentToPBest struct {
	rate float64
}

func (m currentToPBest) donor(rng *rand.Rand, pop, ranked []*candidate, i int, f float64) []float64 {
	x := pop[i].vector
	pbest := pickPBest(rng, ranked, m.rate).vector
	idx := distinctIndices(rng, len(pop), i, 2)
	r1, r2 := pop[idx[0]].vector, pop[idx[1]].vector

	v := make([]float64, len(x))
	for j := range v {
		v[j] = x[j] + f*(pbest[j]-x[j]) + f*(r1[j]-r2[j])
	}
	return v
}

// fractionalPBest is the FODE mutation. Every call pushes the raw differences
// (pbest - x) and (r1 - r2) into the history, then uses their fractional
// weighted sums: v = x + F*fracP + F*fracR.
type fractionalPBest struct {
	rate    float64
	history *DifferenceHistory
}

func (m fractionalPBest) donor(rng *rand.Rand, pop, ranked []*candidate, i int, f float64) []float64 {
	x := pop[i].vector
	pbest := pickPBest(rng, ranked, m.rate).vector
	idx := distinctIndices(rng, len(pop), i, 2)
	r1, r2 := pop[idx[0]].vector, pop[idx[1]].vector

	dp := make([]float64, len(x))
	dr := make([]float64, len(x))
	for j := range x {
		dp[j] = pbest[j] - x[j]
		dr[j] = r1[j] - r2[j]
	}
	m.history.Push(dp, dr)
	fracP, fracR := m.history.Fractional()

	v := make([]float64, len(x))
	for j := range v {
		v[j] = x[j] + f*fracP[j] + f*fracR[j]
	}
	return v
}

// adaptive is the success-history engine shared by LSHADE and FODE. Each run
// gets a fresh memory and a fresh mutation from newMutation.
type adaptive struct {
	name        string
	cfg         Config
	newMutation func() mutation
}

func (a *adaptive) Name() string { return a.name }

// Run evolves a population whose size shrinks linearly with termination
// progress, sampling per-individual F and CR from the success memory.
func (a *adaptive) Run(ctx context.Context, obj Objective, listeners ...Listener) (*Solution, error) {
	p := obj.Problem()
	rng := rand.New(rand.NewSource(a.cfg.Seed))

	d, err := newDriver(a.name, obj, a.cfg.Termination, a.cfg.Convergence, listeners)
	if err != nil {
		return nil, err
	}
	s := newScorer(obj, a.cfg.Workers)
	cellCount := p.CellCount()
	mem := NewMemory(MemorySize)
	mut := a.newMutation()

	maxSize := a.cfg.PopulationSize
	minSize := a.cfg.minPopulationSize()

	pop := randomPopulation(rng, maxSize, p.Turbines(), cellCount)
	if err := s.scorePopulation(pop); err != nil {
		return nil, fmt.Errorf("failed to evaluate initial population: %w", err)
	}
	best := bestOf(pop)

	for {
		more, err := d.proceed(ctx)
		if err != nil {
			return d.solution(best, s), err
		}
		if !more {
			break
		}

		target := TargetPopulationSize(minSize, maxSize, d.progress())
		ranked := sortedByFitness(pop)

		trials := make([][]float64, len(pop))
		for i, x := range pop {
			x.f, x.cr = mem.Sample(rng)
			v := mut.donor(rng, pop, ranked, i, x.f)
			trial := binomialCrossover(rng, x.vector, v, x.cr)
			EnforceBounds(trial, cellCount)
			trials[i] = trial
		}

		fitness, err := s.scoreAll(trials)
		if err != nil {
			return nil, fmt.Errorf("generation %d: %w", d.generation+1, err)
		}

		next := make([]*candidate, len(pop))
		var successes []Success
		for i, x := range pop {
			if fitness[i] > x.fitness {
				successes = append(successes, Success{F: x.f, CR: x.cr, Gain: fitness[i] - x.fitness})
				next[i] = &candidate{vector: trials[i], fitness: fitness[i]}
			} else {
				next[i] = x
			}
		}
		mem.Update(successes)

		pop = sortedByFitness(next)
		if target < len(pop) {
			pop = pop[:target]
		}

		if pop[0].fitness > best.fitness {
			best = pop[0]
		}
		d.complete(best.fitness, averageFitness(pop))
	}

	return d.solution(best, s), nil
}

// NewLSHADE creates an LSHADE optimizer: current-to-pbest/1 mutation with
// success-history adaptation and linear population size reduction.
func NewLSHADE(cfg Config) (Optimizer, error) {
	cfg.Algorithm = AlgorithmLSHADE
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rate := cfg.pbestRate()
	return &adaptive{
		name: AlgorithmLSHADE,
		cfg:  cfg,
		newMutation: func() mutation {
			return currentToPBest{rate: rate}
		},
	}, nil
}

// NewFODE creates a fractional-order DE optimizer. It shares LSHADE's
// adaptation and population reduction but mutates with fractional sums over
// the last HistoryDepth difference vectors.
func NewFODE(cfg Config) (Optimizer, error) {
	cfg.Algorithm = AlgorithmFODE
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rate := cfg.pbestRate()
	return &adaptive{
		name: AlgorithmFODE,
		cfg:  cfg,
		newMutation: func() mutation {
			return fractionalPBest{
				rate:    rate,
				history: NewDifferenceHistory(HistoryDepth, FractionalOrder),
			}
		},
	}, nil
}
