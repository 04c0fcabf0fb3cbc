package opt

import (
	"context"
	"fmt"
	"math/rand"
)

// DE is classic DE/rand/1/bin with fixed control parameters.
type DE struct {
	cfg Config
}

// NewDE creates a plain differential evolution optimizer. F, CR and the
// population size stay fixed for the whole run.
func NewDE(cfg Config) (Optimizer, error) {
	cfg.Algorithm = AlgorithmDE
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &DE{cfg: cfg}, nil
}

func (de *DE) Name() string { return AlgorithmDE }

// Run evolves a fixed-size population. A trial replaces its parent only when it
// is strictly better; the best candidate ever seen is returned.
func (de *DE) Run(ctx context.Context, obj Objective, listeners ...Listener) (*Solution, error) {
	p := obj.Problem()
	rng := rand.New(rand.NewSource(de.cfg.Seed))

	d, err := newDriver(de.Name(), obj, de.cfg.Termination, de.cfg.Convergence, listeners)
	if err != nil {
		return nil, err
	}
	s := newScorer(obj, de.cfg.Workers)
	cellCount := p.CellCount()

	pop := randomPopulation(rng, de.cfg.PopulationSize, p.Turbines(), cellCount)
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

		trials := make([][]float64, len(pop))
		for i, target := range pop {
			idx := distinctIndices(rng, len(pop), i, 3)
			a, b, c := pop[idx[0]].vector, pop[idx[1]].vector, pop[idx[2]].vector

			mutant := make([]float64, len(a))
			for j := range mutant {
				mutant[j] = a[j] + de.cfg.F*(b[j]-c[j])
			}

			trial := binomialCrossover(rng, target.vector, mutant, de.cfg.CR)
			EnforceBounds(trial, cellCount)
			trials[i] = trial
		}

		fitness, err := s.scoreAll(trials)
		if err != nil {
			return nil, fmt.Errorf("generation %d: %w", d.generation+1, err)
		}

		next := make([]*candidate, len(pop))
		for i, target := range pop {
			if fitness[i] > target.fitness {
				next[i] = &candidate{vector: trials[i], fitness: fitness[i]}
			} else {
				next[i] = target
			}
		}
		pop = next

		if gb := bestOf(pop); gb.fitness > best.fitness {
			best = gb
		}
		d.complete(best.fitness, averageFitness(pop))
	}

	return d.solution(best, s), nil
}
