package opt

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/cwbudde/mayfly"
)

// mayflyMinPopulation is the smallest population mayfly v0.1.0 accepts.
const mayflyMinPopulation = 20

// MayflyAdapter runs the external Mayfly library on the same continuous
// encoding the DE family uses. Mayfly minimizes, so it sees negated power.
type MayflyAdapter struct {
	cfg Config
}

// NewMayfly creates a Mayfly optimizer. It only supports generation-based
// termination since the library runs a fixed number of iterations.
func NewMayfly(cfg Config) (Optimizer, error) {
	cfg.Algorithm = AlgorithmMayfly
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &MayflyAdapter{cfg: cfg}, nil
}

func (m *MayflyAdapter) Name() string { return AlgorithmMayfly }

// Run executes the whole Mayfly optimization, then emits a single progress
// event for the final result. Evaluation errors and cancellation are
// surfaced once the library returns.
func (m *MayflyAdapter) Run(ctx context.Context, obj Objective, listeners ...Listener) (*Solution, error) {
	p := obj.Problem()
	cellCount := p.CellCount()
	start := time.Now()

	var (
		evalErr     error
		evaluations int
	)
	objective := func(x []float64) float64 {
		if evalErr != nil {
			return math.Inf(1)
		}
		if err := ctx.Err(); err != nil {
			evalErr = fmt.Errorf("%s cancelled: %w", AlgorithmMayfly, err)
			return math.Inf(1)
		}
		evaluations++
		power, err := obj.Evaluate(Discretize(x, cellCount))
		if err != nil {
			evalErr = err
			return math.Inf(1)
		}
		if math.IsNaN(power) || math.IsInf(power, 0) {
			evalErr = ErrNonFiniteFitness
			return math.Inf(1)
		}
		return -power
	}

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = objective
	config.ProblemSize = p.Turbines()
	config.MaxIterations = m.cfg.Termination.MaxGenerations
	config.NPop = m.cfg.PopulationSize
	config.LowerBound = 0
	config.UpperBound = float64(cellCount)
	config.Rand = rand.New(rand.NewSource(m.cfg.Seed))

	slog.Info("Starting optimization",
		"algorithm", AlgorithmMayfly,
		"cells", cellCount,
		"turbines", p.Turbines(),
		"iterations", config.MaxIterations,
	)

	result, err := mayfly.Optimize(config)
	if err != nil {
		return nil, fmt.Errorf("mayfly optimization failed: %w", err)
	}
	if evalErr != nil {
		return nil, evalErr
	}

	vector := slices.Clone(result.GlobalBest.Position)
	EnforceBounds(vector, cellCount)
	sol := &Solution{
		Layout:      Discretize(vector, cellCount),
		Fitness:     -result.GlobalBest.Cost,
		Vector:      vector,
		Generations: config.MaxIterations,
		Evaluations: evaluations,
	}

	event := ProgressEvent{
		Iteration:        sol.Generations,
		BestFitness:      sol.Fitness,
		AverageFitness:   sol.Fitness,
		PowerWithoutWake: obj.PowerWithoutWake(),
		Progress: Progress{
			Fraction: 1,
			Label:    "Generations",
			Current:  int64(sol.Generations),
			Max:      int64(sol.Generations),
		},
	}
	for _, l := range listeners {
		l.OnGeneration(event)
	}

	slog.Info("Optimization complete",
		"algorithm", AlgorithmMayfly,
		"best_fitness", sol.Fitness,
		"evaluations", evaluations,
		"elapsed", time.Since(start),
	)
	return sol, nil
}
