package opt

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

// driver owns the per-run bookkeeping shared by every generational optimizer:
// termination, early stopping, cancellation and listener notification.
type driver struct {
	name      string
	obj       Objective
	term      Termination
	tracker   *ConvergenceTracker
	listeners []Listener

	generation int
	converged  bool
	start      time.Time
}

func newDriver(name string, obj Objective, term TerminationConfig, conv ConvergenceConfig, listeners []Listener) (*driver, error) {
	t, err := term.New()
	if err != nil {
		return nil, err
	}
	d := &driver{
		name:      name,
		obj:       obj,
		term:      t,
		tracker:   NewConvergenceTracker(conv),
		listeners: listeners,
		start:     time.Now(),
	}
	t.OnStart()

	p := obj.Problem()
	slog.Info("Starting optimization",
		"algorithm", name,
		"cells", p.CellCount(),
		"turbines", p.Turbines(),
		"wind_conditions", len(p.Wind()),
	)
	return d, nil
}

// proceed reports whether another generation should run. Cancellation is
// reported as an error wrapping ctx.Err().
func (d *driver) proceed(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%s cancelled after %d generations: %w", d.name, d.generation, err)
	}
	if d.converged {
		return false, nil
	}
	return !d.term.ShouldTerminate(), nil
}

// progress returns the run progress clamped into [0,1]; unknown progress
// counts as the start of the run.
func (d *driver) progress() float64 {
	p := d.term.Progress().Fraction
	if p < 0 {
		return 0
	}
	return min(1, p)
}

// complete records a finished generation and notifies listeners.
func (d *driver) complete(best, average float64) {
	d.generation++
	d.term.OnGeneration(d.generation)

	if len(d.listeners) > 0 {
		event := ProgressEvent{
			Iteration:        d.generation,
			BestFitness:      best,
			AverageFitness:   average,
			PowerWithoutWake: d.obj.PowerWithoutWake(),
			Progress:         d.term.Progress(),
		}
		for _, l := range d.listeners {
			l.OnGeneration(event)
		}
	}

	if d.tracker.Update(best) {
		d.converged = true
	}
}

// solution packages the best candidate of the run.
func (d *driver) solution(best *candidate, s *scorer) *Solution {
	sol := &Solution{
		Layout:      Discretize(best.vector, s.cellCount),
		Fitness:     best.fitness,
		Vector:      slices.Clone(best.vector),
		Generations: d.generation,
		Evaluations: s.evaluations,
	}
	slog.Info("Optimization complete",
		"algorithm", d.name,
		"best_fitness", sol.Fitness,
		"generations", sol.Generations,
		"evaluations", sol.Evaluations,
		"elapsed", time.Since(d.start),
	)
	return sol
}
