// Package opt holds the layout optimizers: plain differential evolution,
// LSHADE, fractional-order DE and a Mayfly baseline, together with the pieces
// they share (encoder, termination conditions, progress listeners, adaptation
// memory).
package opt

import (
	"context"

	"github.com/cwbudde/windlayout/internal/problem"
)

// Objective scores layouts. Implementations must be pure; *fit.Evaluator is the
// production implementation.
type Objective interface {
	Problem() *problem.Problem
	Evaluate(layout []int) (float64, error)
	PowerWithoutWake() float64
}

// Optimizer defines a layout optimization algorithm.
type Optimizer interface {
	// Name identifies the algorithm in logs and stored results.
	Name() string

	// Run maximizes obj until the configured termination fires or ctx is
	// cancelled. Cancellation is only observed between generations.
	Run(ctx context.Context, obj Objective, listeners ...Listener) (*Solution, error)
}

// Solution is the best layout found by a run.
type Solution struct {
	Layout      []int     `json:"layout"`
	Fitness     float64   `json:"fitness"`
	Vector      []float64 `json:"vector,omitempty"`
	Generations int       `json:"generations"`
	Evaluations int       `json:"evaluations"`
}

// ProgressEvent is delivered to listeners once per completed generation.
type ProgressEvent struct {
	Iteration        int
	BestFitness      float64
	AverageFitness   float64
	PowerWithoutWake float64
	Progress         Progress
}

// Listener observes a run. Listeners must not retain or mutate optimizer state;
// attaching them never changes results.
type Listener interface {
	OnGeneration(event ProgressEvent)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(event ProgressEvent)

func (f ListenerFunc) OnGeneration(event ProgressEvent) { f(event) }
