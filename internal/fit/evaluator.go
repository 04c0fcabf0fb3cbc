// Package fit turns a turbine layout into expected power output, the fitness
// every optimizer maximizes.
package fit

import (
	"fmt"

	"github.com/cwbudde/windlayout/internal/problem"
	"github.com/cwbudde/windlayout/internal/wake"
)

// Evaluator is the objective engine. It only reads immutable state, so a single
// Evaluator can serve concurrent evaluations and independent optimizer runs.
type Evaluator struct {
	problem *problem.Problem
	model   wake.Model
	curve   PowerCurve
	wind    []problem.WindCondition

	withoutWake float64
}

// NewEvaluator combines a wake model and power curve for p. A nil curve selects
// GE15SLE.
func NewEvaluator(p *problem.Problem, model wake.Model, curve PowerCurve) *Evaluator {
	if curve == nil {
		curve = GE15SLE{}
	}
	e := &Evaluator{
		problem: p,
		model:   model,
		curve:   curve,
		wind:    p.Wind(),
	}

	for _, w := range e.wind {
		e.withoutWake += w.Probability * curve.Power(w.Speed)
	}
	e.withoutWake *= float64(p.Turbines())
	return e
}

// NewJensenEvaluator is the common setup: Jensen wake model with the given
// caching policy and the default power curve.
func NewJensenEvaluator(p *problem.Problem, policy wake.Policy) *Evaluator {
	return NewEvaluator(p, wake.NewJensen(p, policy), nil)
}

// Problem returns the instance being evaluated.
func (e *Evaluator) Problem() *problem.Problem { return e.problem }

// Evaluate returns the probability-weighted total power of layout.
func (e *Evaluator) Evaluate(layout []int) (float64, error) {
	if err := e.checkLayout(layout); err != nil {
		return 0, err
	}

	var total float64
	for _, turbine := range layout {
		for _, w := range e.wind {
			speed, err := e.model.EffectiveSpeed(w, turbine, layout)
			if err != nil {
				return 0, fmt.Errorf("failed to compute effective speed at cell %d: %w", turbine, err)
			}
			total += w.Probability * e.curve.Power(speed)
		}
	}
	return total, nil
}

// PowerWithoutWake is the output of the configured turbine count if no turbine
// shadowed another. It bounds Evaluate from above for monotone power curves.
func (e *Evaluator) PowerWithoutWake() float64 { return e.withoutWake }

func (e *Evaluator) checkLayout(layout []int) error {
	if len(layout) != e.problem.Turbines() {
		return &LayoutError{Reason: fmt.Sprintf("expected %d turbines, got %d", e.problem.Turbines(), len(layout))}
	}

	cellCount := e.problem.CellCount()
	seen := make(map[int]struct{}, len(layout))
	for _, cell := range layout {
		if cell < 0 || cell >= cellCount {
			return &LayoutError{Reason: fmt.Sprintf("cell %d outside [0, %d)", cell, cellCount)}
		}
		if _, dup := seen[cell]; dup {
			return &LayoutError{Reason: fmt.Sprintf("cell %d occupied twice", cell)}
		}
		seen[cell] = struct{}{}
	}
	return nil
}

// LayoutError reports a layout that is not a valid turbine placement.
type LayoutError struct {
	Reason string
}

func (e *LayoutError) Error() string {
	return "invalid layout: " + e.Reason
}
