package store

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/windlayout/internal/opt"
	"github.com/cwbudde/windlayout/internal/problem"
)

// RunRecord is the persisted result of one optimizer run.
type RunRecord struct {
	ID         string `json:"id"`
	Experiment string `json:"experiment,omitempty"`

	Algorithm   opt.Config     `json:"algorithm"`
	ProblemPath string         `json:"problemPath,omitempty"`
	Problem     problem.Params `json:"problem"`
	Seed        int64          `json:"seed"`

	Layout           []int   `json:"layout"`
	Fitness          float64 `json:"fitness"`
	PowerWithoutWake float64 `json:"powerWithoutWake"`
	Generations      int     `json:"generations"`
	Evaluations      int     `json:"evaluations"`

	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	// Convergence is the best/average fitness curve, when it was recorded.
	Convergence []opt.ConvergencePoint `json:"convergence,omitempty"`
}

// RunInfo contains metadata about a run without layout or convergence data.
type RunInfo struct {
	ID          string    `json:"id"`
	Experiment  string    `json:"experiment,omitempty"`
	Algorithm   string    `json:"algorithm"`
	Seed        int64     `json:"seed"`
	Fitness     float64   `json:"fitness"`
	Efficiency  float64   `json:"efficiency"`
	Generations int       `json:"generations"`
	ProblemPath string    `json:"problemPath,omitempty"`
	FinishedAt  time.Time `json:"finishedAt"`
}

// NewRunRecord creates a record for a finished run with a fresh ID.
func NewRunRecord(cfg opt.Config, params problem.Params, sol *opt.Solution, powerWithoutWake float64, startedAt time.Time) *RunRecord {
	return &RunRecord{
		ID:               uuid.NewString(),
		Algorithm:        cfg,
		Problem:          params,
		Seed:             cfg.Seed,
		Layout:           sol.Layout,
		Fitness:          sol.Fitness,
		PowerWithoutWake: powerWithoutWake,
		Generations:      sol.Generations,
		Evaluations:      sol.Evaluations,
		StartedAt:        startedAt,
		FinishedAt:       time.Now(),
	}
}

// Efficiency is the fraction of wake-free power the layout achieves.
func (r *RunRecord) Efficiency() float64 {
	if r.PowerWithoutWake <= 0 {
		return 0
	}
	return r.Fitness / r.PowerWithoutWake
}

// ToInfo converts a full RunRecord to RunInfo (metadata only).
func (r *RunRecord) ToInfo() RunInfo {
	return RunInfo{
		ID:          r.ID,
		Experiment:  r.Experiment,
		Algorithm:   r.Algorithm.Algorithm,
		Seed:        r.Seed,
		Fitness:     r.Fitness,
		Efficiency:  r.Efficiency(),
		Generations: r.Generations,
		ProblemPath: r.ProblemPath,
		FinishedAt:  r.FinishedAt,
	}
}

// Validate checks if the record has valid data.
func (r *RunRecord) Validate() error {
	if r.ID == "" {
		return &ValidationError{Field: "ID", Reason: "cannot be empty"}
	}
	if _, err := uuid.Parse(r.ID); err != nil {
		return &ValidationError{Field: "ID", Reason: "must be a UUID"}
	}
	if r.Algorithm.Algorithm == "" {
		return &ValidationError{Field: "Algorithm.Algorithm", Reason: "cannot be empty"}
	}
	if len(r.Layout) == 0 {
		return &ValidationError{Field: "Layout", Reason: "cannot be empty"}
	}

	cells := r.Problem.Dimension * r.Problem.Dimension
	seen := make(map[int]bool, len(r.Layout))
	for _, c := range r.Layout {
		if c < 0 || (cells > 0 && c >= cells) {
			return &ValidationError{Field: "Layout", Reason: "cell out of range"}
		}
		if seen[c] {
			return &ValidationError{Field: "Layout", Reason: "contains duplicate cells"}
		}
		seen[c] = true
	}

	if math.IsNaN(r.Fitness) || math.IsInf(r.Fitness, 0) || r.Fitness < 0 {
		return &ValidationError{Field: "Fitness", Reason: "must be finite and non-negative"}
	}
	if r.PowerWithoutWake < 0 {
		return &ValidationError{Field: "PowerWithoutWake", Reason: "cannot be negative"}
	}
	if r.Generations < 0 {
		return &ValidationError{Field: "Generations", Reason: "cannot be negative"}
	}
	if r.FinishedAt.IsZero() {
		return &ValidationError{Field: "FinishedAt", Reason: "cannot be zero"}
	}
	return nil
}

// ValidationError represents a run record validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}
