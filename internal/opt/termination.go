package opt

import (
	"fmt"
	"time"
)

// ProgressUnknown is reported by conditions that cannot estimate how far a run
// has come.
const ProgressUnknown = -1.0

// Progress is a snapshot of a termination condition.
type Progress struct {
	Fraction float64 `json:"fraction"` // in [0,1], or ProgressUnknown
	Label    string  `json:"label"`
	Current  int64   `json:"current"`
	Max      int64   `json:"max"` // -1 when unbounded
}

// Termination decides when a run stops. Optimizers call OnStart once, then
// OnGeneration after every completed generation, and check ShouldTerminate
// between generations only.
type Termination interface {
	OnStart()
	OnGeneration(generation int)
	ShouldTerminate() bool
	Progress() Progress
}

// GenerationLimit stops after a fixed number of generations.
type GenerationLimit struct {
	max     int
	current int
}

func NewGenerationLimit(maxGenerations int) *GenerationLimit {
	return &GenerationLimit{max: maxGenerations}
}

func (g *GenerationLimit) OnStart()                    { g.current = 0 }
func (g *GenerationLimit) OnGeneration(generation int) { g.current = generation }
func (g *GenerationLimit) ShouldTerminate() bool       { return g.current >= g.max }

func (g *GenerationLimit) Progress() Progress {
	frac := 1.0
	if g.max > 0 {
		frac = min(1, float64(g.current)/float64(g.max))
	}
	return Progress{
		Fraction: frac,
		Label:    "Generations",
		Current:  int64(g.current),
		Max:      int64(g.max),
	}
}

// TimeLimit stops once a wall-clock budget is spent.
type TimeLimit struct {
	limit time.Duration
	start time.Time
	now   func() time.Time
}

func NewTimeLimit(limit time.Duration) *TimeLimit {
	return &TimeLimit{limit: limit, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (t *TimeLimit) WithClock(now func() time.Time) *TimeLimit {
	t.now = now
	return t
}

func (t *TimeLimit) OnStart()                    { t.start = t.now() }
func (t *TimeLimit) OnGeneration(generation int) {}
func (t *TimeLimit) ShouldTerminate() bool       { return t.now().Sub(t.start) >= t.limit }

func (t *TimeLimit) Progress() Progress {
	elapsed := t.now().Sub(t.start)
	frac := 1.0
	if t.limit > 0 {
		frac = min(1, float64(elapsed)/float64(t.limit))
	}
	return Progress{
		Fraction: frac,
		Label:    "Time",
		Current:  elapsed.Milliseconds(),
		Max:      t.limit.Milliseconds(),
	}
}

// Termination types accepted by TerminationConfig.
const (
	TerminationGeneration = "generation"
	TerminationTime       = "time"
)

// TerminationConfig describes a termination condition. A fresh condition is
// built for every run because conditions carry run state.
type TerminationConfig struct {
	Type           string `yaml:"type" json:"type"`
	MaxGenerations int    `yaml:"maxGenerations,omitempty" json:"maxGenerations,omitempty"`
	DurationMillis int64  `yaml:"durationMillis,omitempty" json:"durationMillis,omitempty"`
}

// Generations is shorthand for a generation-bounded config.
func Generations(n int) TerminationConfig {
	return TerminationConfig{Type: TerminationGeneration, MaxGenerations: n}
}

// Duration is shorthand for a time-bounded config.
func Duration(d time.Duration) TerminationConfig {
	return TerminationConfig{Type: TerminationTime, DurationMillis: d.Milliseconds()}
}

func (c TerminationConfig) Validate() error {
	switch c.Type {
	case TerminationGeneration:
		if c.MaxGenerations <= 0 {
			return &ValidationError{Field: "termination.maxGenerations", Reason: "must be positive"}
		}
	case TerminationTime:
		if c.DurationMillis <= 0 {
			return &ValidationError{Field: "termination.durationMillis", Reason: "must be positive"}
		}
	default:
		return &ValidationError{Field: "termination.type", Reason: fmt.Sprintf("unknown type %q", c.Type)}
	}
	return nil
}

// New builds a fresh termination condition.
func (c TerminationConfig) New() (Termination, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Type == TerminationTime {
		return NewTimeLimit(time.Duration(c.DurationMillis) * time.Millisecond), nil
	}
	return NewGenerationLimit(c.MaxGenerations), nil
}
