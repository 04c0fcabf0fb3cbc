package store

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/cwbudde/windlayout/internal/opt"
	"github.com/cwbudde/windlayout/internal/problem"
)

func TestRunRecordValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RunRecord)
		field  string
	}{
		{"empty id", func(r *RunRecord) { r.ID = "" }, "ID"},
		{"non uuid id", func(r *RunRecord) { r.ID = "run-1" }, "ID"},
		{"no algorithm", func(r *RunRecord) { r.Algorithm.Algorithm = "" }, "Algorithm.Algorithm"},
		{"empty layout", func(r *RunRecord) { r.Layout = nil }, "Layout"},
		{"cell out of range", func(r *RunRecord) { r.Layout = []int{0, 100} }, "Layout"},
		{"negative cell", func(r *RunRecord) { r.Layout = []int{-1} }, "Layout"},
		{"duplicate cells", func(r *RunRecord) { r.Layout = []int{4, 4} }, "Layout"},
		{"nan fitness", func(r *RunRecord) { r.Fitness = math.NaN() }, "Fitness"},
		{"negative fitness", func(r *RunRecord) { r.Fitness = -1 }, "Fitness"},
		{"negative wake-free power", func(r *RunRecord) { r.PowerWithoutWake = -1 }, "PowerWithoutWake"},
		{"negative generations", func(r *RunRecord) { r.Generations = -1 }, "Generations"},
		{"zero finish", func(r *RunRecord) { r.FinishedAt = time.Time{} }, "FinishedAt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := createTestRun(time.Now())
			tt.mutate(run)

			err := run.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Expected *ValidationError, got %T", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %s, want %s", ve.Field, tt.field)
			}
		})
	}

	if err := createTestRun(time.Now()).Validate(); err != nil {
		t.Errorf("Valid run rejected: %v", err)
	}
}

func TestNewRunRecord(t *testing.T) {
	cfg := opt.DefaultConfig(opt.AlgorithmFODE)
	cfg.Seed = 99
	sol := &opt.Solution{Layout: []int{3, 1}, Fitness: 50, Generations: 10, Evaluations: 300}
	started := time.Now().Add(-time.Second)

	run := NewRunRecord(cfg, problem.Params{Dimension: 2}, sol, 200, started)

	if err := run.Validate(); err != nil {
		t.Fatalf("NewRunRecord produced invalid record: %v", err)
	}
	if run.Seed != 99 {
		t.Errorf("Seed = %d, want 99", run.Seed)
	}
	if run.Efficiency() != 0.25 {
		t.Errorf("Efficiency = %f, want 0.25", run.Efficiency())
	}
	if run.FinishedAt.Before(started) {
		t.Errorf("FinishedAt %v before StartedAt %v", run.FinishedAt, started)
	}

	other := NewRunRecord(cfg, problem.Params{}, sol, 0, started)
	if other.ID == run.ID {
		t.Error("Expected unique run IDs")
	}
	if other.Efficiency() != 0 {
		t.Errorf("Efficiency without wake-free power = %f, want 0", other.Efficiency())
	}
}
