// Package experiment repeats optimizer runs over a range of seeds and
// summarizes the results per algorithm.
package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/windlayout/internal/opt"
	"github.com/cwbudde/windlayout/internal/store"
	"github.com/cwbudde/windlayout/internal/wake"
)

// Config describes an experiment: every algorithm runs Runs times on the same
// problem with seeds Seed, Seed+1, ...
type Config struct {
	Name       string       `yaml:"name" json:"name"`
	Runs       int          `yaml:"runs" json:"runs"`
	Seed       int64        `yaml:"seed" json:"seed"`
	Problem    string       `yaml:"problem" json:"problem"`
	Cache      wake.Policy  `yaml:"cache" json:"cache"`
	Algorithms []opt.Config `yaml:"algorithms" json:"algorithms"`
}

// Validate checks the experiment and every algorithm entry.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("experiment name cannot be empty")
	}
	if c.Runs <= 0 {
		return fmt.Errorf("experiment %s: runs must be positive", c.Name)
	}
	if c.Problem == "" {
		return fmt.Errorf("experiment %s: problem cannot be empty", c.Name)
	}
	if len(c.Algorithms) == 0 {
		return fmt.Errorf("experiment %s: no algorithms configured", c.Name)
	}
	for i, a := range c.Algorithms {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("experiment %s: algorithms[%d]: %w", c.Name, i, err)
		}
	}
	return nil
}

// Summary holds descriptive statistics of the best fitness over runs.
type Summary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Runs   int     `json:"runs"`
}

// Summarize computes a Summary. StdDev is the sample standard deviation and is
// 0 for a single run.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) < 2 || math.IsNaN(std) {
		std = 0
	}
	return Summary{
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(values),
		Max:    floats.Max(values),
		Runs:   len(values),
	}
}

// AlgorithmResult collects the runs of one algorithm entry.
type AlgorithmResult struct {
	Config  opt.Config         `json:"config"`
	Records []*store.RunRecord `json:"records"`
	Summary Summary            `json:"summary"`
}

// Result is the outcome of an experiment, in configuration order.
type Result struct {
	Name       string            `json:"name"`
	Algorithms []AlgorithmResult `json:"algorithms"`
}

// Runner executes an experiment sequentially against one shared objective.
type Runner struct {
	cfg Config
	obj opt.Objective

	// OnRun, when set, is called with every finished run, e.g. to persist it.
	// An error aborts the experiment.
	OnRun func(ctx context.Context, run *store.RunRecord) error

	// Listeners, when set, supplies extra listeners for each run.
	Listeners func(algorithm string, run int) []opt.Listener
}

func NewRunner(cfg Config, obj opt.Objective) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Runner{cfg: cfg, obj: obj}, nil
}

// Run executes all runs. It stops at the first failing run or on
// cancellation.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	result := &Result{Name: r.cfg.Name}
	params := r.obj.Problem().Params()

	slog.Info("Starting experiment",
		"name", r.cfg.Name,
		"algorithms", len(r.cfg.Algorithms),
		"runs", r.cfg.Runs,
	)

	for _, base := range r.cfg.Algorithms {
		ar := AlgorithmResult{Config: base}
		values := make([]float64, 0, r.cfg.Runs)

		for run := 0; run < r.cfg.Runs; run++ {
			cfg := base
			cfg.Seed = r.cfg.Seed + int64(run)

			o, err := opt.New(cfg)
			if err != nil {
				return nil, err
			}

			rec := opt.NewConvergenceRecorder()
			listeners := []opt.Listener{rec}
			if r.Listeners != nil {
				listeners = append(listeners, r.Listeners(cfg.Algorithm, run)...)
			}

			started := time.Now()
			sol, err := o.Run(ctx, r.obj, listeners...)
			if err != nil {
				return nil, fmt.Errorf("%s run %d (seed %d): %w", cfg.Algorithm, run, cfg.Seed, err)
			}

			record := store.NewRunRecord(cfg, params, sol, r.obj.PowerWithoutWake(), started)
			record.Experiment = r.cfg.Name
			record.ProblemPath = r.cfg.Problem
			record.Convergence = rec.Points()

			if r.OnRun != nil {
				if err := r.OnRun(ctx, record); err != nil {
					return nil, fmt.Errorf("%s run %d: %w", cfg.Algorithm, run, err)
				}
			}

			slog.Info("Run complete",
				"experiment", r.cfg.Name,
				"algorithm", cfg.Algorithm,
				"run", run,
				"seed", cfg.Seed,
				"fitness", sol.Fitness,
				"efficiency", record.Efficiency(),
			)
			ar.Records = append(ar.Records, record)
			values = append(values, sol.Fitness)
		}

		ar.Summary = Summarize(values)
		result.Algorithms = append(result.Algorithms, ar)
	}

	return result, nil
}
