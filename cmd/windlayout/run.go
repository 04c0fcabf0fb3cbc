package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cwbudde/windlayout/internal/config"
	"github.com/cwbudde/windlayout/internal/fit"
	"github.com/cwbudde/windlayout/internal/opt"
	"github.com/cwbudde/windlayout/internal/store"
	"github.com/cwbudde/windlayout/internal/wake"
)

var (
	problemPath    string
	algorithmPath  string
	algorithmName  string
	popSize        int
	minPopSize     int
	scaleF         float64
	crossoverRate  float64
	pbestRate      float64
	generations    int
	duration       time.Duration
	seed           int64
	workers        int
	cacheDistances bool
	cacheAreas     bool
	logEvery       int
	writeTrace     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Optimize a single problem instance",
	Long: `Runs one optimizer on a problem instance, prints the best layout and
stores the result. Flags override values from --algorithm-file.`,
	RunE: runOptimization,
}

func init() {
	runCmd.Flags().StringVar(&problemPath, "problem", "", "Problem instance file, JSON or YAML (required)")
	runCmd.Flags().StringVar(&algorithmPath, "algorithm-file", "", "Optimizer settings file")
	runCmd.Flags().StringVar(&algorithmName, "algorithm", opt.AlgorithmLSHADE, "Algorithm: de, lshade, fode, mayfly")
	runCmd.Flags().IntVar(&popSize, "pop", 0, "Population size (0 = algorithm default)")
	runCmd.Flags().IntVar(&minPopSize, "min-pop", 0, "Final population size for lshade/fode (0 = default)")
	runCmd.Flags().Float64Var(&scaleF, "f", 0, "DE scale factor")
	runCmd.Flags().Float64Var(&crossoverRate, "cr", 0, "DE crossover rate")
	runCmd.Flags().Float64Var(&pbestRate, "pbest", 0, "pbest rate for lshade/fode (0 = default)")
	runCmd.Flags().IntVar(&generations, "generations", 0, "Stop after N generations")
	runCmd.Flags().DurationVar(&duration, "duration", 0, "Stop after a wall-clock duration, e.g. 30s")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")
	runCmd.Flags().IntVar(&workers, "workers", 1, "Concurrent evaluations per generation")
	runCmd.Flags().BoolVar(&cacheDistances, "cache-distances", true, "Precompute rotated cell offsets")
	runCmd.Flags().BoolVar(&cacheAreas, "cache-areas", true, "Precompute wake overlap areas")
	runCmd.Flags().IntVar(&logEvery, "log-every", 50, "Log progress every N generations")
	runCmd.Flags().BoolVar(&writeTrace, "trace", false, "Write a per-generation trace next to the stored run")
	addStoreFlags(runCmd)

	runCmd.MarkFlagRequired("problem")
	rootCmd.AddCommand(runCmd)
}

// algorithmConfig builds the optimizer settings from the file (if any) and the
// flags the user set explicitly.
func algorithmConfig(cmd *cobra.Command) (opt.Config, error) {
	cfg := opt.DefaultConfig(algorithmName)
	if algorithmPath != "" {
		loaded, err := config.LoadAlgorithm(algorithmPath)
		if err != nil {
			return opt.Config{}, err
		}
		cfg = loaded
		if cmd.Flags().Changed("algorithm") && loaded.Algorithm != algorithmName {
			cfg.Algorithm = algorithmName
		}
	}

	flags := cmd.Flags()
	if flags.Changed("pop") {
		cfg.PopulationSize = popSize
	}
	if flags.Changed("min-pop") {
		cfg.MinPopulationSize = minPopSize
	}
	if flags.Changed("f") {
		cfg.F = scaleF
	}
	if flags.Changed("cr") {
		cfg.CR = crossoverRate
	}
	if flags.Changed("pbest") {
		cfg.PBestRate = pbestRate
	}
	if flags.Changed("seed") || algorithmPath == "" {
		cfg.Seed = seed
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	switch {
	case flags.Changed("generations") && flags.Changed("duration"):
		return opt.Config{}, fmt.Errorf("--generations and --duration are mutually exclusive")
	case flags.Changed("generations"):
		cfg.Termination = opt.Generations(generations)
	case flags.Changed("duration"):
		cfg.Termination = opt.Duration(duration)
	}

	if err := cfg.Validate(); err != nil {
		return opt.Config{}, err
	}
	return cfg, nil
}

func runOptimization(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	p, err := config.LoadProblem(problemPath)
	if err != nil {
		return err
	}
	cfg, err := algorithmConfig(cmd)
	if err != nil {
		return err
	}

	eval := fit.NewJensenEvaluator(p, wake.Policy{
		CacheDistances: cacheDistances,
		CacheAreas:     cacheAreas,
	})
	optimizer, err := opt.New(cfg)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	rec := opt.NewConvergenceRecorder()
	listeners := []opt.Listener{rec, opt.LogListener{Logger: logger, Every: logEvery}}

	var trace *store.TraceListener
	if writeTrace && storeKind != "" {
		tw, err := store.NewTraceWriter(dataDir, runID, false)
		if err != nil {
			return err
		}
		defer tw.Close()
		trace = store.NewTraceListener(tw)
		listeners = append(listeners, trace)
	}

	started := time.Now()
	sol, err := optimizer.Run(ctx, eval, listeners...)
	if err != nil {
		if sol == nil || ctx.Err() == nil {
			return fmt.Errorf("optimization failed: %w", err)
		}
		slog.Warn("Run interrupted, keeping best layout so far", "error", err)
	}
	if trace != nil && trace.Err() != nil {
		slog.Warn("Trace incomplete", "error", trace.Err())
	}

	record := store.NewRunRecord(cfg, p.Params(), sol, eval.PowerWithoutWake(), started)
	record.ID = runID
	record.ProblemPath = problemPath
	record.Convergence = rec.Points()

	if storeKind != "" {
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.CloseIfSupported(s)
		if err := s.SaveRun(context.WithoutCancel(ctx), record); err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
	}

	printRun(cmd.OutOrStdout(), record)
	return nil
}

func printRun(w io.Writer, r *store.RunRecord) {
	fmt.Fprintf(w, "Run %s (%s, seed %d)\n", r.ID, r.Algorithm.Algorithm, r.Seed)
	fmt.Fprintf(w, "Power: %.4f of %.4f wake-free (efficiency %.2f%%)\n",
		r.Fitness, r.PowerWithoutWake, 100*r.Efficiency())
	fmt.Fprintf(w, "Generations: %d, evaluations: %d, elapsed: %s\n",
		r.Generations, r.Evaluations, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "Layout: %v\n", r.Layout)
	if r.Problem.Dimension > 0 {
		fmt.Fprint(w, renderGrid(r.Layout, r.Problem.Dimension))
	}
}

// renderGrid draws the site with row 0 at the top, one character per cell.
func renderGrid(layout []int, dimension int) string {
	occupied := make(map[int]bool, len(layout))
	for _, c := range layout {
		occupied[c] = true
	}

	var b strings.Builder
	for row := 0; row < dimension; row++ {
		for col := 0; col < dimension; col++ {
			if occupied[row*dimension+col] {
				b.WriteByte('X')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
