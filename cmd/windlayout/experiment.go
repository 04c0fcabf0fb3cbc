package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/windlayout/internal/config"
	"github.com/cwbudde/windlayout/internal/experiment"
	"github.com/cwbudde/windlayout/internal/fit"
	"github.com/cwbudde/windlayout/internal/store"
)

var experimentPath string

var experimentCmd = &cobra.Command{
	Use:   "experiment",
	Short: "Compare algorithms over repeated seeded runs",
	Long: `Runs every algorithm of an experiment file the configured number of times
on one problem instance and prints mean, standard deviation, minimum and maximum
of the best power found.`,
	RunE: runExperiment,
}

func init() {
	experimentCmd.Flags().StringVar(&experimentPath, "config", "", "Experiment file (required)")
	addStoreFlags(experimentCmd)

	experimentCmd.MarkFlagRequired("config")
	rootCmd.AddCommand(experimentCmd)
}

func runExperiment(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	cfg, err := config.LoadExperiment(experimentPath)
	if err != nil {
		return err
	}
	p, err := config.LoadProblem(cfg.Problem)
	if err != nil {
		return err
	}

	runner, err := experiment.NewRunner(*cfg, fit.NewJensenEvaluator(p, cfg.Cache))
	if err != nil {
		return err
	}

	if storeKind != "" {
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.CloseIfSupported(s)
		runner.OnRun = func(ctx context.Context, run *store.RunRecord) error {
			return s.SaveRun(ctx, run)
		}
	}

	result, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), result)
	return nil
}

func printSummary(out io.Writer, result *experiment.Result) {
	fmt.Fprintf(out, "Experiment %s\n\n", result.Name)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ALGORITHM\tRUNS\tMEAN\tSTD DEV\tMIN\tMAX")
	fmt.Fprintln(w, "---------\t----\t----\t-------\t---\t---")
	for _, ar := range result.Algorithms {
		s := ar.Summary
		fmt.Fprintf(w, "%s\t%d\t%.4f\t%.4f\t%.4f\t%.4f\n",
			ar.Config.Algorithm, s.Runs, s.Mean, s.StdDev, s.Min, s.Max)
	}
	w.Flush()
}
