package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/baditaflorin/go_length_eval/internal/adapters/generator"
	"github.com/baditaflorin/go_length_eval/internal/adapters/storage/csvfile"
	"github.com/baditaflorin/go_length_eval/internal/adapters/storage/sqlite"
	"github.com/baditaflorin/go_length_eval/internal/adapters/telemetry"
	"github.com/baditaflorin/go_length_eval/internal/core/evaluation"
	"github.com/baditaflorin/go_length_eval/internal/ports"
	"github.com/baditaflorin/go_length_eval/internal/warmup"
)

var (
	runSQLitePath string
	runWarmUp     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the length-control benchmark",
	Long: `Loads the metadata table, prompts the model for every document at each
length ratio in both directions, scores the outputs and writes one row per
trial to the results CSV as soon as it is produced.`,
	Args: cobra.NoArgs,
	RunE: runEvaluation,
}

func init() {
	runCmd.Flags().StringVar(&runSQLitePath, "sqlite", "", "also store results in this SQLite database")
	runCmd.Flags().BoolVar(&runWarmUp, "warm-up", false, "prime the model and calculators before the first trial")
	rootCmd.AddCommand(runCmd)
}

func runEvaluation(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("sqlite") {
		cfg.Output.SQLitePath = runSQLitePath
	}

	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	docs, err := csvfile.NewSource(cfg.Input.Path).Load(ctx)
	if err != nil {
		return err
	}
	plan, err := cfg.Plan()
	if err != nil {
		return err
	}
	scorer, err := evaluation.NewScorer(cfg.MetricsConfig(), log)
	if err != nil {
		return err
	}

	gen, err := generator.New(cfg.Generator(), log)
	if err != nil {
		return err
	}
	defer gen.Close()

	if runWarmUp {
		wm := warmup.NewManager(log, warmup.DefaultWarmupConfig())
		wm.RegisterGenerator(gen)
		wm.RegisterCalculator(scorer.Calculators()...)
		if err := wm.WarmUp(ctx); err != nil {
			return err
		}
	}

	report, err := csvfile.Create(cfg.Output.CSV)
	if err != nil {
		return err
	}
	defer report.Close()
	sinks := []ports.ResultSink{report}

	runID := uuid.NewString()
	var store *sqlite.Store
	if cfg.Output.SQLitePath != "" {
		store, err = sqlite.Open(cfg.Output.SQLitePath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.BeginRun(ctx, runID, gen.Name(), cfg.Evaluation.ModelLabel); err != nil {
			return err
		}
		sinks = append(sinks, store.Sink())
	}

	recorder := telemetry.NewRecorder()
	runner, err := evaluation.NewRunner(gen, scorer, log,
		evaluation.WithPlan(plan),
		evaluation.WithSinks(sinks...),
		evaluation.WithRecorder(recorder),
		evaluation.WithModelLabel(cfg.Evaluation.ModelLabel),
		evaluation.WithRunID(runID),
	)
	if err != nil {
		return err
	}

	results, runErr := runner.Run(ctx, docs)

	// Bookkeeping must survive an interrupted run.
	finishCtx := context.WithoutCancel(ctx)
	if store != nil {
		status := sqlite.StatusCompleted
		if runErr != nil {
			status = sqlite.StatusFailed
		}
		if err := store.FinishRun(finishCtx, runID, status); err != nil {
			log.Error("Failed to record run status", "run_id", runID, "error", err)
		}
	}
	if cfg.Telemetry.TextfilePath != "" {
		if err := recorder.WriteTextfile(cfg.Telemetry.TextfilePath); err != nil {
			log.Error("Failed to write metrics", "path", cfg.Telemetry.TextfilePath, "error", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("evaluation stopped after %d results: %w", len(results), runErr)
	}
	if err := report.Close(); err != nil {
		return err
	}
	cmd.Printf("Wrote %d results to %s (run %s)\n", len(results), cfg.Output.CSV, runID)
	onTarget := 0
	for _, r := range results {
		if r.LengthAdherence >= cfg.Metrics.LengthThreshold {
			onTarget++
		}
	}
	cmd.Printf("%d of %d outputs within the length target\n", onTarget, len(results))
	return nil
}
