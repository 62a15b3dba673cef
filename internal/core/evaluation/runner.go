// Package evaluation drives a length-control benchmark: it enumerates trials,
// prompts the generator, scores the output and hands every result to the sinks.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/baditaflorin/go_length_eval/internal/core/domain"
	"github.com/baditaflorin/go_length_eval/internal/core/prompt"
	"github.com/baditaflorin/go_length_eval/internal/ports"
)

// DefaultModelLabel is written to the model column of every result.
const DefaultModelLabel = "gpt3"

// Runner executes trials strictly one after another.
type Runner struct {
	generator  ports.Generator
	scorer     *Scorer
	logger     ports.Logger
	plan       Plan
	sinks      []ports.ResultSink
	recorder   ports.RunRecorder
	modelLabel string
	runID      string
}

// Option configures a Runner.
type Option func(*Runner)

// WithPlan replaces the default plan.
func WithPlan(plan Plan) Option {
	return func(r *Runner) { r.plan = plan }
}

// WithSinks adds result sinks. Each result is written to every sink as soon as it exists.
func WithSinks(sinks ...ports.ResultSink) Option {
	return func(r *Runner) { r.sinks = append(r.sinks, sinks...) }
}

// WithRecorder sets the telemetry recorder.
func WithRecorder(recorder ports.RunRecorder) Option {
	return func(r *Runner) { r.recorder = recorder }
}

// WithModelLabel sets the value of the model column.
func WithModelLabel(label string) Option {
	return func(r *Runner) { r.modelLabel = label }
}

// WithRunID sets the run identifier instead of a random one.
func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

// NewRunner creates a runner around an already loaded generator.
func NewRunner(generator ports.Generator, scorer *Scorer, logger ports.Logger, opts ...Option) (*Runner, error) {
	if generator == nil {
		return nil, errors.New("generator is required")
	}
	if scorer == nil {
		return nil, errors.New("scorer is required")
	}
	r := &Runner{
		generator:  generator,
		scorer:     scorer,
		logger:     logger,
		plan:       DefaultPlan(),
		modelLabel: DefaultModelLabel,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.plan.Validate(); err != nil {
		return nil, err
	}
	if r.recorder == nil {
		r.recorder = nopRecorder{}
	}
	if r.runID == "" {
		r.runID = uuid.NewString()
	}
	return r, nil
}

// RunID identifies this run in logs and persisted results.
func (r *Runner) RunID() string { return r.runID }

// Run evaluates every trial of the plan over docs. On error it stops at the
// failing trial and returns the results produced so far, including a result
// that only some of the sinks accepted.
func (r *Runner) Run(ctx context.Context, docs []domain.Document) ([]domain.TrialResult, error) {
	total := len(docs) * r.plan.TrialsPerDocument()
	r.logger.Info("Starting evaluation run",
		"run_id", r.runID,
		"documents", len(docs),
		"trials", total,
		"generator", r.generator.Name(),
	)

	start := time.Now()
	results := make([]domain.TrialResult, 0, total)
	seq := 0
	for trial := range r.plan.Trials(docs) {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("run interrupted before trial %d: %w", seq+1, err)
		}
		seq++

		res, err := r.runTrial(ctx, seq, trial)
		if err != nil {
			r.logger.Error("Trial failed",
				"run_id", r.runID,
				"seq", seq,
				"file_name", trial.Document.FileName,
				"error", err,
			)
			return results, fmt.Errorf("trial %d (%s, %v, %s): %w",
				seq, trial.Document.FileName, trial.LengthFactor, trial.Direction, err)
		}

		for i, sink := range r.sinks {
			if err := sink.Write(ctx, res); err != nil {
				// Earlier sinks already hold the row.
				if i > 0 {
					results = append(results, res)
				}
				return results, fmt.Errorf("writing result %d: %w", seq, err)
			}
		}
		r.recorder.ObserveTrial(res)
		results = append(results, res)

		r.logger.Info("Trial completed",
			"seq", seq,
			"of", total,
			"file_name", res.FileName,
			"length_factor", res.LengthFactor,
			"operation", res.Direction.String(),
			"original_length", res.OriginalLength,
			"target_length", res.TargetLength,
			"generated_length", res.GeneratedLength,
		)
	}

	r.logger.Info("Evaluation run finished",
		"run_id", r.runID,
		"results", len(results),
		"duration", time.Since(start),
	)
	return results, nil
}

func (r *Runner) runTrial(ctx context.Context, seq int, trial domain.Trial) (domain.TrialResult, error) {
	original := trial.Document.OriginalText
	target, p := prompt.Build(original, trial.LengthFactor, trial.Direction)
	r.logger.Debug("Built prompt", "seq", seq, "target_length", target, "prompt", p)

	genStart := time.Now()
	generated, err := r.generator.Generate(ctx, p, target)
	genTime := time.Since(genStart)
	r.recorder.ObserveGeneration(r.generator.Name(), genTime, err)
	if err != nil {
		return domain.TrialResult{}, err
	}
	r.logger.Debug("Generated text", "seq", seq, "generated", generated)

	scores := r.scorer.Score(ctx, original, generated)
	adherence := r.scorer.Adherence(ctx, target, generated)
	// A cancelled context turns every metric into its sentinel.
	if err := ctx.Err(); err != nil {
		return domain.TrialResult{}, fmt.Errorf("scoring interrupted: %w", err)
	}
	for _, res := range append(scores.Results, adherence) {
		if res.Degenerate() {
			r.recorder.ObserveDegenerate(res.Name)
		}
	}

	return domain.TrialResult{
		RunID:                 r.runID,
		Seq:                   seq,
		FileName:              trial.Document.FileName,
		OriginalLength:        prompt.WordCount(original),
		LengthFactor:          trial.LengthFactor,
		Direction:             trial.Direction,
		Model:                 r.modelLabel,
		TargetLength:          target,
		GeneratedText:         generated,
		GeneratedLength:       prompt.WordCount(generated),
		LevenshteinSimilarity: scores.LevenshteinSimilarity,
		JaccardSimilarity:     scores.JaccardSimilarity,
		CosineSimilarity:      scores.CosineSimilarity,
		KLDivergence:          scores.KLDivergence,
		EuclideanDistance:     scores.EuclideanDistance,
		LengthAdherence:       adherence.Score,
		GenerationTime:        genTime,
	}, nil
}

type nopRecorder struct{}

func (nopRecorder) ObserveGeneration(string, time.Duration, error) {}
func (nopRecorder) ObserveTrial(domain.TrialResult)                {}
func (nopRecorder) ObserveDegenerate(string)                       {}
