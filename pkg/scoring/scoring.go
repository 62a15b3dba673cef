// Package scoring computes the length-control benchmark metrics between an
// original text and a generated one, and renders the benchmark's prompts.
package scoring

import (
	"context"

	"github.com/baditaflorin/l"

	"github.com/baditaflorin/go_length_eval/internal/adapters/logger"
	"github.com/baditaflorin/go_length_eval/internal/core/divergence"
	"github.com/baditaflorin/go_length_eval/internal/core/domain"
	"github.com/baditaflorin/go_length_eval/internal/core/evaluation"
	"github.com/baditaflorin/go_length_eval/internal/core/prompt"
	"github.com/baditaflorin/go_length_eval/internal/ports"
	"github.com/baditaflorin/go_length_eval/internal/warmup"
)

// Direction tells whether the target is longer or shorter than the original.
type Direction = domain.Direction

// Directions.
const (
	Expand   = domain.Expand
	Compress = domain.Compress
)

// Scores holds the five metric values of one pair.
type Scores struct {
	LevenshteinSimilarity float64
	JaccardSimilarity     float64
	CosineSimilarity      float64
	KLDivergence          float64
	EuclideanDistance     float64
	// Degenerate names the metrics that reported their sentinel instead of a value.
	Degenerate []string
}

// Scorer computes the benchmark metrics.
type Scorer struct {
	scorer *evaluation.Scorer
	logger ports.Logger
}

// Option defines a functional option for configuring a Scorer.
type Option func(*scorerConfig)

type scorerConfig struct {
	Metrics      evaluation.MetricsConfig
	Logger       ports.Logger
	WarmUp       bool
	WarmUpConfig warmup.WarmupConfig
}

// WithLogger sets a custom logger.
func WithLogger(l l.Logger) Option {
	return func(cfg *scorerConfig) {
		cfg.Logger = logger.FromExisting(l)
	}
}

// WithEmptyScore sets the score reported by the similarity metrics when they are undefined.
func WithEmptyScore(score float64) Option {
	return func(cfg *scorerConfig) {
		cfg.Metrics.Levenshtein.EmptyScore = score
		cfg.Metrics.Jaccard.EmptyScore = score
		cfg.Metrics.Cosine.EmptyScore = score
	}
}

// WithEmptyDivergence sets the divergence reported when no distribution can be formed.
func WithEmptyDivergence(score float64) Option {
	return func(cfg *scorerConfig) {
		cfg.Metrics.Divergence.EmptyScore = score
	}
}

// WithSmoothing sets the pseudo-count of the divergence. Zero disables smoothing.
func WithSmoothing(alpha float64) Option {
	return func(cfg *scorerConfig) {
		cfg.Metrics.Divergence.Smoothing = alpha
	}
}

// WithWarmUp enables calculator warm-up on initialization.
func WithWarmUp(enable bool) Option {
	return func(cfg *scorerConfig) {
		cfg.WarmUp = enable
	}
}

// WithWarmUpConfig sets a custom warm-up configuration.
func WithWarmUpConfig(config warmup.WarmupConfig) Option {
	return func(cfg *scorerConfig) {
		cfg.WarmUpConfig = config
		cfg.WarmUp = true
	}
}

// New creates a new Scorer.
func New(opts ...Option) (*Scorer, error) {
	config := &scorerConfig{
		Metrics:      evaluation.DefaultMetricsConfig(),
		WarmUpConfig: warmup.DefaultWarmupConfig(),
	}
	for _, opt := range opts {
		opt(config)
	}

	if config.Logger == nil {
		var err error
		config.Logger, err = logger.NewStdLogger()
		if err != nil {
			return nil, err
		}
	}

	inner, err := evaluation.NewScorer(config.Metrics, config.Logger)
	if err != nil {
		return nil, err
	}
	s := &Scorer{scorer: inner, logger: config.Logger}

	if config.WarmUp {
		wm := warmup.NewManager(config.Logger, config.WarmUpConfig)
		wm.RegisterCalculator(inner.Calculators()...)
		if err := wm.WarmUp(context.Background()); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Score computes every metric of generated against original.
func (s *Scorer) Score(ctx context.Context, original, generated string) Scores {
	scores := s.scorer.Score(ctx, original, generated)
	out := Scores{
		LevenshteinSimilarity: scores.LevenshteinSimilarity,
		JaccardSimilarity:     scores.JaccardSimilarity,
		CosineSimilarity:      scores.CosineSimilarity,
		KLDivergence:          scores.KLDivergence,
		EuclideanDistance:     scores.EuclideanDistance,
	}
	for _, r := range scores.Results {
		if r.Degenerate() {
			out.Degenerate = append(out.Degenerate, r.Name)
		}
	}
	return out
}

// LengthAdherence scores the word count of generated against target, in [0, 1].
// It reports 0 when target is not positive.
func (s *Scorer) LengthAdherence(ctx context.Context, target int, generated string) float64 {
	return s.scorer.Adherence(ctx, target, generated).Score
}

// WithLengthScale sets the relative deviation from the target that scores 0.
func WithLengthScale(maxDiffRatio float64) Option {
	return func(cfg *scorerConfig) {
		cfg.Metrics.Length.MaxDiffRatio = maxDiffRatio
	}
}

// Close flushes the scorer's logger.
func (s *Scorer) Close() error {
	return s.logger.Close()
}

// BuildPrompt returns the target word count and the prompt asking for text
// rewritten at ratio in the given direction.
func BuildPrompt(text string, ratio float64, direction Direction) (int, string) {
	return prompt.Build(text, ratio, direction)
}

// DefaultSmoothing is the pseudo-count used unless WithSmoothing is given.
const DefaultSmoothing = divergence.DefaultSmoothing
