// Package cosine scores a generated text against an original in a TF-IDF
// vector space learned from the original alone.
package cosine

import (
	"context"
	"errors"

	"github.com/baditaflorin/go_length_eval/internal/adapters/normalizer"
	"github.com/baditaflorin/go_length_eval/internal/core/domain"
	"github.com/baditaflorin/go_length_eval/internal/ports"
)

// Name of the metric as it appears in results and reports.
const Name = "cosine_similarity"

// Similarity fits a vectorizer on original, projects both texts through it and
// returns their cosine similarity. Terms that appear only in generated carry no weight.
func Similarity(analyzer ports.Analyzer, original, generated string) (float64, error) {
	v := NewVectorizer(analyzer)
	if err := v.Fit(original); err != nil {
		return 0, err
	}
	origVec, err := v.Transform(original)
	if err != nil {
		return 0, err
	}
	genVec, err := v.Transform(generated)
	if err != nil {
		return 0, err
	}
	return min(Cosine(origVec, genVec), 1), nil
}

// SimilarityConfig holds configuration for the cosine calculator.
type SimilarityConfig struct {
	// EmptyScore is reported when the original yields an empty vocabulary.
	EmptyScore float64
	// MinTermRunes is the shortest term kept by the analyzer.
	MinTermRunes int
}

// DefaultConfig returns a default configuration.
func DefaultConfig() SimilarityConfig {
	return SimilarityConfig{EmptyScore: 0, MinTermRunes: normalizer.DefaultMinTermRunes}
}

// Validate checks if the configuration is valid.
func (c SimilarityConfig) Validate() error {
	if c.EmptyScore < 0 || c.EmptyScore > 1 {
		return errors.New("empty score must be between 0 and 1")
	}
	if c.MinTermRunes < 1 {
		return errors.New("min term runes must be at least 1")
	}
	return nil
}

// Calculator implements the TF-IDF cosine similarity calculation.
type Calculator struct {
	config   SimilarityConfig
	logger   ports.Logger
	analyzer ports.Analyzer
}

// NewCalculator creates a new cosine calculator. A nil analyzer selects the word analyzer.
func NewCalculator(config SimilarityConfig, logger ports.Logger, analyzer ports.Analyzer) (*Calculator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if analyzer == nil {
		analyzer = normalizer.NewWordAnalyzer(nil, config.MinTermRunes)
	}
	return &Calculator{config: config, logger: logger, analyzer: analyzer}, nil
}

// Compute calculates the cosine similarity of generated to original.
func (c *Calculator) Compute(ctx context.Context, original, generated string) domain.Result {
	details := make(map[string]interface{})

	select {
	case <-ctx.Done():
		c.logger.Error("Computation cancelled", "metric", Name, "error", ctx.Err())
		details["error"] = "computation cancelled"
		return domain.Result{Name: Name, Score: c.config.EmptyScore, Details: details}
	default:
	}

	score, err := Similarity(c.analyzer, original, generated)
	if err != nil {
		c.logger.Warn("Cosine similarity undefined, using sentinel", "error", err, "score", c.config.EmptyScore)
		details["error"] = err.Error()
		return domain.Result{Name: Name, Score: c.config.EmptyScore, Details: details}
	}

	c.logger.Debug("Computed cosine similarity", "score", score)
	return domain.Result{Name: Name, Score: score, Details: details}
}
