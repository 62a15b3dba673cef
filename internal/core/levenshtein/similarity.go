// Package levenshtein scores two texts by their character-level edit distance.
package levenshtein

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/baditaflorin/go_length_eval/internal/core/domain"
	"github.com/baditaflorin/go_length_eval/internal/ports"
)

// Name of the metric as it appears in results and reports.
const Name = "levenshtein_similarity"

// ErrEmptyInput is returned when both texts are empty and the ratio is undefined.
var ErrEmptyInput = errors.New("levenshtein: both texts are empty")

// Similarity returns 1 - distance/maxLen, where distance is the rune-level edit
// distance and maxLen the rune length of the longer text.
func Similarity(a, b string) (float64, error) {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	maxLen := max(la, lb)
	if maxLen == 0 {
		return 0, ErrEmptyInput
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen), nil
}

// SimilarityConfig holds configuration for the edit-distance calculator.
type SimilarityConfig struct {
	// EmptyScore is reported when both texts are empty.
	EmptyScore float64
}

// DefaultConfig returns a default configuration.
func DefaultConfig() SimilarityConfig {
	return SimilarityConfig{EmptyScore: 0}
}

// Validate checks if the configuration is valid.
func (c SimilarityConfig) Validate() error {
	if c.EmptyScore < 0 || c.EmptyScore > 1 {
		return errors.New("empty score must be between 0 and 1")
	}
	return nil
}

// Calculator implements the edit-distance similarity calculation.
type Calculator struct {
	config SimilarityConfig
	logger ports.Logger
}

// NewCalculator creates a new edit-distance similarity calculator.
func NewCalculator(config SimilarityConfig, logger ports.Logger) (*Calculator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{config: config, logger: logger}, nil
}

// Compute calculates the edit-distance similarity between two texts.
func (c *Calculator) Compute(ctx context.Context, original, generated string) domain.Result {
	details := make(map[string]interface{})

	select {
	case <-ctx.Done():
		c.logger.Error("Computation cancelled", "metric", Name, "error", ctx.Err())
		details["error"] = "computation cancelled"
		return domain.Result{Name: Name, Score: c.config.EmptyScore, Details: details}
	default:
	}

	score, err := Similarity(original, generated)
	if err != nil {
		c.logger.Warn("Edit distance undefined, using sentinel", "error", err, "score", c.config.EmptyScore)
		details["error"] = err.Error()
		return domain.Result{Name: Name, Score: c.config.EmptyScore, Details: details}
	}

	details["original_runes"] = utf8.RuneCountInString(original)
	details["generated_runes"] = utf8.RuneCountInString(generated)
	c.logger.Debug("Computed levenshtein similarity", "score", score, "details", details)

	return domain.Result{Name: Name, Score: score, Details: details}
}
