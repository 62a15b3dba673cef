// Package jaccard scores two texts by the overlap of their whitespace token sets.
package jaccard

import (
	"context"
	"errors"
	"strings"

	"github.com/baditaflorin/go_length_eval/internal/core/domain"
	"github.com/baditaflorin/go_length_eval/internal/ports"
)

// Name of the metric as it appears in results and reports.
const Name = "jaccard_similarity"

// ErrNoTokens is returned when neither text holds a token.
var ErrNoTokens = errors.New("jaccard: both token sets are empty")

// Similarity returns |A ∩ B| / |A ∪ B| over the whitespace-separated token sets of a and b.
func Similarity(a, b string) (float64, error) {
	setA := tokenSet(a)
	setB := tokenSet(b)

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0, ErrNoTokens
	}
	return float64(intersection) / float64(union), nil
}

func tokenSet(text string) map[string]struct{} {
	fields := strings.Fields(text)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// SimilarityConfig holds configuration for the token-set calculator.
type SimilarityConfig struct {
	// EmptyScore is reported when neither text has tokens.
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

// Calculator implements the token-set similarity calculation.
type Calculator struct {
	config SimilarityConfig
	logger ports.Logger
}

// NewCalculator creates a new token-set similarity calculator.
func NewCalculator(config SimilarityConfig, logger ports.Logger) (*Calculator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{config: config, logger: logger}, nil
}

// Compute calculates the token-set similarity between two texts.
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
		c.logger.Warn("Token-set similarity undefined, using sentinel", "error", err, "score", c.config.EmptyScore)
		details["error"] = err.Error()
		return domain.Result{Name: Name, Score: c.config.EmptyScore, Details: details}
	}

	c.logger.Debug("Computed jaccard similarity", "score", score)
	return domain.Result{Name: Name, Score: score, Details: details}
}
