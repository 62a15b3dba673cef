// Package length scores how closely a generated text meets its target word count.
package length

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/baditaflorin/go_length_eval/internal/core/domain"
	"github.com/baditaflorin/go_length_eval/internal/ports"
)

// Name of the metric as it appears in results.
const Name = "length_adherence"

// ErrZeroTarget is returned when the target length is not positive.
var ErrZeroTarget = errors.New("length: target length must be positive")

// SimilarityConfig holds configuration for the length adherence calculator.
type SimilarityConfig struct {
	// Threshold is the lowest score counted as meeting the target.
	Threshold float64
	// MaxDiffRatio is the relative deviation from the target that scores 0.
	MaxDiffRatio float64
}

// DefaultConfig returns a default configuration.
func DefaultConfig() SimilarityConfig {
	return SimilarityConfig{
		Threshold:    0.7,
		MaxDiffRatio: 0.3,
	}
}

// Validate checks if the configuration is valid.
func (c SimilarityConfig) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return errors.New("threshold must be between 0 and 1")
	}
	if c.MaxDiffRatio <= 0 {
		return errors.New("maxDiffRatio must be greater than 0")
	}
	return nil
}

// Adherence returns 1 - min(1, |target-actual| / (target*maxDiffRatio)).
func Adherence(target, actual int, maxDiffRatio float64) (float64, error) {
	if target <= 0 {
		return 0, ErrZeroTarget
	}
	diff := math.Abs(float64(target - actual))
	diffRatio := math.Min(1, diff/(float64(target)*maxDiffRatio))
	return 1 - diffRatio, nil
}

// Calculator implements the word-level length adherence calculation.
type Calculator struct {
	config SimilarityConfig
	logger ports.Logger
}

// NewCalculator creates a new length adherence calculator.
func NewCalculator(config SimilarityConfig, logger ports.Logger) (*Calculator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{config: config, logger: logger}, nil
}

// Threshold returns the configured pass threshold.
func (c *Calculator) Threshold() float64 {
	return c.config.Threshold
}

// Compute scores the word count of generated against target.
func (c *Calculator) Compute(ctx context.Context, target int, generated string) domain.Result {
	details := make(map[string]interface{})

	select {
	case <-ctx.Done():
		c.logger.Error("Computation cancelled", "metric", Name, "error", ctx.Err())
		details["error"] = "computation cancelled"
		return domain.Result{Name: Name, Score: 0, Details: details}
	default:
	}

	actual := len(strings.Fields(generated))
	score, err := Adherence(target, actual, c.config.MaxDiffRatio)
	if err != nil {
		c.logger.Warn("Length adherence undefined", "target_length", target, "error", err)
		details["error"] = err.Error()
		return domain.Result{Name: Name, Score: 0, Details: details}
	}

	passed := score >= c.config.Threshold
	details["target_length"] = target
	details["generated_length"] = actual
	details["passed"] = passed

	c.logger.Debug("Computed length adherence",
		"score", score,
		"passed", passed,
		"target_length", target,
		"generated_length", actual,
	)
	return domain.Result{Name: Name, Score: score, Details: details}
}
