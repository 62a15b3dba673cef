// Package divergence measures how the token distribution of one text diverges
// from that of a reference text.
package divergence

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/baditaflorin/go_length_eval/internal/core/domain"
	"github.com/baditaflorin/go_length_eval/internal/ports"
)

// Name of the metric as it appears in results and reports.
const Name = "kl_divergence"

// DefaultSmoothing is add-one smoothing over the union vocabulary.
const DefaultSmoothing = 1.0

// ErrEmptySequence is returned when a distribution cannot be formed.
var ErrEmptySequence = errors.New("divergence: empty token sequence")

// KL returns the Kullback-Leibler divergence D(P||Q) in nats, where P and Q are the
// empirical token distributions of a and b over the union of their supports.
//
// Every count is increased by smoothing before normalization. With smoothing 0 a
// term present in a and missing from b makes the divergence +Inf, and an empty b
// is an error. Both sequences empty is always an error.
func KL(a, b []string, smoothing float64) (float64, error) {
	countsA := counts(a)
	countsB := counts(b)

	vocab := make([]string, 0, len(countsA)+len(countsB))
	for term := range countsA {
		vocab = append(vocab, term)
	}
	for term := range countsB {
		if _, ok := countsA[term]; !ok {
			vocab = append(vocab, term)
		}
	}
	if len(vocab) == 0 {
		return 0, ErrEmptySequence
	}
	if smoothing == 0 && (len(a) == 0 || len(b) == 0) {
		return 0, ErrEmptySequence
	}
	sort.Strings(vocab)

	extra := smoothing * float64(len(vocab))
	totalA := float64(len(a)) + extra
	totalB := float64(len(b)) + extra

	var kl float64
	for _, term := range vocab {
		p := (float64(countsA[term]) + smoothing) / totalA
		if p == 0 {
			continue
		}
		q := (float64(countsB[term]) + smoothing) / totalB
		if q == 0 {
			return math.Inf(1), nil
		}
		kl += p * math.Log(p/q)
	}
	if kl < 0 {
		kl = 0
	}
	return kl, nil
}

func counts(seq []string) map[string]int {
	m := make(map[string]int, len(seq))
	for _, tok := range seq {
		m[tok]++
	}
	return m
}

// SimilarityConfig holds configuration for the divergence calculator.
type SimilarityConfig struct {
	// Smoothing is the pseudo-count added to every term of the union vocabulary.
	Smoothing float64
	// EmptyScore is reported when no distribution can be formed.
	EmptyScore float64
}

// DefaultConfig returns a default configuration.
func DefaultConfig() SimilarityConfig {
	return SimilarityConfig{Smoothing: DefaultSmoothing, EmptyScore: 0}
}

// Validate checks if the configuration is valid.
func (c SimilarityConfig) Validate() error {
	if c.Smoothing < 0 || math.IsNaN(c.Smoothing) || math.IsInf(c.Smoothing, 0) {
		return errors.New("smoothing must be a finite value >= 0")
	}
	if c.EmptyScore < 0 || math.IsNaN(c.EmptyScore) {
		return errors.New("empty divergence must be >= 0")
	}
	return nil
}

// Calculator computes the divergence of the generated text from the original.
type Calculator struct {
	config SimilarityConfig
	logger ports.Logger
}

// NewCalculator creates a new divergence calculator.
func NewCalculator(config SimilarityConfig, logger ports.Logger) (*Calculator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{config: config, logger: logger}, nil
}

// Compute returns D(original || generated) over whitespace tokens.
func (c *Calculator) Compute(ctx context.Context, original, generated string) domain.Result {
	return c.ComputeTokens(ctx, strings.Fields(original), strings.Fields(generated))
}

// ComputeTokens is Compute over pre-split sequences.
func (c *Calculator) ComputeTokens(ctx context.Context, original, generated []string) domain.Result {
	details := map[string]interface{}{"smoothing": c.config.Smoothing}

	select {
	case <-ctx.Done():
		c.logger.Error("Computation cancelled", "metric", Name, "error", ctx.Err())
		details["error"] = "computation cancelled"
		return domain.Result{Name: Name, Score: c.config.EmptyScore, Details: details}
	default:
	}

	kl, err := KL(original, generated, c.config.Smoothing)
	if err != nil {
		c.logger.Warn("Divergence undefined, using sentinel", "error", err, "score", c.config.EmptyScore)
		details["error"] = err.Error()
		return domain.Result{Name: Name, Score: c.config.EmptyScore, Details: details}
	}

	c.logger.Debug("Computed kl divergence", "score", kl, "original_tokens", len(original), "generated_tokens", len(generated))
	return domain.Result{Name: Name, Score: kl, Details: details}
}
