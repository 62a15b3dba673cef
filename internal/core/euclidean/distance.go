// Package euclidean measures the distance between the term-frequency vectors of two token sequences.
package euclidean

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/baditaflorin/go_length_eval/internal/core/domain"
	"github.com/baditaflorin/go_length_eval/internal/ports"
)

// Name of the metric as it appears in results and reports.
const Name = "euclidean_distance"

// Distance returns the Euclidean norm of the per-term count differences of a and b.
// Terms missing from one sequence count as zero there.
func Distance(a, b []string) float64 {
	countsA := make(map[string]int, len(a))
	for _, tok := range a {
		countsA[tok]++
	}
	countsB := make(map[string]int, len(b))
	for _, tok := range b {
		countsB[tok]++
	}

	terms := make([]string, 0, len(countsA)+len(countsB))
	for term := range countsA {
		terms = append(terms, term)
	}
	for term := range countsB {
		if _, ok := countsA[term]; !ok {
			terms = append(terms, term)
		}
	}
	sort.Strings(terms)

	var sum float64
	for _, term := range terms {
		d := float64(countsA[term] - countsB[term])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Calculator computes the multiset distance between whitespace tokens.
type Calculator struct {
	logger ports.Logger
}

// NewCalculator creates a new distance calculator.
func NewCalculator(logger ports.Logger) *Calculator {
	return &Calculator{logger: logger}
}

// Compute returns the distance between the whitespace tokens of the two texts.
func (c *Calculator) Compute(ctx context.Context, original, generated string) domain.Result {
	return c.ComputeTokens(ctx, strings.Fields(original), strings.Fields(generated))
}

// ComputeTokens is Compute over pre-split sequences.
func (c *Calculator) ComputeTokens(ctx context.Context, original, generated []string) domain.Result {
	details := make(map[string]interface{})
	if err := ctx.Err(); err != nil {
		c.logger.Error("Computation cancelled", "metric", Name, "error", err)
		details["error"] = "computation cancelled"
		return domain.Result{Name: Name, Details: details}
	}

	dist := Distance(original, generated)
	c.logger.Debug("Computed euclidean distance", "distance", dist)
	return domain.Result{Name: Name, Score: dist, Details: details}
}
