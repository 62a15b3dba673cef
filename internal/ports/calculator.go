package ports

import (
	"context"

	"github.com/baditaflorin/go_length_eval/internal/core/domain"
)

// SimilarityCalculator defines the interface for computing a metric between two texts.
type SimilarityCalculator interface {
	Compute(ctx context.Context, original, generated string) domain.Result
}
