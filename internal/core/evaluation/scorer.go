package evaluation

import (
	"context"
	"strings"

	"github.com/baditaflorin/go_length_eval/internal/core/cosine"
	"github.com/baditaflorin/go_length_eval/internal/core/divergence"
	"github.com/baditaflorin/go_length_eval/internal/core/domain"
	"github.com/baditaflorin/go_length_eval/internal/core/euclidean"
	"github.com/baditaflorin/go_length_eval/internal/core/jaccard"
	"github.com/baditaflorin/go_length_eval/internal/core/length"
	"github.com/baditaflorin/go_length_eval/internal/core/levenshtein"
	"github.com/baditaflorin/go_length_eval/internal/ports"
)

// MetricsConfig gathers the configuration of the five calculators.
type MetricsConfig struct {
	Levenshtein levenshtein.SimilarityConfig
	Jaccard     jaccard.SimilarityConfig
	Cosine      cosine.SimilarityConfig
	Divergence  divergence.SimilarityConfig
	Length      length.SimilarityConfig
}

// DefaultMetricsConfig returns the default configuration of every calculator.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Levenshtein: levenshtein.DefaultConfig(),
		Jaccard:     jaccard.DefaultConfig(),
		Cosine:      cosine.DefaultConfig(),
		Divergence:  divergence.DefaultConfig(),
		Length:      length.DefaultConfig(),
	}
}

// Scorer computes all five metrics over an (original, generated) pair.
type Scorer struct {
	levenshtein *levenshtein.Calculator
	jaccard     *jaccard.Calculator
	cosine      *cosine.Calculator
	divergence  *divergence.Calculator
	euclidean   *euclidean.Calculator
	length      *length.Calculator
}

// NewScorer creates the five calculators.
func NewScorer(cfg MetricsConfig, logger ports.Logger) (*Scorer, error) {
	lev, err := levenshtein.NewCalculator(cfg.Levenshtein, logger)
	if err != nil {
		return nil, err
	}
	jac, err := jaccard.NewCalculator(cfg.Jaccard, logger)
	if err != nil {
		return nil, err
	}
	cos, err := cosine.NewCalculator(cfg.Cosine, logger, nil)
	if err != nil {
		return nil, err
	}
	kl, err := divergence.NewCalculator(cfg.Divergence, logger)
	if err != nil {
		return nil, err
	}
	adh, err := length.NewCalculator(cfg.Length, logger)
	if err != nil {
		return nil, err
	}
	return &Scorer{
		levenshtein: lev,
		jaccard:     jac,
		cosine:      cos,
		divergence:  kl,
		euclidean:   euclidean.NewCalculator(logger),
		length:      adh,
	}, nil
}

// Calculators returns every calculator, for warm-up.
func (s *Scorer) Calculators() []ports.SimilarityCalculator {
	return []ports.SimilarityCalculator{s.levenshtein, s.jaccard, s.cosine, s.divergence, s.euclidean}
}

// Score computes every metric of generated against original.
func (s *Scorer) Score(ctx context.Context, original, generated string) domain.Scores {
	origTokens := strings.Fields(original)
	genTokens := strings.Fields(generated)

	lev := s.levenshtein.Compute(ctx, original, generated)
	jac := s.jaccard.Compute(ctx, original, generated)
	cos := s.cosine.Compute(ctx, original, generated)
	kl := s.divergence.ComputeTokens(ctx, origTokens, genTokens)
	euc := s.euclidean.ComputeTokens(ctx, origTokens, genTokens)

	return domain.Scores{
		LevenshteinSimilarity: lev.Score,
		JaccardSimilarity:     jac.Score,
		CosineSimilarity:      cos.Score,
		KLDivergence:          kl.Score,
		EuclideanDistance:     euc.Score,
		Results:               []domain.Result{lev, jac, cos, kl, euc},
	}
}

// Adherence scores the word count of generated against the target length.
func (s *Scorer) Adherence(ctx context.Context, target int, generated string) domain.Result {
	return s.length.Compute(ctx, target, generated)
}
