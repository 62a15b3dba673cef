package evaluation

import (
	"context"
	"testing"

	"github.com/baditaflorin/go_length_eval/internal/adapters/logger"
)

func TestScorerIdentity(t *testing.T) {
	s, err := NewScorer(DefaultMetricsConfig(), logger.NewNop())
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}

	text := "The quick brown fox jumps over the lazy dog."
	scores := s.Score(context.Background(), text, text)

	if scores.LevenshteinSimilarity != 1 || scores.JaccardSimilarity != 1 {
		t.Errorf("expected edit and set similarity 1, got %v and %v",
			scores.LevenshteinSimilarity, scores.JaccardSimilarity)
	}
	if scores.CosineSimilarity < 1-1e-9 {
		t.Errorf("expected cosine similarity 1, got %v", scores.CosineSimilarity)
	}
	if scores.KLDivergence != 0 || scores.EuclideanDistance != 0 {
		t.Errorf("expected zero divergence and distance, got %v and %v",
			scores.KLDivergence, scores.EuclideanDistance)
	}
	if len(scores.Results) != 5 {
		t.Errorf("expected 5 results, got %d", len(scores.Results))
	}
	if len(s.Calculators()) != 5 {
		t.Errorf("expected 5 calculators, got %d", len(s.Calculators()))
	}
}

func TestScorerBounds(t *testing.T) {
	s, err := NewScorer(DefaultMetricsConfig(), logger.NewNop())
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}

	pairs := [][2]string{
		{"the cat sat on the mat", "a dog barked at the mailman"},
		{"short", "a considerably longer generated essay about nothing"},
		{"same words here", ""},
	}
	for _, p := range pairs {
		scores := s.Score(context.Background(), p[0], p[1])
		for name, v := range map[string]float64{
			"levenshtein": scores.LevenshteinSimilarity,
			"jaccard":     scores.JaccardSimilarity,
			"cosine":      scores.CosineSimilarity,
		} {
			if v < 0 || v > 1 {
				t.Errorf("%s(%q, %q) = %v, want within [0, 1]", name, p[0], p[1], v)
			}
		}
		if scores.KLDivergence < 0 || scores.EuclideanDistance < 0 {
			t.Errorf("negative divergence or distance for %q, %q", p[0], p[1])
		}
	}
}
