package length

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/baditaflorin/go_length_eval/internal/adapters/logger"
)

func TestAdherence(t *testing.T) {
	tests := []struct {
		name    string
		target  int
		actual  int
		want    float64
		wantErr error
	}{
		{"exact", 10, 10, 1, nil},
		{"short by ten percent", 10, 9, 1 - 0.1/0.3, nil},
		{"long by ten percent", 10, 11, 1 - 0.1/0.3, nil},
		{"beyond max ratio", 10, 20, 0, nil},
		{"empty output", 10, 0, 0, nil},
		{"zero target", 0, 5, 0, ErrZeroTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Adherence(tt.target, tt.actual, 0.3)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Adherence(%d, %d) = %v, want %v", tt.target, tt.actual, got, tt.want)
			}
		})
	}
}

func TestCalculatorCompute(t *testing.T) {
	calc, err := NewCalculator(DefaultConfig(), logger.NewNop())
	if err != nil {
		t.Fatalf("NewCalculator: %v", err)
	}

	res := calc.Compute(context.Background(), 4, "one two three four")
	if res.Score != 1 || res.Details["passed"] != true {
		t.Errorf("expected a passing score of 1, got %v %v", res.Score, res.Details)
	}

	res = calc.Compute(context.Background(), 0, "anything")
	if !res.Degenerate() {
		t.Errorf("expected degenerate result for zero target")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if res := calc.Compute(ctx, 4, "one"); !res.Degenerate() {
		t.Errorf("expected degenerate result for cancelled context")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (SimilarityConfig{Threshold: 2, MaxDiffRatio: 0.3}).Validate(); err == nil {
		t.Error("expected error for threshold above 1")
	}
	if err := (SimilarityConfig{Threshold: 0.5, MaxDiffRatio: 0}).Validate(); err == nil {
		t.Error("expected error for zero max diff ratio")
	}
}
