package warmup

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baditaflorin/go_length_eval/internal/adapters/logger"
	"github.com/baditaflorin/go_length_eval/internal/core/domain"
)

type countingCalculator struct {
	calls atomic.Int64
}

func (c *countingCalculator) Compute(_ context.Context, _, _ string) domain.Result {
	c.calls.Add(1)
	return domain.Result{Name: "counting"}
}

type stubGenerator struct {
	calls     int
	maxLength int
	err       error
}

func (g *stubGenerator) Name() string { return "stub" }

func (g *stubGenerator) Generate(_ context.Context, _ string, maxLength int) (string, error) {
	g.calls++
	g.maxLength = maxLength
	return "", g.err
}

func (g *stubGenerator) Close() error { return nil }

func TestWarmUpRunsEveryComponent(t *testing.T) {
	cfg := DefaultWarmupConfig()
	cfg.Concurrency = 2
	cfg.Iterations = 3
	cfg.ForceGC = false

	calc := &countingCalculator{}
	gen := &stubGenerator{}
	m := NewManager(logger.NewNop(), cfg)
	m.RegisterCalculator(calc)
	m.RegisterGenerator(gen)

	require.NoError(t, m.WarmUp(context.Background()))
	assert.Equal(t, int64(6), calc.calls.Load())
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, cfg.GenerationLength, gen.maxLength)
}

func TestWarmUpReturnsGenerationError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("connection refused")}
	m := NewManager(logger.NewNop(), WarmupConfig{Concurrency: 1, GenerationLength: 4, SampleTextSize: 50})
	m.RegisterGenerator(gen)

	err := m.WarmUp(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stub")
}

func TestWarmUpSkipsGenerationWhenDisabled(t *testing.T) {
	gen := &stubGenerator{}
	m := NewManager(logger.NewNop(), WarmupConfig{Concurrency: 1})
	m.RegisterGenerator(gen)

	require.NoError(t, m.WarmUp(context.Background()))
	assert.Equal(t, 0, gen.calls)
}

func TestGenerateSimilarText(t *testing.T) {
	original := generateSampleText(100)
	assert.LessOrEqual(t, len(original), 100)

	similar := generateSimilarText(original, 0.5)
	assert.Equal(t, len(strings.Fields(original)), len(strings.Fields(similar)))
	assert.NotEqual(t, original, similar)
}
