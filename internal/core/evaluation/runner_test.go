package evaluation_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baditaflorin/go_length_eval/internal/adapters/generator"
	"github.com/baditaflorin/go_length_eval/internal/adapters/logger"
	"github.com/baditaflorin/go_length_eval/internal/adapters/storage/csvfile"
	"github.com/baditaflorin/go_length_eval/internal/adapters/tokenizer"
	"github.com/baditaflorin/go_length_eval/internal/core/domain"
	"github.com/baditaflorin/go_length_eval/internal/core/evaluation"
)

func hundredWords() string {
	words := make([]string, 100)
	for i := range words {
		words[i] = []string{"alpha", "beta", "gamma", "delta", "epsilon"}[i%5]
	}
	return strings.Join(words, " ")
}

func echoGenerator() *generator.Service {
	cfg := generator.Config{
		Provider:   generator.ProviderEcho,
		Encoding:   tokenizer.Words,
		EchoPolicy: generator.EchoInclude,
	}
	return generator.NewWithModel(generator.NewEchoModel(), tokenizer.NewWordTokenizer(), cfg, logger.NewNop())
}

func newRunner(t *testing.T, gen *generator.Service, opts ...evaluation.Option) *evaluation.Runner {
	t.Helper()
	scorer, err := evaluation.NewScorer(evaluation.DefaultMetricsConfig(), logger.NewNop())
	require.NoError(t, err)
	r, err := evaluation.NewRunner(gen, scorer, logger.NewNop(), opts...)
	require.NoError(t, err)
	return r
}

func runToCSV(t *testing.T, docs []domain.Document) ([]domain.TrialResult, []byte) {
	t.Helper()
	var buf bytes.Buffer
	w, err := csvfile.NewWriter(&buf)
	require.NoError(t, err)

	results, err := newRunner(t, echoGenerator(), evaluation.WithSinks(w)).Run(context.Background(), docs)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return results, buf.Bytes()
}

func TestRunSingleDocumentProducesSixRows(t *testing.T) {
	docs := []domain.Document{{FileName: "essay.txt", OriginalText: hundredWords()}}

	results, out := runToCSV(t, docs)
	require.Len(t, results, 6)

	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, csvfile.Columns, rows[0])

	for i, row := range rows[1:] {
		assert.Equal(t, "essay.txt", row[0], "row %d", i)
		assert.Equal(t, "100", row[1], "row %d", i)
		assert.Equal(t, "gpt3", row[4], "row %d", i)
	}

	wantTargets := []int{25, 400, 50, 200, 75, 133}
	for i, res := range results {
		assert.Equal(t, i+1, res.Seq)
		assert.Equal(t, 100, res.OriginalLength)
		assert.Equal(t, wantTargets[i], res.TargetLength, "trial %d", i)
		assert.LessOrEqual(t, res.GeneratedLength, res.TargetLength, "trial %d", i)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	docs := []domain.Document{
		{FileName: "a.txt", OriginalText: hundredWords()},
		{FileName: "b.txt", OriginalText: "A short note, written in haste."},
	}

	_, first := runToCSV(t, docs)
	_, second := runToCSV(t, docs)
	assert.Equal(t, first, second)
}

type failingGenerator struct {
	calls  int
	failAt int
}

func (g *failingGenerator) Name() string { return "failing" }

func (g *failingGenerator) Generate(_ context.Context, prompt string, _ int) (string, error) {
	g.calls++
	if g.calls == g.failAt {
		return "", errors.New("model unavailable")
	}
	return "generated text " + prompt[:10], nil
}

func (g *failingGenerator) Close() error { return nil }

type memorySink struct {
	results []domain.TrialResult
}

func (s *memorySink) Write(_ context.Context, r domain.TrialResult) error {
	s.results = append(s.results, r)
	return nil
}

func (s *memorySink) Close() error { return nil }

type countingRecorder struct {
	generations, errors, trials int
}

func (r *countingRecorder) ObserveGeneration(_ string, _ time.Duration, err error) {
	r.generations++
	if err != nil {
		r.errors++
	}
}
func (r *countingRecorder) ObserveTrial(domain.TrialResult) { r.trials++ }
func (r *countingRecorder) ObserveDegenerate(string)        {}

func TestRunKeepsPartialResultsOnError(t *testing.T) {
	scorer, err := evaluation.NewScorer(evaluation.DefaultMetricsConfig(), logger.NewNop())
	require.NoError(t, err)

	sink := &memorySink{}
	rec := &countingRecorder{}
	gen := &failingGenerator{failAt: 3}
	r, err := evaluation.NewRunner(gen, scorer, logger.NewNop(),
		evaluation.WithSinks(sink),
		evaluation.WithRecorder(rec),
		evaluation.WithRunID("run-42"),
		evaluation.WithModelLabel("mistral"),
	)
	require.NoError(t, err)

	docs := []domain.Document{{FileName: "doc.txt", OriginalText: "one two three four"}}
	results, err := r.Run(context.Background(), docs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")
	assert.Contains(t, err.Error(), "trial 3")

	require.Len(t, results, 2)
	assert.Equal(t, results, sink.results)
	for _, res := range results {
		assert.Equal(t, "run-42", res.RunID)
		assert.Equal(t, "mistral", res.Model)
	}
	assert.Equal(t, 3, rec.generations)
	assert.Equal(t, 1, rec.errors)
	assert.Equal(t, 2, rec.trials)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &failingGenerator{}
	scorer, err := evaluation.NewScorer(evaluation.DefaultMetricsConfig(), logger.NewNop())
	require.NoError(t, err)
	r, err := evaluation.NewRunner(gen, scorer, logger.NewNop())
	require.NoError(t, err)

	results, err := r.Run(ctx, []domain.Document{{FileName: "doc.txt", OriginalText: "one two"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
	assert.Equal(t, 0, gen.calls)
}

// cancellingGenerator echoes the original text and cancels the run before it returns.
type cancellingGenerator struct {
	cancel context.CancelFunc
	text   string
}

func (g *cancellingGenerator) Name() string { return "cancelling" }

func (g *cancellingGenerator) Generate(context.Context, string, int) (string, error) {
	g.cancel()
	return g.text, nil
}

func (g *cancellingGenerator) Close() error { return nil }

func TestRunDiscardsTrialCancelledDuringScoring(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const text = "alpha beta gamma delta"
	var buf bytes.Buffer
	w, err := csvfile.NewWriter(&buf)
	require.NoError(t, err)
	sink := &memorySink{}
	rec := &countingRecorder{}

	scorer, err := evaluation.NewScorer(evaluation.DefaultMetricsConfig(), logger.NewNop())
	require.NoError(t, err)
	r, err := evaluation.NewRunner(&cancellingGenerator{cancel: cancel, text: text}, scorer, logger.NewNop(),
		evaluation.WithSinks(w, sink),
		evaluation.WithRecorder(rec),
	)
	require.NoError(t, err)

	results, err := r.Run(ctx, []domain.Document{{FileName: "d", OriginalText: text}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "trial 1")
	assert.Empty(t, results)
	assert.Empty(t, sink.results)
	assert.Equal(t, 0, rec.trials)

	require.NoError(t, w.Close())
	rows, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1, "only the header is written")
}

type brokenSink struct{}

func (brokenSink) Write(context.Context, domain.TrialResult) error { return errors.New("disk full") }
func (brokenSink) Close() error                                    { return nil }

func TestRunCountsResultHeldByEarlierSink(t *testing.T) {
	scorer, err := evaluation.NewScorer(evaluation.DefaultMetricsConfig(), logger.NewNop())
	require.NoError(t, err)

	first := &memorySink{}
	r, err := evaluation.NewRunner(&failingGenerator{}, scorer, logger.NewNop(),
		evaluation.WithSinks(first, brokenSink{}),
	)
	require.NoError(t, err)

	results, err := r.Run(context.Background(), []domain.Document{{FileName: "doc.txt", OriginalText: "one two three four"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	require.Len(t, first.results, 1)
	assert.Equal(t, first.results, results)
}

func TestNewRunnerValidates(t *testing.T) {
	scorer, err := evaluation.NewScorer(evaluation.DefaultMetricsConfig(), logger.NewNop())
	require.NoError(t, err)

	_, err = evaluation.NewRunner(nil, scorer, logger.NewNop())
	assert.Error(t, err)

	_, err = evaluation.NewRunner(&failingGenerator{}, nil, logger.NewNop())
	assert.Error(t, err)

	_, err = evaluation.NewRunner(&failingGenerator{}, scorer, logger.NewNop(),
		evaluation.WithPlan(evaluation.Plan{Ratios: []float64{2}, Directions: evaluation.DefaultDirections}))
	assert.Error(t, err)

	r, err := evaluation.NewRunner(&failingGenerator{}, scorer, logger.NewNop())
	require.NoError(t, err)
	assert.NotEmpty(t, r.RunID())
}
