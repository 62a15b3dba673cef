package httpserver

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/baditaflorin/go_length_eval/internal/adapters/logger"
	"github.com/baditaflorin/go_length_eval/internal/core/evaluation"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	scorer, err := evaluation.NewScorer(evaluation.DefaultMetricsConfig(), logger.NewNop())
	require.NoError(t, err)
	return New(DefaultConfig(), scorer, logger.NewNop())
}

func do(s *Server, method, path, body string) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	ctx.Request.SetBodyString(body)
	s.Handler(&ctx)
	return &ctx
}

func TestHealth(t *testing.T) {
	ctx := do(newTestServer(t), fasthttp.MethodGet, "/health", "")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), `"status":"ok"`)
}

func TestScoreIdentical(t *testing.T) {
	body := `{"original":"the quick brown fox","generated":"the quick brown fox"}`
	ctx := do(newTestServer(t), fasthttp.MethodPost, "/score", body)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.InDelta(t, 1.0, resp["levenshtein_similarity"], 1e-9)
	assert.InDelta(t, 1.0, resp["jaccard_similarity"], 1e-9)
	assert.InDelta(t, 1.0, resp["cosine_similarity"], 1e-9)
	assert.InDelta(t, 0.0, resp["kl_divergence"], 1e-9)
	assert.InDelta(t, 0.0, resp["euclidean_distance"], 1e-9)
	assert.NotContains(t, resp, "degenerate")
}

func TestScoreReportsDegenerateMetrics(t *testing.T) {
	// Single-letter words never enter the TF-IDF vocabulary.
	body := `{"original":"a b c","generated":""}`
	ctx := do(newTestServer(t), fasthttp.MethodPost, "/score", body)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var resp ScoreResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.Contains(t, resp.Degenerate, "cosine_similarity")
}

func TestScoreRejects(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{"wrong method", fasthttp.MethodGet, "", fasthttp.StatusMethodNotAllowed},
		{"bad json", fasthttp.MethodPost, "{", fasthttp.StatusBadRequest},
		{"missing original", fasthttp.MethodPost, `{"generated":"x"}`, fasthttp.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := do(s, tt.method, "/score", tt.body)
			assert.Equal(t, tt.status, ctx.Response.StatusCode())
		})
	}
}

func TestScoreRejectsOversizedText(t *testing.T) {
	scorer, err := evaluation.NewScorer(evaluation.DefaultMetricsConfig(), logger.NewNop())
	require.NoError(t, err)
	cfg := DefaultConfig()
	cfg.MaxTextRunes = 10
	s := New(cfg, scorer, logger.NewNop())

	tests := []struct {
		name      string
		original  string
		generated string
		status    int
	}{
		{"within limit", "ééééé", "short text", fasthttp.StatusOK},
		{"long original", strings.Repeat("a", 11), "x", fasthttp.StatusRequestEntityTooLarge},
		{"long generated", "x", strings.Repeat("word ", 3), fasthttp.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := json.Marshal(ScoreRequest{Original: tt.original, Generated: tt.generated})
			require.NoError(t, err)
			ctx := do(s, fasthttp.MethodPost, "/score", string(body))
			assert.Equal(t, tt.status, ctx.Response.StatusCode())
		})
	}
}

func TestPrompt(t *testing.T) {
	s := newTestServer(t)

	ctx := do(s, fasthttp.MethodPost, "/prompt", `{"text":"one two three four","ratio":0.5,"direction":"compress"}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var resp PromptResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.Equal(t, 4, resp.OriginalLength)
	assert.Equal(t, 8, resp.TargetLength)
	assert.Contains(t, resp.Prompt, "200%")

	ctx = do(s, fasthttp.MethodPost, "/prompt", `{"text":"one","ratio":1.5,"direction":"expand"}`)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

	ctx = do(s, fasthttp.MethodPost, "/prompt", `{"text":"one","ratio":0.5,"direction":"sideways"}`)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
}

func TestNotFoundAndMetrics(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, fasthttp.StatusNotFound, do(s, fasthttp.MethodGet, "/nope", "").Response.StatusCode())
	assert.Equal(t, fasthttp.StatusNotFound, do(s, fasthttp.MethodGet, "/metrics", "").Response.StatusCode())

	scorer, err := evaluation.NewScorer(evaluation.DefaultMetricsConfig(), logger.NewNop())
	require.NoError(t, err)
	withMetrics := New(DefaultConfig(), scorer, logger.NewNop(), WithMetricsHandler(promhttp.Handler()))
	ctx := do(withMetrics, fasthttp.MethodGet, "/metrics", "")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
}

func TestNumberMarshalsInfinity(t *testing.T) {
	data, err := json.Marshal(Number(math.Inf(1)))
	require.NoError(t, err)
	assert.Equal(t, `"+Inf"`, string(data))

	data, err = json.Marshal(Number(0.5))
	require.NoError(t, err)
	assert.Equal(t, `0.5`, string(data))
}
