// Package httpserver exposes metric scoring and prompt rendering over HTTP.
package httpserver

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/baditaflorin/go_length_eval/internal/core/domain"
	"github.com/baditaflorin/go_length_eval/internal/core/evaluation"
	"github.com/baditaflorin/go_length_eval/internal/core/prompt"
	"github.com/baditaflorin/go_length_eval/internal/ports"
)

// Default configuration
const (
	DefaultAddr           = ":8080"
	DefaultReadTimeout    = 30 * time.Second
	DefaultWriteTimeout   = 30 * time.Second
	DefaultMaxRequestSize = 10 * 1024 * 1024 // 10MB
	DefaultConcurrency    = 0                // 0 means fasthttp's default
	DefaultScoreTimeout   = 30 * time.Second
	// Edit distance is quadratic in text length and ignores the context.
	DefaultMaxTextRunes   = 20000
)

// Config tunes the fasthttp server.
type Config struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestSize int
	Concurrency    int
	ScoreTimeout   time.Duration
	// MaxTextRunes bounds each text of a /score request. 0 disables the check.
	MaxTextRunes   int
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Addr:           DefaultAddr,
		ReadTimeout:    DefaultReadTimeout,
		WriteTimeout:   DefaultWriteTimeout,
		MaxRequestSize: DefaultMaxRequestSize,
		Concurrency:    DefaultConcurrency,
		ScoreTimeout:   DefaultScoreTimeout,
		MaxTextRunes:   DefaultMaxTextRunes,
	}
}

// ScoreRequest asks for the five metrics of generated against original.
type ScoreRequest struct {
	Original  string `json:"original"`
	Generated string `json:"generated"`
}

// ScoreResponse carries the five metric values.
type ScoreResponse struct {
	LevenshteinSimilarity Number   `json:"levenshtein_similarity"`
	JaccardSimilarity     Number   `json:"jaccard_similarity"`
	CosineSimilarity      Number   `json:"cosine_similarity"`
	KLDivergence          Number   `json:"kl_divergence"`
	EuclideanDistance     Number   `json:"euclidean_distance"`
	Degenerate            []string `json:"degenerate,omitempty"`
	ProcessingTime        string   `json:"processing_time"`
}

// PromptRequest asks for the prompt of one trial.
type PromptRequest struct {
	Text      string  `json:"text"`
	Ratio     float64 `json:"ratio"`
	Direction string  `json:"direction"`
}

// PromptResponse carries the target word count and the rendered prompt.
type PromptResponse struct {
	OriginalLength int    `json:"original_length"`
	TargetLength   int    `json:"target_length"`
	Prompt         string `json:"prompt"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Number is a float64 that encodes infinities and NaN as JSON strings.
type Number float64

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return []byte(strconv.Quote(strconv.FormatFloat(f, 'f', -1, 64))), nil
	}
	return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
}

// Server routes requests to the scorer and the prompt builder.
type Server struct {
	config   Config
	scorer   *evaluation.Scorer
	logger   ports.Logger
	metrics  fasthttp.RequestHandler
	recorder ports.RunRecorder
}

// Option configures a Server.
type Option func(*Server)

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = fasthttpadaptor.NewFastHTTPHandler(h) }
}

// WithRecorder reports degenerate metric computations of /score requests.
func WithRecorder(recorder ports.RunRecorder) Option {
	return func(s *Server) { s.recorder = recorder }
}

// New creates a server. Without WithMetricsHandler, /metrics is not served.
func New(config Config, scorer *evaluation.Scorer, logger ports.Logger, opts ...Option) *Server {
	s := &Server{config: config, scorer: scorer, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	server := &fasthttp.Server{
		Handler:               s.Handler,
		Name:                  "lengtheval",
		ReadTimeout:           s.config.ReadTimeout,
		WriteTimeout:          s.config.WriteTimeout,
		MaxRequestBodySize:    s.config.MaxRequestSize,
		Concurrency:           s.config.Concurrency,
		TCPKeepalive:          true,
		TCPKeepalivePeriod:    3 * time.Minute,
		MaxIdleWorkerDuration: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "address", s.config.Addr)
		errCh <- server.ListenAndServe(s.config.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down server...")
		if err := server.Shutdown(); err != nil {
			s.logger.Error("Error during server shutdown", "error", err)
			return err
		}
		s.logger.Info("Server stopped")
		return nil
	}
}

// Handler is the fasthttp request handler.
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	switch string(ctx.Path()) {
	case "/health":
		s.handleHealthCheck(ctx)
	case "/score":
		s.handleScore(ctx)
	case "/prompt":
		s.handlePrompt(ctx)
	case "/metrics":
		if s.metrics == nil {
			ctx.SetStatusCode(fasthttp.StatusNotFound)
			s.writeJSONError(ctx, "Not found")
			break
		}
		s.metrics(ctx)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		s.writeJSONError(ctx, "Not found")
	}

	s.logger.Info("Request processed",
		"method", string(ctx.Method()),
		"path", string(ctx.Path()),
		"status", ctx.Response.StatusCode(),
		"ip", ctx.RemoteIP().String(),
		"duration", time.Since(startTime),
	)
}

func (s *Server) handleHealthCheck(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusOK)
	s.writeJSONResponse(ctx, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleScore(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		s.writeJSONError(ctx, "Method not allowed")
		return
	}

	var req ScoreRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		s.writeJSONError(ctx, "Invalid request: "+err.Error())
		return
	}
	if req.Original == "" {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		s.writeJSONError(ctx, "The original text is required")
		return
	}
	if limit := s.config.MaxTextRunes; limit > 0 &&
		(utf8.RuneCountInString(req.Original) > limit || utf8.RuneCountInString(req.Generated) > limit) {
		ctx.SetStatusCode(fasthttp.StatusRequestEntityTooLarge)
		s.writeJSONError(ctx, "Texts are limited to "+strconv.Itoa(limit)+" characters")
		return
	}

	c, cancel := context.WithTimeout(context.Background(), s.config.ScoreTimeout)
	defer cancel()

	start := time.Now()
	scores := s.scorer.Score(c, req.Original, req.Generated)

	resp := ScoreResponse{
		LevenshteinSimilarity: Number(scores.LevenshteinSimilarity),
		JaccardSimilarity:     Number(scores.JaccardSimilarity),
		CosineSimilarity:      Number(scores.CosineSimilarity),
		KLDivergence:          Number(scores.KLDivergence),
		EuclideanDistance:     Number(scores.EuclideanDistance),
		ProcessingTime:        time.Since(start).String(),
	}
	for _, r := range scores.Results {
		if r.Degenerate() {
			resp.Degenerate = append(resp.Degenerate, r.Name)
			if s.recorder != nil {
				s.recorder.ObserveDegenerate(r.Name)
			}
		}
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	s.writeJSONResponse(ctx, resp)
}

func (s *Server) handlePrompt(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		s.writeJSONError(ctx, "Method not allowed")
		return
	}

	var req PromptRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		s.writeJSONError(ctx, "Invalid request: "+err.Error())
		return
	}
	dir, err := domain.ParseDirection(req.Direction)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		s.writeJSONError(ctx, err.Error())
		return
	}
	if !(req.Ratio > 0 && req.Ratio <= 1) {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		s.writeJSONError(ctx, "ratio must be in (0, 1]")
		return
	}

	target, p := prompt.Build(req.Text, req.Ratio, dir)
	ctx.SetStatusCode(fasthttp.StatusOK)
	s.writeJSONResponse(ctx, PromptResponse{
		OriginalLength: prompt.WordCount(req.Text),
		TargetLength:   target,
		Prompt:         p,
	})
}

func (s *Server) writeJSONResponse(ctx *fasthttp.RequestCtx, data interface{}) {
	response, err := json.Marshal(data)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		s.logger.Error("Error marshaling JSON response", "error", err)
		s.writeJSONError(ctx, "Internal server error")
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(response)
}

func (s *Server) writeJSONError(ctx *fasthttp.RequestCtx, message string) {
	response, err := json.Marshal(ErrorResponse{Error: message})
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		s.logger.Error("Error marshaling JSON error response", "error", err)
		ctx.SetBodyString(`{"error":"Internal server error"}`)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(response)
}
