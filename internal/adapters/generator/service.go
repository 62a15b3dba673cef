// Package generator adapts pretrained causal language models to ports.Generator.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/baditaflorin/go_length_eval/internal/adapters/tokenizer"
	"github.com/baditaflorin/go_length_eval/internal/ports"
)

// EchoPolicy decides whether generated text returned to callers includes the prompt.
type EchoPolicy string

const (
	// EchoStrip returns the continuation only. A prompt echoed by the provider is removed.
	EchoStrip EchoPolicy = "strip"
	// EchoInclude returns prompt + continuation, bounded together by maxLength.
	EchoInclude EchoPolicy = "include"
)

// ErrClosed is returned by Generate after Close.
var ErrClosed = errors.New("generator: service is closed")

// Config describes the model to load.
type Config struct {
	Provider    string
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float64
	// Encoding names the vocabulary encoder that measures maxLength.
	Encoding   string
	EchoPolicy EchoPolicy
	// Timeout bounds each Generate call. Zero means no limit.
	Timeout time.Duration
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Provider:    ProviderOpenAI,
		Model:       "mistralai/Mistral-7B-Instruct-v0.2",
		Temperature: 0.7,
		Encoding:    tokenizer.DefaultEncoding,
		EchoPolicy:  EchoStrip,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	known := false
	for _, p := range Providers {
		if c.Provider == p {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("unsupported provider %q (want one of %s)", c.Provider, strings.Join(Providers, ", "))
	}
	if c.Provider != ProviderEcho && c.Model == "" {
		return errors.New("model name is required")
	}
	if c.EchoPolicy != EchoStrip && c.EchoPolicy != EchoInclude {
		return fmt.Errorf("unknown echo policy %q (want strip or include)", c.EchoPolicy)
	}
	if c.Temperature < 0 {
		return errors.New("temperature must be >= 0")
	}
	if c.Timeout < 0 {
		return errors.New("timeout must be >= 0")
	}
	return nil
}

// Service is an exclusively owned, loaded model together with its vocabulary encoder.
type Service struct {
	mu        sync.Mutex
	cfg       Config
	model     llms.Model
	tokenizer ports.Tokenizer
	logger    ports.Logger
	closed    bool
}

var _ ports.Generator = (*Service)(nil)

// New loads the configured model and encoder.
func New(cfg Config, logger ports.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tok, err := tokenizer.New(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	model, err := CreateModel(cfg)
	if err != nil {
		return nil, fmt.Errorf("loading model %q: %w", cfg.Model, err)
	}
	logger.Info("Generation model loaded",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"encoding", tok.Encoding(),
		"echo_policy", cfg.EchoPolicy,
	)
	return NewWithModel(model, tok, cfg, logger), nil
}

// NewWithModel wraps an already constructed model and encoder.
func NewWithModel(model llms.Model, tok ports.Tokenizer, cfg Config, logger ports.Logger) *Service {
	if cfg.EchoPolicy == "" {
		cfg.EchoPolicy = EchoStrip
	}
	return &Service{cfg: cfg, model: model, tokenizer: tok, logger: logger}
}

// Name returns the configured model name, or the provider for the echo model.
func (s *Service) Name() string {
	if s.cfg.Model == "" {
		return s.cfg.Provider
	}
	return s.cfg.Model
}

// Generate returns the generated text for prompt, at most maxLength encoder units long.
func (s *Service) Generate(ctx context.Context, prompt string, maxLength int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrClosed
	}
	if maxLength <= 0 {
		s.logger.Warn("Non-positive generation budget, returning empty text", "max_length", maxLength)
		return "", nil
	}

	budget := maxLength
	if s.cfg.EchoPolicy == EchoInclude {
		budget -= s.tokenizer.Count(prompt)
		if budget <= 0 {
			s.logger.Debug("Prompt exhausts the length budget", "max_length", maxLength)
			return s.tokenizer.Truncate(prompt, maxLength), nil
		}
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	opts := []llms.CallOption{
		llms.WithMaxTokens(budget),
		llms.WithTemperature(s.cfg.Temperature),
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, s.model, prompt, opts...)
	if err != nil {
		return "", fmt.Errorf("generating with %s: %w", s.Name(), err)
	}

	completion := strings.TrimPrefix(out, prompt)
	text := completion
	if s.cfg.EchoPolicy == EchoInclude {
		text = prompt + completion
	}
	return s.tokenizer.Truncate(text, maxLength), nil
}

// Close releases the model. It is safe to call more than once.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.model = nil
	s.logger.Info("Generation model released", "model", s.Name())
	return nil
}
