// Package config loads the TOML configuration of an evaluation run.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/baditaflorin/go_length_eval/internal/adapters/generator"
	"github.com/baditaflorin/go_length_eval/internal/adapters/tokenizer"
	"github.com/baditaflorin/go_length_eval/internal/core/cosine"
	"github.com/baditaflorin/go_length_eval/internal/core/divergence"
	"github.com/baditaflorin/go_length_eval/internal/core/domain"
	"github.com/baditaflorin/go_length_eval/internal/core/evaluation"
	"github.com/baditaflorin/go_length_eval/internal/core/jaccard"
	"github.com/baditaflorin/go_length_eval/internal/core/length"
	"github.com/baditaflorin/go_length_eval/internal/core/levenshtein"
)

// Default file locations.
const (
	DefaultInput  = "metadata.csv"
	DefaultOutput = "results.csv"
)

// Config is the root of the TOML file.
type Config struct {
	Input      InputConfig      `toml:"input"`
	Output     OutputConfig     `toml:"output"`
	Model      ModelConfig      `toml:"model"`
	Evaluation EvaluationConfig `toml:"evaluation"`
	Metrics    MetricsConfig    `toml:"metrics"`
	Logging    LoggingConfig    `toml:"logging"`
	Telemetry  TelemetryConfig  `toml:"telemetry"`
}

// InputConfig locates the metadata table.
type InputConfig struct {
	Path string `toml:"path"`
}

// OutputConfig locates the report and the optional result database.
type OutputConfig struct {
	CSV        string `toml:"csv"`
	SQLitePath string `toml:"sqlite_path"`
}

// ModelConfig selects the generation model.
type ModelConfig struct {
	Provider    string   `toml:"provider"`
	Model       string   `toml:"model"`
	BaseURL     string   `toml:"base_url"`
	APIKey      string   `toml:"api_key"`
	Temperature float64  `toml:"temperature"`
	Encoding    string   `toml:"encoding"`
	EchoPolicy  string   `toml:"echo_policy"`
	Timeout     Duration `toml:"timeout"`
}

// EvaluationConfig describes the trial plan.
type EvaluationConfig struct {
	Ratios     []float64 `toml:"ratios"`
	Directions []string  `toml:"directions"`
	ModelLabel string    `toml:"model_label"`
}

// MetricsConfig holds the degenerate-input sentinels, smoothing and the
// length adherence scale.
type MetricsConfig struct {
	EmptyScore         float64 `toml:"empty_score"`
	EmptyDivergence    float64 `toml:"empty_divergence"`
	Smoothing          float64 `toml:"smoothing"`
	LengthThreshold    float64 `toml:"length_threshold"`
	LengthMaxDiffRatio float64 `toml:"length_max_diff_ratio"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	JSON    bool   `toml:"json"`
	File    string `toml:"file"`
	Verbose bool   `toml:"verbose"`
}

// TelemetryConfig configures metric export.
type TelemetryConfig struct {
	TextfilePath string `toml:"textfile_path"`
}

// Duration is a time.Duration written as a string such as "90s".
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText renders the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	gen := generator.DefaultConfig()
	adherence := length.DefaultConfig()
	directions := make([]string, len(evaluation.DefaultDirections))
	for i, d := range evaluation.DefaultDirections {
		directions[i] = d.String()
	}
	return Config{
		Input:  InputConfig{Path: DefaultInput},
		Output: OutputConfig{CSV: DefaultOutput},
		Model: ModelConfig{
			Provider:    gen.Provider,
			Model:       gen.Model,
			Temperature: gen.Temperature,
			Encoding:    gen.Encoding,
			EchoPolicy:  string(gen.EchoPolicy),
		},
		Evaluation: EvaluationConfig{
			Ratios:     append([]float64(nil), evaluation.DefaultRatios...),
			Directions: directions,
			ModelLabel: evaluation.DefaultModelLabel,
		},
		Metrics: MetricsConfig{
			EmptyScore:         0,
			EmptyDivergence:    0,
			Smoothing:          divergence.DefaultSmoothing,
			LengthThreshold:    adherence.Threshold,
			LengthMaxDiffRatio: adherence.MaxDiffRatio,
		},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if c.Input.Path == "" {
		return errors.New("input path is required")
	}
	if c.Output.CSV == "" {
		return errors.New("output csv path is required")
	}
	if err := c.Generator().Validate(); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if _, err := c.Plan(); err != nil {
		return fmt.Errorf("evaluation: %w", err)
	}
	if c.Evaluation.ModelLabel == "" {
		return errors.New("evaluation: model label is required")
	}
	m := c.MetricsConfig()
	for _, v := range []interface{ Validate() error }{m.Levenshtein, m.Jaccard, m.Cosine, m.Divergence, m.Length} {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}
	return nil
}

// Generator converts the model section.
func (c Config) Generator() generator.Config {
	encoding := c.Model.Encoding
	if encoding == "" {
		encoding = tokenizer.DefaultEncoding
	}
	apiKey := c.Model.APIKey
	if apiKey == "" && c.Model.Provider == generator.ProviderOpenAI {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	return generator.Config{
		Provider:    c.Model.Provider,
		Model:       c.Model.Model,
		BaseURL:     c.Model.BaseURL,
		APIKey:      apiKey,
		Temperature: c.Model.Temperature,
		Encoding:    encoding,
		EchoPolicy:  generator.EchoPolicy(c.Model.EchoPolicy),
		Timeout:     time.Duration(c.Model.Timeout),
	}
}

// Plan converts the evaluation section.
func (c Config) Plan() (evaluation.Plan, error) {
	dirs := make([]domain.Direction, 0, len(c.Evaluation.Directions))
	for _, s := range c.Evaluation.Directions {
		d, err := domain.ParseDirection(s)
		if err != nil {
			return evaluation.Plan{}, err
		}
		dirs = append(dirs, d)
	}
	return evaluation.NewPlan(c.Evaluation.Ratios, dirs)
}

// MetricsConfig converts the metrics section.
func (c Config) MetricsConfig() evaluation.MetricsConfig {
	m := evaluation.DefaultMetricsConfig()
	m.Levenshtein = levenshtein.SimilarityConfig{EmptyScore: c.Metrics.EmptyScore}
	m.Jaccard = jaccard.SimilarityConfig{EmptyScore: c.Metrics.EmptyScore}
	m.Cosine = cosine.SimilarityConfig{EmptyScore: c.Metrics.EmptyScore, MinTermRunes: m.Cosine.MinTermRunes}
	m.Divergence = divergence.SimilarityConfig{Smoothing: c.Metrics.Smoothing, EmptyScore: c.Metrics.EmptyDivergence}
	m.Length = length.SimilarityConfig{Threshold: c.Metrics.LengthThreshold, MaxDiffRatio: c.Metrics.LengthMaxDiffRatio}
	return m
}
