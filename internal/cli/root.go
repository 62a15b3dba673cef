// Package cli implements the lengtheval command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/baditaflorin/go_length_eval/internal/adapters/logger"
	"github.com/baditaflorin/go_length_eval/internal/config"
	"github.com/baditaflorin/go_length_eval/internal/ports"
)

// version is set at build time with -ldflags "-X .../internal/cli.version=...".
var version = "dev"

var (
	configPath string
	inputPath  string
	outputPath string
	provider   string
	modelName  string
	logJSON    bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "lengtheval",
	Short: "Benchmark length-controlled text generation",
	Long: `lengtheval asks a generation model to expand or compress documents to a
target length and scores every output against its source with edit,
token-set, TF-IDF cosine, KL divergence and Euclidean metrics.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "TOML configuration file")
	flags.StringVarP(&inputPath, "input", "i", "", "metadata CSV with file_name and original-text columns")
	flags.StringVarP(&outputPath, "output", "o", "", "results CSV (overwritten)")
	flags.StringVar(&provider, "provider", "", "generation provider: openai, ollama or echo")
	flags.StringVar(&modelName, "model", "", "generation model name")
	flags.BoolVar(&logJSON, "log-json", false, "write logs as JSON")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadConfig reads the configuration file, if any, and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Input.Path = inputPath
	}
	if flags.Changed("output") {
		cfg.Output.CSV = outputPath
	}
	if flags.Changed("provider") {
		cfg.Model.Provider = provider
	}
	if flags.Changed("model") {
		cfg.Model.Model = modelName
	}
	if flags.Changed("log-json") {
		cfg.Logging.JSON = logJSON
	}
	if flags.Changed("verbose") {
		cfg.Logging.Verbose = verbose
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger writes to the command's error stream unless a log file is configured.
func newLogger(cmd *cobra.Command, cfg config.Config) (ports.Logger, error) {
	return logger.New(logger.Options{
		Output:     cmd.ErrOrStderr(),
		File:       cfg.Logging.File,
		JSONFormat: cfg.Logging.JSON,
		Verbose:    cfg.Logging.Verbose,
	})
}
