package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/baditaflorin/go_length_eval/internal/adapters/httpserver"
	"github.com/baditaflorin/go_length_eval/internal/adapters/telemetry"
	"github.com/baditaflorin/go_length_eval/internal/core/evaluation"
	"github.com/baditaflorin/go_length_eval/internal/warmup"
)

var (
	serveAddr         string
	serveReadTimeout  time.Duration
	serveWriteTimeout time.Duration
	serveMaxRequest   int
	serveConcurrency  int
	serveMaxTextRunes int
	serveWarmUp       bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve metric scoring over HTTP",
	Long: `Starts a fasthttp server with /health, /score, /prompt and /metrics
endpoints. The server stops on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	flags := serveCmd.Flags()
	flags.StringVar(&serveAddr, "addr", httpserver.DefaultAddr, "listen address")
	flags.DurationVar(&serveReadTimeout, "read-timeout", httpserver.DefaultReadTimeout, "HTTP read timeout")
	flags.DurationVar(&serveWriteTimeout, "write-timeout", httpserver.DefaultWriteTimeout, "HTTP write timeout")
	flags.IntVar(&serveMaxRequest, "max-request-size", httpserver.DefaultMaxRequestSize, "maximum request size in bytes")
	flags.IntVar(&serveConcurrency, "concurrency", httpserver.DefaultConcurrency, "maximum concurrent requests (0 = default)")
	flags.IntVar(&serveMaxTextRunes, "max-text-runes", httpserver.DefaultMaxTextRunes, "maximum characters per text in /score (0 = unlimited)")
	flags.BoolVar(&serveWarmUp, "warm-up", true, "warm up the calculators on startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	scorer, err := evaluation.NewScorer(cfg.MetricsConfig(), log)
	if err != nil {
		return err
	}
	if serveWarmUp {
		wm := warmup.NewManager(log, warmup.DefaultWarmupConfig())
		wm.RegisterCalculator(scorer.Calculators()...)
		if err := wm.WarmUp(ctx); err != nil {
			return err
		}
	}

	recorder := telemetry.NewRecorder()
	srvCfg := httpserver.DefaultConfig()
	srvCfg.Addr = serveAddr
	srvCfg.ReadTimeout = serveReadTimeout
	srvCfg.WriteTimeout = serveWriteTimeout
	srvCfg.MaxRequestSize = serveMaxRequest
	srvCfg.Concurrency = serveConcurrency
	srvCfg.MaxTextRunes = serveMaxTextRunes

	srv := httpserver.New(srvCfg, scorer, log,
		httpserver.WithMetricsHandler(recorder.Handler()),
		httpserver.WithRecorder(recorder),
	)
	return srv.ListenAndServe(ctx)
}
