package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/mvp/internal/probe"
	"github.com/okian/mvp/pkg/logger"
	"github.com/spf13/cobra"
)

// defaultRunTimeout bounds a whole probe run.
const defaultRunTimeout = 2 * time.Minute

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &probe.Config{}
	var (
		logFormat  string
		logLevel   string
		runTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check a running MVP API against its contract",
		Long: `Call a running MVP API the way its frontend does and verify the answers:
the healthcheck is healthy, the example endpoint answers, the collection holds
three records, every listed id is fetchable and an unknown id yields 404.

Exits non-zero when any check fails.`,
		Example: `  probe --url http://localhost:8000
  probe --rounds 50 --concurrency 8 --log-format json`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithFormat(logFormat)); err != nil {
				return err
			}
			return logger.SetLevelString(logLevel)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, runTimeout)
			defer cancel()

			_, err := probe.Run(ctx, cfg)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", probe.DefaultBaseURL, "base URL of the service")
	f.IntVar(&cfg.Rounds, "rounds", probe.DefaultRounds, "number of check rounds")
	f.IntVar(&cfg.Concurrency, "concurrency", probe.DefaultConcurrency, "maximum in-flight requests per round")
	f.DurationVar(&cfg.Timeout, "timeout", probe.DefaultTimeout, "per-request timeout")
	f.DurationVar(&runTimeout, "run-timeout", defaultRunTimeout, "timeout for the whole run")
	f.BoolVar(&cfg.Verbose, "verbose", false, "log every passed check")
	f.StringVar(&logFormat, "log-format", "text", "log format: text or json")
	f.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	return cmd
}
