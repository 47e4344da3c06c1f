package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/mvp/internal/adapters/http/api"
	"github.com/okian/mvp/internal/adapters/http/swagger"
	app "github.com/okian/mvp/internal/app"
	"github.com/okian/mvp/internal/config"
	"github.com/okian/mvp/pkg/logger"
	"github.com/okian/mvp/pkg/metrics"
	"github.com/okian/mvp/pkg/tracing"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Use stderr since the logger may not be available yet
		os.Stderr.WriteString("mvp: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mvp",
		Short: "Serve the MVP example API",
		Long: `Serve the MVP example API over HTTP.

Settings come from defaults, an optional YAML file, an optional dotenv file,
the environment (backend_port, frontend_port, ... in any case) and flags,
in increasing order of precedence.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Root context with cancel on SIGINT/SIGTERM.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cmd.Flags())
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, flags *pflag.FlagSet) error {
	// Load configuration (defaults -> file -> dotenv -> env -> flags)
	cfg, err := config.Load(ctx, config.WithFlags(flags))
	if err != nil {
		return err
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	// Validate already accepted the level; this only applies it.
	_ = logger.SetLevelString(cfg.LogLevel)
	log := logger.Get()

	if err := configureMetrics(cfg); err != nil {
		return err
	}

	tp, err := tracing.Init(ctx,
		tracing.WithExporter(cfg.TracingExporter),
		tracing.WithSampleRatio(cfg.TracingSampleRatio),
		tracing.WithService("mvp-api", cfg.APIVersion),
	)
	if err != nil {
		return fmt.Errorf("initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error(ctx, "tracer shutdown failed", logger.Error(err))
		}
	}()

	svc, err := app.New(app.WithLogger(logger.Named("service")))
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	srv := newHTTPServer(cfg.Addr(), newHandler(ctx, cfg, svc, api.WithTracerProvider(tp)))

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr()),
			logger.Int("backend_port", cfg.BackendPort),
			logger.Int("frontend_port", cfg.FrontendPort),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
		close(errCh)
	}()

	// Wait for shutdown signal or a listener failure
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newHandler mounts the docs and API routes on one mux and wraps it with the
// API middleware chain so CORS and request ids cover every route.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service, opts ...api.Option) http.Handler {
	mux := http.NewServeMux()

	swagger.Register(ctx, mux,
		swagger.WithDocsPath(cfg.DocsURL),
		swagger.WithRedocPath(cfg.RedocURL),
		swagger.WithOpenAPIPath(cfg.OpenAPIURL),
		swagger.WithInfo(swagger.Info{
			Title:       cfg.APITitle,
			Description: cfg.APIDescription,
			Version:     cfg.APIVersion,
		}),
	)

	apiServer := api.NewServer(svc, svc, append([]api.Option{
		api.WithLogger(logger.Named("api")),
		api.WithMetricsPath(cfg.MetricsPath),
		api.WithCORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials),
	}, opts...)...)
	apiServer.Register(ctx, mux)

	return apiServer.Wrap(mux)
}

// configureMetrics rebuilds the global metrics manager from cfg. It runs
// before the service is created so the records gauge lands on the new
// registry.
func configureMetrics(cfg *config.Config) error {
	labels, err := cfg.MetricLabels()
	if err != nil {
		return err
	}
	metrics.Configure(
		metrics.WithMetricsEnabled(cfg.MetricsEnabled),
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithMetricPrefix(cfg.MetricsPrefix),
		metrics.WithHistogramBuckets(cfg.MetricsBuckets),
		metrics.WithCustomLabels(labels),
	)
	return nil
}

func newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		// Average pause across all collections so far
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
