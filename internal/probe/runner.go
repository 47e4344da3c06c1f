// Package probe exercises a running MVP API the way its frontend does and
// verifies every response against the published contract.
package probe

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/okian/mvp/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// runner carries the state shared by one probe run.
type runner struct {
	cfg    Config
	client *HTTPClient
	log    logger.Logger
	passed atomic.Int64
	failed atomic.Int64
}

// Run checks the service at cfg.BaseURL. The health check runs first and
// aborts the run on failure; then each round lists the collection and checks
// every listed id, the message endpoints and an unknown id concurrently.
// Stats are returned even when a check fails.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	c, err := normalize(cfg)
	if err != nil {
		return nil, err
	}

	r := &runner{
		cfg:    c,
		client: newHTTPClient(c.BaseURL, c.Timeout),
		log:    logger.Named("probe"),
	}
	stats := &Stats{StartTime: time.Now()}

	r.log.Info(ctx, "starting probe",
		logger.String("baseURL", c.BaseURL),
		logger.Int("rounds", c.Rounds),
		logger.Int("concurrency", c.Concurrency),
		logger.Duration("timeout", c.Timeout),
	)

	err = r.check(ctx, "healthcheck", checkHealth(ctx, r.client))
	if err != nil {
		err = fmt.Errorf("service health check failed: %w", err)
	}
	for round := 1; err == nil && round <= c.Rounds; round++ {
		if err = r.round(ctx); err != nil {
			err = fmt.Errorf("round %d: %w", round, err)
			break
		}
		stats.Rounds++
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	stats.Passed = int(r.passed.Load())
	stats.Failed = int(r.failed.Load())
	stats.Checks = stats.Passed + stats.Failed
	stats.Requests = r.client.Sent()

	r.displayFinalStats(ctx, stats)
	if err != nil {
		r.log.Error(ctx, "probe failed", logger.Error(err))
		return stats, err
	}
	r.log.Info(ctx, "probe completed successfully")
	return stats, nil
}

// round runs one full set of checks.
func (r *runner) round(ctx context.Context) error {
	records, err := listRecords(ctx, r.client)
	if err := r.check(ctx, "list", err); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)

	for _, path := range []string{"/", "/api/example"} {
		g.Go(func() error {
			return r.check(gctx, "message "+path, checkMessage(gctx, r.client, path))
		})
	}
	for _, rec := range records {
		g.Go(func() error {
			return r.check(gctx, "get "+rec.ID, checkRecord(gctx, r.client, rec))
		})
	}
	g.Go(func() error {
		return r.check(gctx, "not found", checkNotFound(gctx, r.client, UnknownID))
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("check failed: %w", err)
	}
	return nil
}

// check counts one result and logs it.
func (r *runner) check(ctx context.Context, name string, err error) error {
	if err != nil {
		r.failed.Add(1)
		r.log.Warn(ctx, "check failed", logger.String("check", name), logger.Error(err))
		return err
	}
	r.passed.Add(1)
	if r.cfg.Verbose {
		r.log.Info(ctx, "check passed", logger.String("check", name))
	} else {
		r.log.Debug(ctx, "check passed", logger.String("check", name))
	}
	return nil
}

// displayFinalStats logs the final probe statistics.
func (r *runner) displayFinalStats(ctx context.Context, stats *Stats) {
	var requestsPerSecond float64
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.Requests) / stats.Duration.Seconds()
	}

	r.log.Info(ctx, "final statistics",
		logger.Int("rounds", stats.Rounds),
		logger.Int("checks", stats.Checks),
		logger.Int("requests", stats.Requests),
		logger.Int("passed", stats.Passed),
		logger.Int("failed", stats.Failed),
		logger.Duration("duration", stats.Duration),
		logger.Float64("requestsPerSecond", requestsPerSecond),
	)
}

// normalize fills defaults and rejects unusable values.
func normalize(cfg *Config) (Config, error) {
	var c Config
	if cfg != nil {
		c = *cfg
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Rounds == 0 {
		c.Rounds = DefaultRounds
	}
	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Rounds < 0 || c.Concurrency < 0 || c.Timeout < 0 {
		return Config{}, fmt.Errorf("%w: negative values are not allowed", ErrInvalidConfig)
	}
	return c, nil
}
