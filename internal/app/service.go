// Package service provides the business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	repository "github.com/okian/mvp/internal/adapters/repository"
	"github.com/okian/mvp/internal/domain/model"
	"github.com/okian/mvp/pkg/logger"
	"github.com/okian/mvp/pkg/metrics"
)

// Service is the placeholder business layer between the HTTP handlers and
// the data-access layer. It currently passes calls through and keeps
// lookup statistics.
type Service struct {
	store  repository.Store
	logger logger.Logger

	startedAt time.Time
	lookups   atomic.Int64
	notFound  atomic.Int64
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore replaces the default in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// New creates a Service. Without WithStore it is backed by a MemoryStore
// holding the default seed.
func New(opts ...Option) (*Service, error) {
	s := &Service{startedAt: time.Now()}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	if s.store == nil {
		store, err := repository.NewMemoryStore()
		if err != nil {
			return nil, fmt.Errorf("build record store: %w", err)
		}
		s.store = store
	}

	metrics.UpdateRecordsTotal(s.store.Count(context.Background()))
	return s, nil
}

// ListExamples returns all examples in their fixed order.
func (s *Service) ListExamples(ctx context.Context) ([]model.Record, error) {
	records := s.store.List(ctx)
	s.logger.Debug(ctx, "listed examples", logger.Int("count", len(records)))
	return records, nil
}

// GetExample returns the example with the given id. The error wraps
// repository.ErrNotFound when no such example exists.
func (s *Service) GetExample(ctx context.Context, id string) (model.Record, error) {
	s.lookups.Add(1)

	record, err := s.store.Get(ctx, id)
	switch {
	case err == nil:
		metrics.RecordExampleLookup(metrics.LookupFound)
		return record, nil
	case errors.Is(err, repository.ErrNotFound):
		s.notFound.Add(1)
		metrics.RecordExampleLookup(metrics.LookupNotFound)
		s.logger.Debug(ctx, "example not found", logger.String("id", id))
		return model.Record{}, err
	default:
		metrics.RecordExampleLookup(metrics.LookupError)
		return model.Record{}, fmt.Errorf("get example %q: %w", id, err)
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"records":       s.store.Count(context.Background()),
		"lookups":       s.lookups.Load(),
		"notFound":      s.notFound.Load(),
		"startedAt":     s.startedAt.UTC().Format(time.RFC3339),
		"uptimeSeconds": int64(time.Since(s.startedAt).Seconds()),
	}
}
