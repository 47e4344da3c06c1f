// Package repository holds the data-access layer for example records.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/mvp/internal/domain/model"
	"github.com/okian/mvp/pkg/metrics"
)

const nanosecondsPerMillisecond = 1e6

// DefaultRecords returns the seed collection served by the API.
func DefaultRecords() []model.Record {
	return []model.Record{
		{ID: "1", Name: "Example 1", Description: "This is example 1"},
		{ID: "2", Name: "Example 2", Description: "This is example 2"},
		{ID: "3", Name: "Example 3", Description: "This is example 3"},
	}
}

// MemoryStore is an immutable, in-memory Store. The collection is fixed at
// construction, so concurrent reads need no locking.
type MemoryStore struct {
	records []model.Record
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore builds a store seeded with DefaultRecords unless WithRecords
// overrides the seed. Duplicate ids are rejected.
func NewMemoryStore(opts ...Option) (*MemoryStore, error) {
	s := &MemoryStore{records: DefaultRecords()}
	for _, opt := range opts {
		opt(s)
	}

	seen := make(map[string]struct{}, len(s.records))
	for _, r := range s.records {
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, r.ID)
		}
		seen[r.ID] = struct{}{}
	}

	metrics.UpdateRecordsTotal(len(s.records))
	return s, nil
}

// List returns a copy of all records in insertion order.
func (s *MemoryStore) List(_ context.Context) []model.Record {
	defer observe(time.Now())
	out := make([]model.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Get scans the collection and returns the first record with a matching id.
func (s *MemoryStore) Get(_ context.Context, id string) (model.Record, error) {
	defer observe(time.Now())
	for _, r := range s.records {
		if r.ID == id {
			return r, nil
		}
	}
	return model.Record{}, fmt.Errorf("Example with ID %s %w", id, ErrNotFound) //nolint:stylecheck // published detail text is capitalized
}

// Count returns the number of records.
func (s *MemoryStore) Count(_ context.Context) int {
	return len(s.records)
}

func observe(start time.Time) {
	metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Nanoseconds()) / nanosecondsPerMillisecond)
}
