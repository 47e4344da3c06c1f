// Package repository holds the data-access layer for example records.
package repository

import "github.com/okian/mvp/internal/domain/model"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithRecords replaces the default seed. Records are copied.
func WithRecords(records ...model.Record) Option {
	return func(s *MemoryStore) {
		s.records = append([]model.Record(nil), records...)
	}
}
