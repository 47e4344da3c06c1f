// Package repository holds the data-access layer for example records.
package repository

import (
	"context"

	"github.com/okian/mvp/internal/domain/model"
)

// Store answers queries against the record collection.
type Store interface {
	// List returns all records in insertion order.
	List(ctx context.Context) []model.Record

	// Get returns the first record whose ID equals id.
	// Returns an error wrapping ErrNotFound if there is none.
	Get(ctx context.Context, id string) (model.Record, error)

	// Count returns the number of records.
	Count(ctx context.Context) int
}
