package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrDuplicateID = errors.New("duplicate record id")
)
