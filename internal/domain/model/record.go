// Package model contains domain models passed between layers.
package model

// Record is the single entity served by the API: an id/name/description triple.
type Record struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
