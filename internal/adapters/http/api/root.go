// Package api declares HTTP contracts and route registration helpers.
package api

import "net/http"

// Static payloads.
const (
	WelcomeMessage = "Welcome to the MVP API"
	ExampleMessage = "This is an example endpoint"
	StatusHealthy  = "healthy"
)

// RootHandler serves the static endpoints. None of them touch the data layer.
type RootHandler struct{}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

// HandleRoot handles GET / requests.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: WelcomeMessage})
}

// HandleHealthcheck handles GET /healthcheck requests.
func (h *RootHandler) HandleHealthcheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: StatusHealthy})
}

// HandleExample handles GET /api/example requests.
func (h *RootHandler) HandleExample(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: ExampleMessage})
}
