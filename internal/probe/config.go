package probe

import (
	"time"

	"github.com/okian/mvp/internal/domain/model"
)

// Config holds configuration for a probe run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Rounds      int           // Number of times the full check set runs
	Concurrency int           // Maximum in-flight requests per round
	Timeout     time.Duration // Per-request timeout
	Verbose     bool          // Log every passed check
}

// Record is the example shape returned by the service.
type Record = model.Record

// messageResponse is returned by / and /api/example.
type messageResponse struct {
	Message string `json:"message"`
}

// statusResponse is returned by /healthcheck.
type statusResponse struct {
	Status string `json:"status"`
}

// errorResponse is returned with every 4xx/5xx.
type errorResponse struct {
	Detail string `json:"detail"`
}

// Stats holds probe statistics.
type Stats struct {
	Rounds    int
	Checks    int // checks evaluated
	Requests  int // HTTP requests sent
	Passed    int
	Failed    int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
