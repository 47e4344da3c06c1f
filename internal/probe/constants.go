package probe

import "time"

// Defaults applied to zero Config fields.
const (
	DefaultBaseURL     = "http://localhost:8000"
	DefaultRounds      = 1
	DefaultConcurrency = 4
	DefaultTimeout     = 5 * time.Second
)

// UnknownID is an id the service never seeds.
const UnknownID = "999"

// HealthyStatus is the status reported by a live service.
const HealthyStatus = "healthy"

// ExpectedRecords is the size of the seeded collection.
const ExpectedRecords = 3
