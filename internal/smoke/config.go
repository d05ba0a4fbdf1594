// Package smoke drives a running heartrisk server with generated patients
// and checks every answer for internal consistency.
package smoke

import (
	"errors"
	"time"
)

// Sentinel error kinds for smoke runs.
var (
	ErrUnhealthy    = errors.New("service unhealthy")
	ErrVerification = errors.New("verification failed")
)

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL           string        // Base URL of the service
	Patients          int           // Number of generated patients
	Workers           int           // Number of concurrent workers
	Timeout           time.Duration // HTTP request timeout
	Seed              int64         // Seed for patient generation
	HighThreshold     float64       // Expected High bucket bound
	ModerateThreshold float64       // Expected Moderate bucket bound
}

// Prediction mirrors the predict response body.
type Prediction struct {
	Category    string   `json:"risk_category"`
	Probability float64  `json:"probability"`
	Tips        []string `json:"tips"`
}

// Stats holds run statistics.
type Stats struct {
	Requests     int
	Succeeded    int
	Failed       int
	Inconsistent int
	ByCategory   map[string]int
	Duration     time.Duration
}
