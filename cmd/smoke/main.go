// Command smoke posts generated patients to a running server and verifies
// that every answer is well formed and repeatable.
package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/heartrisk/internal/domain/risk"
	"github.com/okian/heartrisk/internal/smoke"
	"github.com/okian/heartrisk/pkg/logger"
)

// Default configuration constants.
const (
	defaultPatients = 500
	defaultTimeout  = 10 * time.Second
	runTimeout      = 5 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:5000", "Base URL of the service")
		patients = flag.Int("patients", defaultPatients, "Number of generated patients")
		workers  = flag.Int("workers", runtime.NumCPU(), "Number of concurrent workers")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed     = flag.Int64("seed", 1, "Seed for patient generation")
		high     = flag.Float64("high", risk.DefaultHighThreshold, "Expected High threshold")
		moderate = flag.Float64("moderate", risk.DefaultModerateThreshold, "Expected Moderate threshold")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	_, err := smoke.Run(ctx, &smoke.Config{
		BaseURL:           *baseURL,
		Patients:          *patients,
		Workers:           *workers,
		Timeout:           *timeout,
		Seed:              *seed,
		HighThreshold:     *high,
		ModerateThreshold: *moderate,
	})
	if err != nil {
		logger.Get().Error(ctx, "smoke run failed", logger.Error(err))
		cancel()
		os.Exit(1)
	}
}
