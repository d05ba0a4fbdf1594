package smoke

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/okian/heartrisk/pkg/logger"
)

// outcome is one patient's result.
type outcome struct {
	category     string
	failed       bool
	inconsistent bool
}

// Run checks health, rejects a malformed body, then predicts every
// generated patient twice and verifies both answers.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Named("smoke")
	start := time.Now()
	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting smoke run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("patients", cfg.Patients),
		logger.Int("workers", cfg.Workers),
	)

	if err := checkHealth(ctx, client); err != nil {
		return nil, err
	}
	if err := checkRejects(ctx, client); err != nil {
		return nil, err
	}

	patients := generatePatients(cfg.Patients, cfg.Seed)
	results := make([]outcome, len(patients))

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = predictTwice(ctx, cfg, client, patients[i], log)
			}
		}()
	}

dispatch:
	for i := range patients {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("smoke run cancelled: %w", err)
	}

	stats := &Stats{ByCategory: make(map[string]int)}
	for _, r := range results {
		stats.Requests += 2
		switch {
		case r.failed:
			stats.Failed++
		case r.inconsistent:
			stats.Inconsistent++
		default:
			stats.Succeeded++
			stats.ByCategory[r.category]++
		}
	}
	stats.Duration = time.Since(start)

	log.Info(ctx, "smoke run finished",
		logger.Int("succeeded", stats.Succeeded),
		logger.Int("failed", stats.Failed),
		logger.Int("inconsistent", stats.Inconsistent),
		logger.Any("byCategory", stats.ByCategory),
		logger.String("duration", stats.Duration.String()),
	)

	if stats.Failed > 0 || stats.Inconsistent > 0 {
		return stats, fmt.Errorf("%w: %d failed, %d inconsistent", ErrVerification, stats.Failed, stats.Inconsistent)
	}
	return stats, nil
}

func predictTwice(ctx context.Context, cfg *Config, client *httpClient, body map[string]float64, log logger.Logger) outcome {
	first, err := predict(ctx, client, body)
	if err == nil {
		err = verifyPrediction(cfg, first)
	}
	if err != nil {
		log.Warn(ctx, "prediction failed", logger.Error(err), logger.Any("patient", body))
		return outcome{failed: true}
	}

	second, err := predict(ctx, client, body)
	if err != nil {
		log.Warn(ctx, "repeat prediction failed", logger.Error(err))
		return outcome{failed: true}
	}
	if !samePrediction(first, second) {
		log.Warn(ctx, "repeat prediction differs", logger.Any("first", first), logger.Any("second", second))
		return outcome{inconsistent: true}
	}
	return outcome{category: first.Category}
}

func predict(ctx context.Context, client *httpClient, body any) (Prediction, error) {
	status, data, err := client.post(ctx, "/api/predict", body)
	if err != nil {
		return Prediction{}, err
	}
	if status != http.StatusOK {
		return Prediction{}, fmt.Errorf("status %d: %s", status, data)
	}
	var p Prediction
	if err := json.Unmarshal(data, &p); err != nil {
		return Prediction{}, fmt.Errorf("decode prediction: %w", err)
	}
	return p, nil
}

// checkHealth verifies the service is up with a model loaded.
func checkHealth(ctx context.Context, client *httpClient) error {
	status, data, err := client.get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnhealthy, err)
	}
	var health struct {
		Status string `json:"status"`
		Model  string `json:"model"`
	}
	if status != http.StatusOK || json.Unmarshal(data, &health) != nil || health.Status != "ok" {
		return fmt.Errorf("%w: status %d: %s", ErrUnhealthy, status, data)
	}
	logger.Named("smoke").Info(ctx, "service is healthy", logger.String("model", health.Model))
	return nil
}

// checkRejects expects 400 with an error message for an incomplete body.
func checkRejects(ctx context.Context, client *httpClient) error {
	status, data, err := client.post(ctx, "/api/predict", []byte(`{"age":63}`))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerification, err)
	}
	var body struct {
		Error string `json:"error"`
	}
	if status != http.StatusBadRequest || json.Unmarshal(data, &body) != nil || body.Error == "" {
		return fmt.Errorf("%w: incomplete body got status %d: %s", ErrVerification, status, data)
	}
	return nil
}
