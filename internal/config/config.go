// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() returns a Config filled with defaults.
// - Load(ctx) layers an optional YAML file and HEARTRISK_* env vars on top.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"runtime"
)

// Model types accepted by model_type.
const (
	ModelTypeRandomForest = "random_forest"
	ModelTypeDecisionTree = "decision_tree"
)

// Config contains process configuration for both the server and the trainer.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile, when set, also writes logs to a rotating file.
	LogFile string `koanf:"log_file"`

	// LogJSON switches log output to JSON.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ModelPath and ScalerPath locate the artifacts.
	ModelPath  string `koanf:"model_path"`
	ScalerPath string `koanf:"scaler_path"`

	// HighThreshold and ModerateThreshold split probabilities into buckets.
	HighThreshold     float64 `koanf:"high_threshold"`
	ModerateThreshold float64 `koanf:"moderate_threshold"`

	// FallbackPositive and FallbackNegative are reported when the model
	// only gives a class label.
	FallbackPositive float64 `koanf:"fallback_positive"`
	FallbackNegative float64 `koanf:"fallback_negative"`

	// MaxBodyBytes caps the predict request body.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// RedocScript overrides the ReDoc bundle URL of /api-docs; empty keeps the CDN.
	RedocScript string `koanf:"redoc_script"`

	// Trainer settings.
	DatasetPath    string  `koanf:"dataset_path"`
	ModelType      string  `koanf:"model_type"`
	Estimators     int     `koanf:"estimators"`
	MaxDepth       int     `koanf:"max_depth"`
	MinSamplesLeaf int     `koanf:"min_samples_leaf"`
	TestRatio      float64 `koanf:"test_ratio"`
	Seed           int64   `koanf:"seed"`
	TrainWorkers   int     `koanf:"train_workers"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":5000",
		ModelPath:         "model/heart_disease_model.json",
		ScalerPath:        "model/scaler.json",
		HighThreshold:     0.66,
		ModerateThreshold: 0.33,
		FallbackPositive:  0.85,
		FallbackNegative:  0.15,
		MaxBodyBytes:      1 << 16,
		DatasetPath:       "data/heart.csv",
		ModelType:         ModelTypeRandomForest,
		Estimators:        100,
		MaxDepth:          0,
		MinSamplesLeaf:    1,
		TestRatio:         0.2,
		Seed:              42,
		TrainWorkers:      runtime.NumCPU(),
	}
}
