package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable names.
const (
	envPrefix     = "HEARTRISK_"
	envConfigFile = "HEARTRISK_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if HEARTRISK_CONFIG is set
//  3. env (prefix HEARTRISK_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// HEARTRISK_MODEL_PATH -> model_path. Keys are flat, so underscores stay.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(envPrefix))
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ModelPath == "" || c.ScalerPath == "":
		return fmt.Errorf("%w: model_path and scaler_path must not be empty", ErrInvalidConfig)
	case !inUnit(c.FallbackPositive) || !inUnit(c.FallbackNegative):
		return fmt.Errorf("%w: fallback probabilities must be within [0,1]", ErrInvalidConfig)
	case c.TestRatio <= 0 || c.TestRatio >= 1:
		return fmt.Errorf("%w: test_ratio must be within (0,1)", ErrInvalidConfig)
	case c.ModelType != ModelTypeRandomForest && c.ModelType != ModelTypeDecisionTree:
		return fmt.Errorf("%w: unknown model_type %q", ErrInvalidConfig, c.ModelType)
	case c.MaxBodyBytes <= 0:
		return fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig)
	case !(c.ModerateThreshold >= 0 && c.ModerateThreshold < c.HighThreshold && c.HighThreshold <= 1):
		return fmt.Errorf("%w: thresholds need 0 <= moderate < high <= 1, got moderate=%v high=%v",
			ErrInvalidConfig, c.ModerateThreshold, c.HighThreshold)
	}
	return nil
}

func inUnit(p float64) bool { return p >= 0 && p <= 1 }
