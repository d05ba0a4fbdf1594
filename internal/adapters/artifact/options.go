package artifact

import "github.com/okian/heartrisk/pkg/logger"

// Default artifact locations, relative to the working directory.
const (
	DefaultModelPath  = "model/heart_disease_model.json"
	DefaultScalerPath = "model/scaler.json"
)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithModelPath sets the predictor artifact path.
func WithModelPath(path string) Option {
	return func(s *Store) {
		if path != "" {
			s.modelPath = path
		}
	}
}

// WithScalerPath sets the scaler artifact path.
func WithScalerPath(path string) Option {
	return func(s *Store) {
		if path != "" {
			s.scalerPath = path
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}
