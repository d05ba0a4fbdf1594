// Package service provides the prediction service behind the HTTP API:
// it scales a patient vector, scores it and buckets the probability.
package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/heartrisk/internal/domain/classifier"
	"github.com/okian/heartrisk/internal/domain/patient"
	"github.com/okian/heartrisk/internal/domain/risk"
	"github.com/okian/heartrisk/pkg/logger"
	"github.com/okian/heartrisk/pkg/metrics"
)

// Scaler normalises a raw feature vector before scoring.
type Scaler interface {
	Transform(x []float64) ([]float64, error)
}

// Service implements the prediction dependency of the HTTP API. It holds
// no mutable state after New and is safe for concurrent use.
type Service struct {
	scaler    Scaler
	predictor classifier.Predictor
	proba     classifier.ProbabilisticPredictor

	thresholds       risk.Thresholds
	fallbackPositive float64
	fallbackNegative float64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithThresholds overrides the bucket thresholds.
func WithThresholds(t risk.Thresholds) Option {
	return func(s *Service) {
		if t.High() > 0 {
			s.thresholds = t
		}
	}
}

// WithFallbackProbabilities sets the probabilities reported for class 1
// and class 0 when the model only predicts labels. Values outside [0,1]
// are ignored.
func WithFallbackProbabilities(positive, negative float64) Option {
	return func(s *Service) {
		if positive >= 0 && positive <= 1 && negative >= 0 && negative <= 1 {
			s.fallbackPositive = positive
			s.fallbackNegative = negative
		}
	}
}

// New constructs a Service around a loaded scaler and predictor.
func New(scaler Scaler, predictor classifier.Predictor, opts ...Option) (*Service, error) {
	if scaler == nil || predictor == nil {
		return nil, fmt.Errorf("%w: scaler and predictor are required", ErrNotReady)
	}

	s := &Service{
		scaler:           scaler,
		predictor:        predictor,
		thresholds:       risk.DefaultThresholds(),
		fallbackPositive: risk.DefaultFallbackPositive,
		fallbackNegative: risk.DefaultFallbackNegative,
		logger:           logger.Nop(),
	}
	if p, ok := predictor.(classifier.ProbabilisticPredictor); ok {
		s.proba = p
	}

	for _, opt := range opts {
		opt(s)
	}

	metrics.SetModelInfo(s.ModelKind(), s.Probabilistic())
	return s, nil
}

// ModelKind returns the artifact kind of the loaded model, or "unknown".
func (s *Service) ModelKind() string {
	if k := classifier.KindOf(s.predictor); k != "" {
		return k
	}
	return "unknown"
}

// Probabilistic reports whether the model exposes class probabilities.
func (s *Service) Probabilistic() bool {
	return s.proba != nil
}

// Predict scores one patient. The result depends only on v and the loaded
// artifacts.
func (s *Service) Predict(ctx context.Context, v patient.Vector) (risk.Assessment, error) {
	start := time.Now()

	scaled, err := s.scaler.Transform(v.Slice())
	if err != nil {
		return s.computeFailure(ctx, "scale", err)
	}

	p, err := s.probability(ctx, scaled)
	if err != nil {
		return s.computeFailure(ctx, "score", err)
	}

	a := s.thresholds.Assess(p)
	metrics.RecordPrediction(string(a.Category), a.Probability, time.Since(start).Seconds())
	s.logger.Debug(ctx, "prediction",
		logger.String("category", string(a.Category)),
		logger.Float64("probability", a.Probability),
	)
	return a, nil
}

// probability returns the class-1 probability, falling back to fixed proxy
// values for label-only models.
func (s *Service) probability(ctx context.Context, x []float64) (float64, error) {
	if s.proba != nil {
		proba, err := s.proba.PredictProba(x)
		if err != nil {
			return 0, err
		}
		if len(proba) <= classifier.Positive {
			return 0, fmt.Errorf("model returned %d class probabilities", len(proba))
		}
		p := proba[classifier.Positive]
		if math.IsNaN(p) || p < 0 || p > 1 {
			return 0, fmt.Errorf("model returned probability %v", p)
		}
		return p, nil
	}

	label, err := s.predictor.Predict(x)
	if err != nil {
		return 0, err
	}
	metrics.RecordDegradedPrediction()
	s.logger.Debug(ctx, "model has no probability output, using proxy value",
		logger.Int("label", label),
	)
	if label == classifier.Positive {
		return s.fallbackPositive, nil
	}
	return s.fallbackNegative, nil
}

func (s *Service) computeFailure(ctx context.Context, stage string, err error) (risk.Assessment, error) {
	metrics.RecordPredictionError("compute")
	s.logger.Error(ctx, "prediction failed", logger.String("stage", stage), logger.Error(err))
	return risk.Assessment{}, fmt.Errorf("%w: %s: %v", ErrCompute, stage, err)
}
