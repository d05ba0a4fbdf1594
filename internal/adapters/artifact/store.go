// Package artifact persists and restores the fitted scaler and predictor.
package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/okian/heartrisk/internal/domain/classifier"
	"github.com/okian/heartrisk/internal/domain/patient"
	"github.com/okian/heartrisk/pkg/logger"
	"github.com/okian/heartrisk/pkg/metrics"
)

// KindStandardScaler tags scaler artifacts.
const KindStandardScaler = "standard_scaler"

// Artifact names used in errors, logs, and metrics.
const (
	nameModel  = "model"
	nameScaler = "scaler"
)

// envelope is the on-disk layout shared by both artifacts. Features pins
// the column order the object was fitted on.
type envelope struct {
	Kind      string          `json:"kind"`
	Features  []string        `json:"features"`
	CreatedAt time.Time       `json:"created_at"`
	Payload   json.RawMessage `json:"payload"`
}

// Store reads and writes the two artifacts at fixed paths.
type Store struct {
	modelPath  string
	scalerPath string
	logger     logger.Logger
}

// NewStore creates a Store using the default paths unless overridden.
func NewStore(opts ...Option) *Store {
	s := &Store{
		modelPath:  DefaultModelPath,
		scalerPath: DefaultScalerPath,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ModelPath returns the predictor artifact path.
func (s *Store) ModelPath() string { return s.modelPath }

// ScalerPath returns the scaler artifact path.
func (s *Store) ScalerPath() string { return s.scalerPath }

// Load reads both artifacts. Any failure is a *StartupError.
func (s *Store) Load(ctx context.Context) (*classifier.StandardScaler, classifier.Predictor, error) {
	scaler, err := s.LoadScaler(ctx)
	if err != nil {
		return nil, nil, err
	}
	model, err := s.LoadModel(ctx)
	if err != nil {
		return nil, nil, err
	}
	if scaler.Dim() != patient.Dim {
		return nil, nil, s.fail(ctx, nameScaler, s.scalerPath, fmt.Errorf("%w: scaler has %d features", ErrArtifactCorrupt, scaler.Dim()))
	}
	if d, ok := model.(interface{ Dim() int }); ok && d.Dim() != patient.Dim {
		return nil, nil, s.fail(ctx, nameModel, s.modelPath, fmt.Errorf("%w: model has %d features", ErrArtifactCorrupt, d.Dim()))
	}
	return scaler, model, nil
}

// LoadScaler reads the scaler artifact.
func (s *Store) LoadScaler(ctx context.Context) (*classifier.StandardScaler, error) {
	start := time.Now()
	env, err := readEnvelope(s.scalerPath, KindStandardScaler)
	if err != nil {
		return nil, s.fail(ctx, nameScaler, s.scalerPath, err)
	}
	var scaler classifier.StandardScaler
	if err := json.Unmarshal(env.Payload, &scaler); err != nil {
		return nil, s.fail(ctx, nameScaler, s.scalerPath, fmt.Errorf("%w: %v", ErrArtifactCorrupt, err))
	}
	if err := scaler.Validate(); err != nil {
		return nil, s.fail(ctx, nameScaler, s.scalerPath, fmt.Errorf("%w: %v", ErrArtifactCorrupt, err))
	}
	metrics.RecordArtifactLoad(nameScaler, time.Since(start).Seconds())
	s.logger.Info(ctx, "scaler loaded", logger.String("path", s.scalerPath))
	return &scaler, nil
}

// LoadModel reads the predictor artifact and decodes it by kind.
func (s *Store) LoadModel(ctx context.Context) (classifier.Predictor, error) {
	start := time.Now()
	env, err := readEnvelope(s.modelPath, "")
	if err != nil {
		return nil, s.fail(ctx, nameModel, s.modelPath, err)
	}

	var (
		model     classifier.Predictor
		decodeErr error
	)
	switch env.Kind {
	case classifier.KindRandomForest:
		rf := classifier.NewRandomForest()
		if decodeErr = json.Unmarshal(env.Payload, rf); decodeErr == nil {
			decodeErr = rf.Validate()
		}
		model = rf
	case classifier.KindDecisionTree:
		dt := classifier.NewDecisionTree()
		if decodeErr = json.Unmarshal(env.Payload, dt); decodeErr == nil {
			decodeErr = dt.Validate()
		}
		model = dt
	default:
		return nil, s.fail(ctx, nameModel, s.modelPath, fmt.Errorf("%w: %q", ErrUnsupportedKind, env.Kind))
	}
	if decodeErr != nil {
		return nil, s.fail(ctx, nameModel, s.modelPath, fmt.Errorf("%w: %v", ErrArtifactCorrupt, decodeErr))
	}

	metrics.RecordArtifactLoad(nameModel, time.Since(start).Seconds())
	s.logger.Info(ctx, "model loaded", logger.String("path", s.modelPath), logger.String("kind", env.Kind))
	return model, nil
}

// Save writes both artifacts.
func (s *Store) Save(ctx context.Context, scaler *classifier.StandardScaler, model classifier.Predictor) error {
	if err := s.SaveScaler(ctx, scaler); err != nil {
		return err
	}
	return s.SaveModel(ctx, model)
}

// SaveScaler writes the scaler artifact.
func (s *Store) SaveScaler(ctx context.Context, scaler *classifier.StandardScaler) error {
	if err := scaler.Validate(); err != nil {
		return fmt.Errorf("save scaler: %w", err)
	}
	if err := writeEnvelope(s.scalerPath, KindStandardScaler, scaler); err != nil {
		return fmt.Errorf("save scaler: %w", err)
	}
	s.logger.Info(ctx, "scaler saved", logger.String("path", s.scalerPath))
	return nil
}

// SaveModel writes the predictor artifact. Only models that report a
// known Kind can be persisted.
func (s *Store) SaveModel(ctx context.Context, model classifier.Predictor) error {
	kind := classifier.KindOf(model)
	switch kind {
	case classifier.KindRandomForest, classifier.KindDecisionTree:
	default:
		return fmt.Errorf("save model: %w: %T", ErrUnsupportedKind, model)
	}
	if err := writeEnvelope(s.modelPath, kind, model); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	s.logger.Info(ctx, "model saved", logger.String("path", s.modelPath), logger.String("kind", kind))
	return nil
}

func (s *Store) fail(ctx context.Context, name, path string, err error) error {
	reason := "corrupt"
	if errors.Is(err, ErrArtifactMissing) {
		reason = "missing"
	}
	metrics.RecordArtifactLoadError(name, reason)
	s.logger.Error(ctx, "artifact load failed", logger.String("artifact", name), logger.String("path", path), logger.Error(err))
	return &StartupError{Artifact: name, Path: path, Err: err}
}

// readEnvelope reads path and checks the feature order. A non-empty kind
// must match exactly.
func readEnvelope(path, kind string) (envelope, error) {
	var env envelope
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return env, fmt.Errorf("%w: %v", ErrArtifactMissing, err)
		}
		return env, fmt.Errorf("%w: %v", ErrArtifactCorrupt, err)
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("%w: %v", ErrArtifactCorrupt, err)
	}
	if kind != "" && env.Kind != kind {
		return env, fmt.Errorf("%w: kind %q, want %q", ErrArtifactCorrupt, env.Kind, kind)
	}
	if !slices.Equal(env.Features, patient.ColumnNames()) {
		return env, fmt.Errorf("%w: feature order %v does not match %v", ErrArtifactCorrupt, env.Features, patient.ColumnNames())
	}
	if len(env.Payload) == 0 {
		return env, fmt.Errorf("%w: empty payload", ErrArtifactCorrupt)
	}
	return env, nil
}

// writeEnvelope writes via a temp file and rename so readers never see a
// partial artifact.
func writeEnvelope(path, kind string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	data, err := json.Marshal(envelope{
		Kind:      kind,
		Features:  patient.ColumnNames(),
		CreatedAt: time.Now().UTC(),
		Payload:   body,
	})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename artifact: %w", err)
	}
	return nil
}
