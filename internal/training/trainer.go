// Package training fits the scaler and classifier from a labelled CSV and
// writes both artifacts.
package training

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/heartrisk/internal/adapters/artifact"
	"github.com/okian/heartrisk/internal/adapters/dataset"
	"github.com/okian/heartrisk/internal/domain/classifier"
	"github.com/okian/heartrisk/pkg/logger"
	"github.com/okian/heartrisk/pkg/metrics"
)

// roundTripTolerance bounds the probability drift allowed after reload.
const roundTripTolerance = 1e-9

// Params selects the model and its hyperparameters.
type Params struct {
	DatasetPath    string
	ModelType      string
	Estimators     int
	MaxDepth       int
	MinSamplesLeaf int
	TestRatio      float64
	Seed           int64
	Workers        int
}

// DefaultParams returns a 100-tree forest with a 0.2 hold-out and seed 42.
func DefaultParams() Params {
	return Params{
		DatasetPath:    "data/heart.csv",
		ModelType:      classifier.KindRandomForest,
		Estimators:     classifier.DefaultEstimators,
		MinSamplesLeaf: 1,
		TestRatio:      classifier.DefaultTestRatio,
		Seed:           42,
	}
}

// Result summarises a finished run.
type Result struct {
	Kind      string
	Rows      int
	Positives int
	TrainRows int
	TestRows  int
	Duration  time.Duration
}

// Trainer runs the offline training pipeline.
type Trainer struct {
	store  *artifact.Store
	params Params
	logger logger.Logger
}

// Option applies a configuration option to the Trainer.
type Option func(*Trainer)

// WithParams replaces the default parameters.
func WithParams(p Params) Option {
	return func(t *Trainer) {
		t.params = p
	}
}

// WithLogger sets a custom logger for the trainer.
func WithLogger(l logger.Logger) Option {
	return func(t *Trainer) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates a Trainer writing to store.
func New(store *artifact.Store, opts ...Option) *Trainer {
	t := &Trainer{
		store:  store,
		params: DefaultParams(),
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run reads the dataset, fits the scaler on every row, fits the model on
// the scaled training split, saves both artifacts and checks that the
// saved pair reproduces the in-memory model.
func (t *Trainer) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	p := t.params

	ds, err := dataset.ReadFile(ctx, p.DatasetPath)
	if err != nil {
		return Result{}, err
	}
	if ds.Len() < 2 {
		return Result{}, fmt.Errorf("%w: %d", ErrTooFewRows, ds.Len())
	}
	t.logger.Info(ctx, "dataset loaded",
		logger.String("path", p.DatasetPath),
		logger.Int("rows", ds.Len()),
		logger.Int("positives", ds.Positives()),
	)

	scaler, err := classifier.FitStandardScaler(ds.Features)
	if err != nil {
		return Result{}, fmt.Errorf("fit scaler: %w", err)
	}

	trainX, trainY, testX, _ := classifier.TrainTestSplit(ds.Features, ds.Labels, p.TestRatio, p.Seed)
	scaledTrain, err := scaler.TransformAll(trainX)
	if err != nil {
		return Result{}, fmt.Errorf("scale training rows: %w", err)
	}

	model, err := t.fit(ctx, scaledTrain, trainY)
	if err != nil {
		return Result{}, err
	}

	if err := t.store.Save(ctx, scaler, model); err != nil {
		return Result{}, err
	}
	if err := t.verify(ctx, model, scaledTrain[0], trainX[0]); err != nil {
		return Result{}, err
	}

	res := Result{
		Kind:      classifier.KindOf(model),
		Rows:      ds.Len(),
		Positives: ds.Positives(),
		TrainRows: len(trainX),
		TestRows:  len(testX),
		Duration:  time.Since(start),
	}
	metrics.RecordTraining(res.TrainRows, res.Duration.Seconds())
	t.logger.Info(ctx, "model and scaler saved successfully",
		logger.String("kind", res.Kind),
		logger.String("model_path", t.store.ModelPath()),
		logger.String("scaler_path", t.store.ScalerPath()),
		logger.Int("train_rows", res.TrainRows),
		logger.Int("test_rows", res.TestRows),
	)
	return res, nil
}

func (t *Trainer) fit(ctx context.Context, x [][]float64, y []int) (classifier.Predictor, error) {
	p := t.params
	tree := classifier.TreeParams{
		MaxDepth:       p.MaxDepth,
		MinSamplesLeaf: p.MinSamplesLeaf,
		Seed:           p.Seed,
	}

	switch p.ModelType {
	case classifier.KindRandomForest:
		rf := classifier.NewRandomForest()
		err := rf.Fit(ctx, x, y, classifier.ForestParams{
			Estimators:   p.Estimators,
			Tree:         tree,
			Workers:      p.Workers,
			OnTreeFitted: func(int) { metrics.RecordTreeFitted() },
		})
		if err != nil {
			return nil, fmt.Errorf("fit random forest: %w", err)
		}
		return rf, nil
	case classifier.KindDecisionTree:
		dt := classifier.NewDecisionTree()
		if err := dt.Fit(x, y, tree); err != nil {
			return nil, fmt.Errorf("fit decision tree: %w", err)
		}
		return dt, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModelType, p.ModelType)
	}
}

// verify reloads both artifacts and scores the raw first training row
// through them; the result must match the in-memory model on the scaled row.
func (t *Trainer) verify(ctx context.Context, model classifier.Predictor, scaledRow, rawRow []float64) error {
	want, err := score(model, scaledRow)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRoundTrip, err)
	}

	scaler, reloaded, err := t.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRoundTrip, err)
	}
	x, err := scaler.Transform(rawRow)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRoundTrip, err)
	}
	got, err := score(reloaded, x)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRoundTrip, err)
	}

	if math.Abs(got-want) > roundTripTolerance {
		return fmt.Errorf("%w: got %v, want %v", ErrRoundTrip, got, want)
	}
	t.logger.Debug(ctx, "round trip verified", logger.Float64("probability", got))
	return nil
}

// score is the class-1 probability, or the label for discrete models.
func score(p classifier.Predictor, x []float64) (float64, error) {
	if pp, ok := p.(classifier.ProbabilisticPredictor); ok {
		proba, err := pp.PredictProba(x)
		if err != nil {
			return 0, err
		}
		return proba[classifier.Positive], nil
	}
	label, err := p.Predict(x)
	return float64(label), err
}
