package classifier

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"
)

// Default forest configuration constants.
const (
	DefaultEstimators = 100
	defaultSeed       = 42
)

// ForestParams controls forest training.
type ForestParams struct {
	Estimators int        `json:"estimators"`
	Tree       TreeParams `json:"tree"`
	// Workers bounds concurrent tree fitting; 0 means runtime.NumCPU().
	Workers int `json:"-"`
	// OnTreeFitted, when set, is called once per finished tree. It may be
	// called from several goroutines.
	OnTreeFitted func(index int) `json:"-"`
}

// RandomForest averages the class fractions of bootstrapped trees.
type RandomForest struct {
	Trees    []*DecisionTree `json:"trees"`
	Features int             `json:"features"`
}

// NewRandomForest returns an unfitted forest.
func NewRandomForest() *RandomForest {
	return &RandomForest{}
}

// Kind implements Kinded.
func (rf *RandomForest) Kind() string { return KindRandomForest }

// Dim returns the number of features the forest was fitted on.
func (rf *RandomForest) Dim() int { return rf.Features }

// Fit grows params.Estimators trees on bootstrap samples. Tree i uses seed
// params.Tree.Seed+i for both its sample and its feature draws, so the
// result does not depend on scheduling.
func (rf *RandomForest) Fit(ctx context.Context, features [][]float64, labels []int, params ForestParams) error {
	if len(features) == 0 || len(labels) == 0 {
		return ErrEmptyData
	}
	if len(features) != len(labels) {
		return fmt.Errorf("%w: %d rows, %d labels", ErrDimension, len(features), len(labels))
	}
	if err := validateLabels(labels); err != nil {
		return err
	}
	if params.Estimators <= 0 {
		params.Estimators = DefaultEstimators
	}
	if params.Tree.MaxFeatures <= 0 {
		params.Tree.MaxFeatures = int(math.Max(1, math.Round(math.Sqrt(float64(len(features[0]))))))
	}
	workers := params.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > params.Estimators {
		workers = params.Estimators
	}

	trees := make([]*DecisionTree, params.Estimators)
	errs := make([]error, params.Estimators)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				trees[i], errs[i] = fitBootstrapTree(features, labels, params.Tree, int64(i))
				if errs[i] == nil && params.OnTreeFitted != nil {
					params.OnTreeFitted(i)
				}
			}
		}()
	}

	var cancelled error
dispatch:
	for i := 0; i < params.Estimators; i++ {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if cancelled != nil {
		return fmt.Errorf("forest training cancelled: %w", cancelled)
	}
	for i, err := range errs {
		if err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}

	rf.Trees = trees
	rf.Features = len(features[0])
	return nil
}

func fitBootstrapTree(features [][]float64, labels []int, params TreeParams, offset int64) (*DecisionTree, error) {
	params.Seed += offset
	rng := rand.New(rand.NewSource(params.Seed)) //nolint:gosec // reproducible training, not security sensitive
	sample := make([]int, len(features))
	for i := range sample {
		sample[i] = rng.Intn(len(features))
	}
	// feature draws get their own stream so they don't shift with sample size
	params.Seed = rng.Int63()
	tree := NewDecisionTree()
	if err := tree.fitIndices(features, labels, sample, params); err != nil {
		return nil, err
	}
	return tree, nil
}

// PredictProba averages per-tree leaf fractions.
func (rf *RandomForest) PredictProba(x []float64) ([]float64, error) {
	if len(rf.Trees) == 0 {
		return nil, ErrNotFitted
	}
	if len(x) != rf.Features {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(x), rf.Features)
	}
	var p1 float64
	for i, t := range rf.Trees {
		leaf, err := t.leaf(x)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		p1 += leaf.Value[Positive]
	}
	p1 /= float64(len(rf.Trees))
	return []float64{1 - p1, p1}, nil
}

// Predict returns the class with the higher averaged probability.
func (rf *RandomForest) Predict(x []float64) (int, error) {
	proba, err := rf.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return argmax(proba), nil
}

// Validate checks every tree, used after decoding.
func (rf *RandomForest) Validate() error {
	if rf == nil || len(rf.Trees) == 0 {
		return ErrNotFitted
	}
	for i, t := range rf.Trees {
		if t == nil {
			return fmt.Errorf("%w: tree %d is null", ErrInvalidTree, i)
		}
		if t.Features != rf.Features {
			return fmt.Errorf("%w: tree %d has %d features, forest %d", ErrDimension, i, t.Features, rf.Features)
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// DefaultForestParams mirrors common random-forest defaults.
func DefaultForestParams() ForestParams {
	return ForestParams{
		Estimators: DefaultEstimators,
		Tree: TreeParams{
			MinSamplesLeaf: 1,
			Seed:           defaultSeed,
		},
	}
}
