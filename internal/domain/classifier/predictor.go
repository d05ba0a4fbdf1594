// Package classifier holds the fitted objects used at inference time: a
// standard scaler and binary tree classifiers.
package classifier

// Model kinds, also used as artifact discriminators.
const (
	KindRandomForest = "random_forest"
	KindDecisionTree = "decision_tree"
)

// Class labels.
const (
	Negative = 0
	Positive = 1
)

// Predictor is a fitted binary classifier with discrete output.
type Predictor interface {
	Predict(x []float64) (int, error)
}

// ProbabilisticPredictor also reports class probabilities. The returned
// slice is indexed by class; index Positive is the disease probability.
type ProbabilisticPredictor interface {
	Predictor
	PredictProba(x []float64) ([]float64, error)
}

// Kinded is implemented by models that can be persisted as artifacts.
type Kinded interface {
	Kind() string
}

// KindOf returns the artifact kind for p, or "" when p is not a known model.
func KindOf(p Predictor) string {
	if k, ok := p.(Kinded); ok {
		return k.Kind()
	}
	return ""
}

// argmax picks the positive class only on a strict majority, so ties
// resolve to Negative.
func argmax(proba []float64) int {
	if proba[Positive] > proba[Negative] {
		return Positive
	}
	return Negative
}

func validateLabels(labels []int) error {
	for _, l := range labels {
		if l != Negative && l != Positive {
			return ErrLabel
		}
	}
	return nil
}
