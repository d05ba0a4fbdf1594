package smoke

import (
	"fmt"
	"math"
)

// verifyPrediction checks that the category matches the probability under
// the configured thresholds and that the rest of the body is well formed.
func verifyPrediction(cfg *Config, p Prediction) error {
	if p.Probability < 0 || p.Probability > 1 || math.IsNaN(p.Probability) {
		return fmt.Errorf("probability %v out of range", p.Probability)
	}
	if scaled := p.Probability * 1000; math.Abs(scaled-math.Round(scaled)) > 1e-6 {
		return fmt.Errorf("probability %v has more than three decimals", p.Probability)
	}

	want := "Low"
	switch {
	case p.Probability >= cfg.HighThreshold:
		want = "High"
	case p.Probability >= cfg.ModerateThreshold:
		want = "Moderate"
	}
	if p.Category != want {
		return fmt.Errorf("category %q for probability %v, want %q", p.Category, p.Probability, want)
	}
	if len(p.Tips) == 0 {
		return fmt.Errorf("no tips for %q", p.Category)
	}
	return nil
}

// samePrediction reports whether two answers for one patient agree.
func samePrediction(a, b Prediction) bool {
	if a.Category != b.Category || a.Probability != b.Probability || len(a.Tips) != len(b.Tips) {
		return false
	}
	for i := range a.Tips {
		if a.Tips[i] != b.Tips[i] {
			return false
		}
	}
	return true
}
