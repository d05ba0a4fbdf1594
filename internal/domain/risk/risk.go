// Package risk turns a class-1 probability into a bucket with advice.
package risk

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// Bucket is a coarse risk level.
type Bucket string

// Buckets, lowest to highest.
const (
	Low      Bucket = "Low"
	Moderate Bucket = "Moderate"
	High     Bucket = "High"
)

// Default thresholds. Undocumented tuning constants carried over as-is.
const (
	DefaultHighThreshold     = 0.66
	DefaultModerateThreshold = 0.33
)

// Proxy probabilities reported for models that only return a class label.
// Arbitrary constants with no stated derivation, kept as-is.
const (
	DefaultFallbackPositive = 0.85
	DefaultFallbackNegative = 0.15
)

// probabilityPlaces is the precision of the probability returned to clients.
const probabilityPlaces = 3

// ErrInvalidThresholds is returned by NewThresholds for an unusable pair.
var ErrInvalidThresholds = errors.New("invalid risk thresholds")

// Thresholds splits [0,1] into three buckets. Both bounds are inclusive
// on their lower side: p >= High is High, p >= Moderate is Moderate.
type Thresholds struct {
	high     float64
	moderate float64
}

// DefaultThresholds returns the 0.66 / 0.33 split.
func DefaultThresholds() Thresholds {
	return Thresholds{high: DefaultHighThreshold, moderate: DefaultModerateThreshold}
}

// NewThresholds requires 0 <= moderate < high <= 1.
func NewThresholds(high, moderate float64) (Thresholds, error) {
	if !(moderate >= 0 && moderate < high && high <= 1) {
		return Thresholds{}, fmt.Errorf("%w: moderate=%v high=%v", ErrInvalidThresholds, moderate, high)
	}
	return Thresholds{high: high, moderate: moderate}, nil
}

// High returns the lower bound of the High bucket.
func (t Thresholds) High() float64 { return t.high }

// Moderate returns the lower bound of the Moderate bucket.
func (t Thresholds) Moderate() float64 { return t.moderate }

// Classify buckets p.
func (t Thresholds) Classify(p float64) Bucket {
	switch {
	case p >= t.high:
		return High
	case p >= t.moderate:
		return Moderate
	default:
		return Low
	}
}

var tips = map[Bucket][]string{ //nolint:gochecknoglobals // static advice table
	High: {
		"Consult a clinician for a full evaluation.",
		"Review blood pressure & lipid control.",
		"Consider lifestyle changes (diet, exercise, tobacco).",
	},
	Moderate: {
		"Track BP, cholesterol, glucose regularly.",
		"Increase physical activity gradually.",
		"Discuss preventive steps with your provider.",
	},
	Low: {
		"Maintain healthy habits and routine checkups.",
		"Keep an eye on BP, cholesterol, and glucose.",
	},
}

// Tips returns a copy of the advice list for b. Unknown buckets get nil.
func Tips(b Bucket) []string {
	src, ok := tips[b]
	if !ok {
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Round returns p rounded to three decimal places. Rounding works on the
// exact binary value of p, so 0.6595 (stored just below) becomes 0.659;
// exact ties go to the even digit.
func Round(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return p
	}
	return exactDecimal(p).RoundBank(probabilityPlaces).InexactFloat64()
}

// exactDecimal converts p without going through its shortest decimal form.
// p = mant * 2^exp, and for exp < 0 that equals mant * 5^-exp / 10^-exp.
func exactDecimal(p float64) decimal.Decimal {
	frac, exp := math.Frexp(p)
	mant := big.NewInt(int64(math.Ldexp(frac, 53)))
	exp -= 53
	if exp >= 0 {
		return decimal.NewFromBigInt(mant.Lsh(mant, uint(exp)), 0)
	}
	pow := new(big.Int).Exp(big.NewInt(5), big.NewInt(int64(-exp)), nil)
	return decimal.NewFromBigInt(mant.Mul(mant, pow), int32(exp))
}

// Assessment is a bucketed probability with its advice.
type Assessment struct {
	Category    Bucket   `json:"risk_category"`
	Probability float64  `json:"probability"`
	Tips        []string `json:"tips"`
}

// Assess rounds p and buckets the rounded value, so the reported
// probability and category always agree.
func (t Thresholds) Assess(p float64) Assessment {
	rounded := Round(p)
	b := t.Classify(rounded)
	return Assessment{
		Category:    b,
		Probability: rounded,
		Tips:        Tips(b),
	}
}
