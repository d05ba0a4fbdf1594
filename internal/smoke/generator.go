package smoke

import (
	"math"
	"math/rand"

	"github.com/okian/heartrisk/internal/domain/patient"
)

// measurement ranges seen in the training data, [min, max).
var ranges = [patient.Dim][2]float64{ //nolint:gochecknoglobals // fixed generation table
	patient.Age:         {20, 90},
	patient.Gender:      {0, 2},
	patient.Impulse:     {40, 140},
	patient.SystolicBP:  {90, 200},
	patient.DiastolicBP: {50, 120},
	patient.Glucose:     {60, 300},
	patient.KCM:         {0.3, 30},
	patient.Troponin:    {0.001, 1},
}

// generatePatients returns n request bodies keyed by the API field names.
// The same seed always yields the same patients.
func generatePatients(n int, seed int64) []map[string]float64 {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible load, not security sensitive
	out := make([]map[string]float64, n)
	for i := range out {
		body := make(map[string]float64, patient.Dim)
		for f, name := range patient.RequestFields {
			lo, hi := ranges[f][0], ranges[f][1]
			v := lo + rng.Float64()*(hi-lo)
			if f == patient.Gender {
				v = math.Floor(v)
			}
			body[name] = math.Round(v*1000) / 1000
		}
		out[i] = body
	}
	return out
}
