package classifier

import (
	"fmt"
	"math"
)

// StandardScaler centres each feature on its mean and divides by its
// population standard deviation. Constant features keep a scale of 1.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// FitStandardScaler computes per-column statistics over rows.
func FitStandardScaler(rows [][]float64) (*StandardScaler, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyData
	}
	dim := len(rows[0])
	mean := make([]float64, dim)
	for i, row := range rows {
		if len(row) != dim {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrDimension, i, len(row), dim)
		}
		for j, v := range row {
			mean[j] += v
		}
	}
	n := float64(len(rows))
	for j := range mean {
		mean[j] /= n
	}

	scale := make([]float64, dim)
	for _, row := range rows {
		for j, v := range row {
			d := v - mean[j]
			scale[j] += d * d
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / n)
		if scale[j] == 0 {
			scale[j] = 1
		}
	}
	return &StandardScaler{Mean: mean, Scale: scale}, nil
}

// Dim returns the number of features the scaler was fitted on.
func (s *StandardScaler) Dim() int { return len(s.Mean) }

// Validate checks the internal shape, used after decoding.
func (s *StandardScaler) Validate() error {
	if s == nil || len(s.Mean) == 0 {
		return ErrNotFitted
	}
	if len(s.Scale) != len(s.Mean) {
		return fmt.Errorf("%w: %d means, %d scales", ErrDimension, len(s.Mean), len(s.Scale))
	}
	for j, sc := range s.Scale {
		if sc == 0 || math.IsNaN(sc) || math.IsInf(sc, 0) {
			return fmt.Errorf("scale[%d] is %v", j, sc)
		}
	}
	return nil
}

// Transform returns a scaled copy of x.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(s.Mean) == 0 {
		return nil, ErrNotFitted
	}
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(x), len(s.Mean))
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}

// TransformAll scales every row.
func (s *StandardScaler) TransformAll(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		scaled, err := s.Transform(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = scaled
	}
	return out, nil
}
