// Package patient defines the fixed-order feature vector and the request
// schema that maps onto it.
package patient

// Dim is the number of features every model artifact is fitted on.
const Dim = 8

// Feature indices in training order.
const (
	Age = iota
	Gender
	Impulse
	SystolicBP
	DiastolicBP
	Glucose
	KCM
	Troponin
)

// Vector is one patient's features in training order.
type Vector [Dim]float64

// Slice returns a copy of v as a slice, the shape the classifier consumes.
func (v Vector) Slice() []float64 {
	out := make([]float64, Dim)
	copy(out, v[:])
	return out
}

// TrainingColumns are the CSV header names, index-aligned with Vector.
// The misspellings come from the published dataset and must be kept.
var TrainingColumns = [Dim]string{ //nolint:gochecknoglobals // fixed schema
	"age", "gender", "impluse", "pressurehight", "pressurelow", "glucose", "kcm", "troponin",
}

// RequestFields are the JSON keys accepted by the predict endpoint,
// index-aligned with Vector.
var RequestFields = [Dim]string{ //nolint:gochecknoglobals // fixed schema
	"age", "gender", "impulse", "highbp", "lowbp", "glucose", "kcm", "troponin",
}

// LabelColumn is the CSV column holding the binary class.
const LabelColumn = "class"

// ColumnNames returns TrainingColumns as a slice.
func ColumnNames() []string {
	out := make([]string, Dim)
	copy(out, TrainingColumns[:])
	return out
}
