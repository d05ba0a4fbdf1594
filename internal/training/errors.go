package training

import "errors"

// Sentinel error kinds for training runs.
var (
	ErrUnknownModelType = errors.New("unknown model type")
	ErrRoundTrip        = errors.New("saved artifacts do not reproduce the trained model")
	ErrTooFewRows       = errors.New("dataset has too few rows")
)
