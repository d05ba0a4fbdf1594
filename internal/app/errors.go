package service

import "errors"

// Sentinel error kinds for the prediction service.
var (
	// ErrCompute covers scaler or model failures on an already valid vector.
	ErrCompute = errors.New("prediction failed")
	// ErrNotReady is returned by New when an artifact is missing.
	ErrNotReady = errors.New("service not ready")
)
