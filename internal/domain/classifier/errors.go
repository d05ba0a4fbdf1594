package classifier

import "errors"

// Sentinel kinds for classifier errors.
var (
	ErrNotFitted   = errors.New("model not fitted")
	ErrDimension   = errors.New("feature dimension mismatch")
	ErrEmptyData   = errors.New("features or labels empty")
	ErrLabel       = errors.New("labels must be 0 or 1")
	ErrInvalidTree = errors.New("invalid tree state")
)
