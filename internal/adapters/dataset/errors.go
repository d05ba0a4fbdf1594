package dataset

import "errors"

// Sentinel kinds for dataset errors.
var (
	ErrMissingColumn = errors.New("missing column")
	ErrBadValue      = errors.New("bad value")
	ErrNoRows        = errors.New("dataset has no rows")
)
