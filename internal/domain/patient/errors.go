package patient

import "errors"

// Sentinel kinds for input validation errors.
var (
	ErrInvalidBody  = errors.New("request body must be a JSON object")
	ErrMissingField = errors.New("missing field")
	ErrNotNumeric   = errors.New("value must be numeric")
)
