package patient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseRequest decodes a predict request body into a Vector. Every key in
// RequestFields must be present and hold a JSON number or a string that
// parses as one. Unknown keys are ignored.
func ParseRequest(body []byte) (Vector, error) {
	var v Vector

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return v, ErrInvalidBody
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return v, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}

	for i, key := range RequestFields {
		msg, ok := raw[key]
		if !ok {
			return v, fmt.Errorf("%w %q", ErrMissingField, key)
		}
		f, err := coerce(msg)
		if err != nil {
			return v, fmt.Errorf("field %q: %w", key, err)
		}
		v[i] = f
	}
	return v, nil
}

// coerce accepts a JSON number or a numeric string. null, booleans,
// objects, arrays, and non-finite values are rejected.
func coerce(msg json.RawMessage) (float64, error) {
	var f float64
	switch {
	case len(msg) == 0:
		return 0, ErrNotNumeric
	case msg[0] == '"':
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			return 0, ErrNotNumeric
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("%w, got %q", ErrNotNumeric, s)
		}
		f = parsed
	default:
		if err := json.Unmarshal(msg, &f); err != nil || string(msg) == "null" {
			return 0, fmt.Errorf("%w, got %s", ErrNotNumeric, truncate(string(msg)))
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w, got non-finite value", ErrNotNumeric)
	}
	return f, nil
}

func truncate(s string) string {
	const maxLen = 32
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
