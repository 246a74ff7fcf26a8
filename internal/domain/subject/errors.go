package subject

import "errors"

// Sentinel kinds for subject identifier errors.
var (
	ErrMalformed = errors.New("malformed subject identifier")
)
