package render

import "errors"

// Sentinel kinds for chart rendering errors.
var (
	ErrTooFewPoints = errors.New("need at least 2 points to plot")
)
