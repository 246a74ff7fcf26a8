package model

import (
	"math"
	"strconv"
)

// Display rounding constants. Stored values keep full precision; rounding
// happens only at format time.
const (
	scoreDecimals    = 2
	headlineDecimals = 1
	percentScale     = 100 // round percents to 2 decimals via n*100
)

// ParseDecimal parses a decimal string as transmitted by the collaborator.
// All numeric response fields arrive as strings and must go through here
// before any arithmetic.
func ParseDecimal(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// FormatScore renders scores, means, and standard deviations to 2 decimals.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', scoreDecimals, 64)
}

// FormatHeadline renders the headline standardized score to 1 decimal.
func FormatHeadline(v float64) string {
	return strconv.FormatFloat(v, 'f', headlineDecimals, 64)
}

// FormatPercent renders a percentile rounded to at most 2 decimals with
// trailing zeros trimmed, so "7" and "7.12" both come out clean.
func FormatPercent(v float64) string {
	rounded := math.Round(v*percentScale) / percentScale
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}
