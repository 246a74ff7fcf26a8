// Package insight maps a percentile into a human-readable strength band.
package insight

import (
	"fmt"

	"github.com/kitaoji/hensachi/internal/domain/model"
)

// Band labels, strongest first.
const (
	BandVeryHigh       = "very high"
	BandStrong         = "strong"
	BandAboveAverage   = "above average"
	BandRoughlyAverage = "roughly average"
	BandRoomToGrow     = "room to grow"
)

// MsgInsufficient is returned when neither percentile is known.
const MsgInsufficient = "not enough distribution data; showing the standardized score only"

// Inclusive upper bounds on the top-percentile path (smaller = stronger).
const (
	topVeryHigh     = 1
	topStrong       = 5
	topAboveAverage = 20
	topAverage      = 50
)

// Inclusive upper bounds on the bottom-percentile path. This path has no
// very-high/strong band: a small bottom percent means few players below
// you, which never certifies top-tier strength on its own.
const (
	bottomAboveAverage = 20
	bottomAverage      = 50
)

// Classify derives a commentary line from the percentile the collaborator
// reported. The top percentile wins when both are present. Values are
// compared as-is, never clamped; any finite input is acceptable, including
// 0 and values above 100.
func Classify(topPercent, bottomPercent *float64) string {
	if topPercent != nil {
		p := *topPercent
		band := BandRoomToGrow
		switch {
		case p <= topVeryHigh:
			band = BandVeryHigh
		case p <= topStrong:
			band = BandStrong
		case p <= topAboveAverage:
			band = BandAboveAverage
		case p <= topAverage:
			band = BandRoughlyAverage
		}
		return fmt.Sprintf("%s (top %s%%)", band, model.FormatPercent(p))
	}
	if bottomPercent != nil {
		p := *bottomPercent
		band := BandRoomToGrow
		switch {
		case p <= bottomAboveAverage:
			band = BandAboveAverage
		case p <= bottomAverage:
			band = BandRoughlyAverage
		}
		return fmt.Sprintf("%s (bottom %s%%)", band, model.FormatPercent(p))
	}
	return MsgInsufficient
}

// FromResult classifies a fetched result directly.
func FromResult(r *model.ScoreResult) string {
	if r == nil {
		return MsgInsufficient
	}
	return Classify(r.TopPercent, r.BottomPercent)
}
