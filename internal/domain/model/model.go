// Package model contains the core records exchanged between the stats
// collaborator, the orchestration layer, and the presentation helpers.
package model

// ScoreResult is the outcome of one remote standardized-score computation.
// It is created fresh on every successful fetch, never mutated, and replaced
// wholesale by the next fetch.
type ScoreResult struct {
	// Value is the raw input (or representative value) the score was
	// computed for.
	Value float64

	// Score is the standardized score: 50 at the mean, 10 per standard
	// deviation of the reference population.
	Score float64

	Mean        float64
	StdDev      float64
	SampleCount int
	Unit        string

	// Diff is value - mean when the collaborator reports it.
	Diff *float64

	// RankPosition is the 1-based position in the reference population,
	// 1 being best.
	RankPosition *int

	// At most one of TopPercent/BottomPercent is authoritative per
	// response; both may be absent when the distribution is unknown.
	TopPercent    *float64
	BottomPercent *float64

	// Meta carries free-form collaborator annotations.
	Meta map[string]any
}

// HistoryEntry is a single past submission as reported by the collaborator.
// Value and SubmittedAt keep the raw wire strings: a non-numeric value is
// dropped at chart time, and an unparsable timestamp falls back to an index
// label there too.
type HistoryEntry struct {
	ID          int64
	Value       string
	SubmittedAt string
}

// HistoryWindow is a bounded sequence of entries in most-recent-first order.
// It is replaced wholesale on every refresh; entries are never mutated.
type HistoryWindow []HistoryEntry

// ChartPoint is one plot-ready sample derived from a HistoryWindow. Seq is a
// dense 1-based index in chronological order.
type ChartPoint struct {
	Seq   int
	Value float64
	Label string
}

// Dataset describes one entry of the collaborator's dataset catalog.
type Dataset struct {
	Slug        string
	Name        string
	Description string
}

// MetricInfo describes one metric of a dataset.
type MetricInfo struct {
	Key  string
	Name string
	Unit string
}

// MetricRow is one scored item of a dataset metric. Rows arrive pre-sorted
// by the collaborator and must keep that order.
type MetricRow struct {
	ItemKey  string
	ItemName string
	Meta     map[string]any
	Value    float64
	Score    float64
}

// MetricTable is the full scored table for one dataset metric.
type MetricTable struct {
	Dataset     string
	Metric      string
	Unit        string
	SampleCount int
	Mean        float64
	StdDev      float64
	Rows        []MetricRow
}
