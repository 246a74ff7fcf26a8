// Package subject identifies what is currently being scored: a ladder rank,
// a dataset metric, or a user-defined metric. Exactly one subject is active
// per view.
package subject

import (
	"fmt"
	"strings"
)

// Kind discriminates the subject variants.
type Kind int

const (
	KindRank Kind = iota
	KindDatasetMetric
	KindUserMetric
)

// Subject is a polymorphic reference to the thing being scored. Only the
// fields of the active Kind are meaningful.
type Subject struct {
	Kind Kind

	// KindRank
	RankCode string

	// KindDatasetMetric
	DatasetSlug string
	MetricKey   string

	// KindUserMetric
	UserSlug string
}

// NewRank references a ladder tier. The code is carried as-is; recognition
// is the collaborator's responsibility.
func NewRank(code string) Subject {
	return Subject{Kind: KindRank, RankCode: code}
}

// NewDatasetMetric references one metric of a dataset.
func NewDatasetMetric(datasetSlug, metricKey string) Subject {
	return Subject{Kind: KindDatasetMetric, DatasetSlug: datasetSlug, MetricKey: metricKey}
}

// NewUserMetric references a user-submitted numeric series.
func NewUserMetric(slug string) Subject {
	return Subject{Kind: KindUserMetric, UserSlug: slug}
}

// Default is the subject shown when the location identifier carries none.
func Default() Subject {
	return NewRank("platinum-2")
}

func (s Subject) String() string {
	return s.Encode()
}

// Encode renders the shareable identifier for the subject. The identifier
// is a pure function of the subject.
func (s Subject) Encode() string {
	switch s.Kind {
	case KindDatasetMetric:
		return fmt.Sprintf("d:%s:m:%s", s.DatasetSlug, s.MetricKey)
	case KindUserMetric:
		return "u:" + s.UserSlug
	default:
		return "rank:" + s.RankCode
	}
}

// Parse decodes a shareable identifier. Unrecognized rank codes pass through
// unvalidated; only a structurally malformed identifier is an error.
func Parse(raw string) (Subject, error) {
	switch {
	case strings.HasPrefix(raw, "rank:"):
		code := strings.TrimPrefix(raw, "rank:")
		if code == "" {
			return Subject{}, fmt.Errorf("%w: empty rank code", ErrMalformed)
		}
		return NewRank(code), nil
	case strings.HasPrefix(raw, "d:"):
		parts := strings.Split(raw, ":")
		if len(parts) != 4 || parts[2] != "m" || parts[1] == "" || parts[3] == "" {
			return Subject{}, fmt.Errorf("%w: want d:<slug>:m:<key>, got %q", ErrMalformed, raw)
		}
		return NewDatasetMetric(parts[1], parts[3]), nil
	case strings.HasPrefix(raw, "u:"):
		slug := strings.TrimPrefix(raw, "u:")
		if slug == "" {
			return Subject{}, fmt.Errorf("%w: empty user metric slug", ErrMalformed)
		}
		return NewUserMetric(slug), nil
	default:
		return Subject{}, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}
}
