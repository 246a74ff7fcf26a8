// Package selection keeps the active subject and a shareable location
// identifier in sync, both ways: the identifier seeds the subject on load,
// and every subject change rewrites the identifier with replace semantics.
package selection

import (
	"context"
	"net/url"

	"github.com/kitaoji/hensachi/internal/domain/subject"
	"github.com/kitaoji/hensachi/pkg/logger"
)

// queryKey is the query parameter carrying the encoded subject.
const queryKey = "subject"

// Location abstracts where the shareable identifier lives: a URL query
// string, a state file, or an in-memory slot in tests. Replace overwrites
// the identifier in place; it never stacks a navigation entry.
type Location interface {
	Read() string
	Replace(encoded string)
}

// Binding ties the active subject to a location. The location is always a
// pure function of the current subject and never drifts independently.
type Binding struct {
	loc     Location
	current subject.Subject
	logger  logger.Logger
}

// NewBinding derives the initial subject from the location if it holds a
// well-formed identifier, else falls back to def, and writes the resolved
// identifier back so location and subject agree from the start. Rank codes
// outside the known ladder pass through as-is; the collaborator rejects
// them with not-found.
func NewBinding(loc Location, def subject.Subject, opts ...BindingOption) *Binding {
	b := &Binding{loc: loc, current: def}

	for _, opt := range opts {
		opt(b)
	}

	if b.logger == nil {
		b.logger = logger.Get().Named("selection")
	}

	if raw := loc.Read(); raw != "" {
		if s, err := subject.Parse(raw); err == nil {
			b.current = s
		} else {
			b.logger.Warn(context.Background(), "ignoring malformed subject identifier",
				logger.String("identifier", raw),
				logger.Error(err),
			)
		}
	}
	loc.Replace(b.current.Encode())

	return b
}

// Current returns the active subject.
func (b *Binding) Current() subject.Subject {
	return b.current
}

// Select activates a subject and rewrites the location identifier.
func (b *Binding) Select(s subject.Subject) {
	b.current = s
	b.loc.Replace(s.Encode())
}

// ShareURL renders the shareable URL for a subject against a web base.
func ShareURL(base string, s subject.Subject) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set(queryKey, s.Encode())
	u.RawQuery = q.Encode()
	return u.String()
}

// MemLocation is an in-memory Location, mainly for tests.
type MemLocation struct {
	value string
}

// NewMemLocation seeds an in-memory location with an identifier.
func NewMemLocation(value string) *MemLocation {
	return &MemLocation{value: value}
}

func (m *MemLocation) Read() string           { return m.value }
func (m *MemLocation) Replace(encoded string) { m.value = encoded }
