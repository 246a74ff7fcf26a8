package statsapi

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds for collaborator call failures. Callers branch on these
// with errors.Is; the concrete error keeps status and body for diagnostics.
var (
	// ErrValidation marks malformed local input caught before any
	// network call.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound marks a subject key the collaborator does not
	// recognize.
	ErrNotFound = errors.New("subject not found")

	// ErrNetwork marks a transport-level failure.
	ErrNetwork = errors.New("network failure")

	// ErrServer marks a non-2xx response.
	ErrServer = errors.New("server error")

	// ErrDecode marks a 2xx response whose body could not be decoded.
	ErrDecode = errors.New("malformed response")
)

// StatusError carries the raw status and body text of a failed call.
type StatusError struct {
	kind      error
	Operation string
	Status    int
	Body      string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Operation, e.kind.Error(), e.Status, e.Body)
}

func (e *StatusError) Unwrap() error { return e.kind }

// statusError classifies a non-2xx response. 404 always means the subject
// key is unknown; the rank endpoint reports unknown codes as 400 with an
// "unknown rank_code" detail, which callers still want as not-found.
func statusError(operation string, status int, body string) error {
	kind := ErrServer
	if status == 404 || (status == 400 && strings.Contains(body, "unknown rank_code")) {
		kind = ErrNotFound
	}
	return &StatusError{kind: kind, Operation: operation, Status: status, Body: body}
}
