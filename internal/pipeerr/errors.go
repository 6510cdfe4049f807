// Package pipeerr defines the error taxonomy shared by the pipeline graph
// packages. Every error type matches a package sentinel through errors.Is so
// callers can branch on the category without type assertions.
package pipeerr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches unknown configuration keys, attributes and definitions.
	ErrNotFound = errors.New("not found")
	// ErrExhaustedNamespace matches identifier generators that ran out of candidates.
	ErrExhaustedNamespace = errors.New("namespace exhausted")
	// ErrStructural matches malformed requests such as ambiguous stage selection.
	ErrStructural = errors.New("structural error")
	// ErrMalformed matches documents whose shape contradicts their definitions.
	ErrMalformed = errors.New("malformed document")
	// ErrDanglingLane matches non-fatal lane consistency warnings.
	ErrDanglingLane = errors.New("dangling lane")
)

// NotFoundError reports a lookup that found nothing.
type NotFoundError struct {
	// Kind names what was looked up, e.g. "configuration", "attribute", "stage definition".
	Kind string
	Name string
	// Scope optionally names where the lookup happened, e.g. an instance name.
	Scope string
}

func (e *NotFoundError) Error() string {
	if e.Scope != "" {
		return fmt.Sprintf("%s %q not found in %s", e.Kind, e.Name, e.Scope)
	}
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ExhaustedNamespaceError reports that no free identifier exists under Limit.
type ExhaustedNamespaceError struct {
	Prefix string
	Limit  int
}

func (e *ExhaustedNamespaceError) Error() string {
	return fmt.Sprintf("could not find a unique identifier for %q after %d attempts", e.Prefix, e.Limit)
}

func (e *ExhaustedNamespaceError) Is(target error) bool { return target == ErrExhaustedNamespace }

// StructuralError reports a request that cannot be satisfied as stated.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string { return e.Reason }

func (e *StructuralError) Is(target error) bool { return target == ErrStructural }

// MalformedError reports an attribute or reference that is known but cannot be
// resolved against the document, e.g. a service missing from a stage that declares it.
type MalformedError struct {
	Subject string
	Reason  string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Subject, e.Reason)
}

func (e *MalformedError) Is(target error) bool { return target == ErrMalformed }

// DanglingLaneWarning describes a lane that is produced but never consumed, or
// consumed but never produced. It is surfaced, never returned as a failure.
type DanglingLaneWarning struct {
	Lane   string
	Stage  string
	Reason string
}

func (w *DanglingLaneWarning) Error() string {
	return fmt.Sprintf("lane %q of stage %q %s", w.Lane, w.Stage, w.Reason)
}

func (w *DanglingLaneWarning) Is(target error) bool { return target == ErrDanglingLane }
