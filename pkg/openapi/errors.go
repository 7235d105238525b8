package openapi

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvedReference indicates a $ref that does not point at a node
	// of the loaded document.
	ErrUnresolvedReference = errors.New("unresolved reference")

	// ErrMissingDocumentContext indicates a document tree without positional
	// metadata, ie. one that was not produced by parsing a source document.
	ErrMissingDocumentContext = errors.New("missing document context")
)

// ReferenceError represents a failure to resolve a $ref.
type ReferenceError struct {
	// Ref is the reference string that failed to resolve
	Ref string
	// Pointer locates the node carrying the reference
	Pointer Pointer
	// IsCircular is true when the reference only leads back to itself
	IsCircular bool
	// Cause is the underlying error, if any
	Cause error
}

func (e *ReferenceError) Error() string {
	msg := "unresolved reference"
	if e.IsCircular {
		msg = "circular reference"
	}
	if e.Ref != "" {
		msg += fmt.Sprintf(" %q", e.Ref)
	}
	if e.Pointer != "" {
		msg += " at " + string(e.Pointer)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ReferenceError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ReferenceError) Is(target error) bool {
	return target == ErrUnresolvedReference
}
