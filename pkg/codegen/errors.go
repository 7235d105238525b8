package codegen

import (
	"errors"
	"fmt"

	"github.com/oapi-codegen/oapi-modelgen/pkg/openapi"
)

var (
	// ErrUnrecognizedType indicates a schema type or literal outside the
	// supported scalar set.
	ErrUnrecognizedType = errors.New("unrecognized schema type")

	// ErrConfig indicates invalid configuration, including an existing
	// models path that cannot be read.
	ErrConfig = errors.New("configuration error")

	// ErrInvalidMarker indicates an existing artifact whose marker could not
	// be parsed. Artifacts failing this way are skipped, not fatal.
	ErrInvalidMarker = errors.New("invalid artifact marker")
)

// TypeError represents an unsupported type keyword or enum literal.
type TypeError struct {
	// Pointer locates the offending schema
	Pointer openapi.Pointer
	// Value is the offending type name or literal
	Value any
}

func (e *TypeError) Error() string {
	msg := fmt.Sprintf("unrecognized schema type %v", e.Value)
	if e.Pointer != "" {
		msg += " at " + string(e.Pointer)
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *TypeError) Is(target error) bool {
	return target == ErrUnrecognizedType
}

// ConfigError represents an invalid configuration or input.
type ConfigError struct {
	// Option is the name of the problematic configuration option
	Option string
	// Value is the invalid value that was provided (may be nil)
	Value any
	// Message describes the configuration error
	Message string
	// Cause is the underlying error, if any
	Cause error
}

func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += " for " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// MarkerError represents an existing artifact whose marker is unreadable.
type MarkerError struct {
	File   string
	Line   int
	Marker string
	Cause  error
}

func (e *MarkerError) Error() string {
	msg := "invalid artifact marker"
	if e.File != "" {
		msg += fmt.Sprintf(" in %s:%d", e.File, e.Line)
	}
	if e.Marker != "" {
		msg += fmt.Sprintf(" %q", e.Marker)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *MarkerError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *MarkerError) Is(target error) bool {
	return target == ErrInvalidMarker
}
