package types

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across components. Callers match with errors.Is.
var (
	// ErrNotFound is returned when a referenced record does not exist
	ErrNotFound = errors.New("not found")
	// ErrDimensionMismatch is returned when two vectors differ in length
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrModelUnavailable is returned when the embedding backend cannot run.
	// Operations requiring embeddings must fail outright on this error,
	// never degrade to zero vectors.
	ErrModelUnavailable = errors.New("embedding model unavailable")
	// ErrCorruptRecord is returned for unreadable blobs or malformed columns.
	// Batch scans skip these rows rather than aborting.
	ErrCorruptRecord = errors.New("corrupt record")
)

// ValidationError reports a rejected field before any write occurs.
type ValidationError struct {
	Field  string
	Value  interface{}
	Reason string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

// NewValidationError creates a ValidationError for the given field
func NewValidationError(field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
