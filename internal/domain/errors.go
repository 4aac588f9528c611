package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across layers.
var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation failed")
	ErrExternalFetch  = errors.New("external fetch failed")
	ErrAlreadyExists  = errors.New("already exists")
	ErrNotConfigured  = errors.New("not configured")
	ErrMonitorRunning = errors.New("monitor already running")
)

// ValidationError describes why a recipe or cost item was rejected.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid is shorthand for building a *ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// FetchError wraps a failed call to an external collaborator (recipe
// provider, ingredient store). It matches both ErrExternalFetch and the
// underlying cause.
type FetchError struct {
	Op  string
	ID  string
	Err error
}

func (e *FetchError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *FetchError) Unwrap() []error { return []error{ErrExternalFetch, e.Err} }

// Fetch wraps err as a *FetchError unless it is nil or already a not-found,
// which callers surface directly.
func Fetch(op, id string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%s %s: %w", op, id, err)
	}
	return &FetchError{Op: op, ID: id, Err: err}
}
