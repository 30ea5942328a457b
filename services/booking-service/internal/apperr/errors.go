// Package apperr holds the error taxonomy shared by the booking packages.
// Handlers translate these into HTTP status codes in one place.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrSlotUnavailable means the requested slot is not bookable now. Callers
	// should re-query availability rather than retry blindly.
	ErrSlotUnavailable = errors.New("slot unavailable")

	// ErrOutcomeUnknown means a write may or may not have committed.
	ErrOutcomeUnknown = errors.New("outcome unknown")

	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("forbidden")
)

// FormatError reports a time string that could not be normalized.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid time format %q: %s", e.Input, e.Reason)
}

// InvalidDateError reports a date/time pair that does not name a real instant.
type InvalidDateError struct {
	Date   string
	Time   string
	Reason string
}

func (e *InvalidDateError) Error() string {
	if e.Time == "" {
		return fmt.Sprintf("invalid date %q: %s", e.Date, e.Reason)
	}
	return fmt.Sprintf("invalid date/time %q %q: %s", e.Date, e.Time, e.Reason)
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StoreError wraps a persistence failure with the operation that hit it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store wraps err for op, leaving nil and already classified errors alone.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) || errors.Is(err, ErrSlotUnavailable) || errors.Is(err, ErrNotFound) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// IsRetryable reports whether the caller may try the same request again after
// re-reading state. Unknown outcomes are excluded: the write may have landed.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrSlotUnavailable) {
		return true
	}
	if errors.Is(err, ErrOutcomeUnknown) {
		return false
	}
	var se *StoreError
	return errors.As(err, &se)
}
