package dto

import "fmt"

// ValidationError marks a fatal input violation: the caller supplied data
// the engine refuses to compute on. It is surfaced immediately and never
// retried internally.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}
