package utils

import (
	"errors"
	"fmt"
)

// ValidationError marks a request problem the caller can fix. Handlers
// map it to 400.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns the error message string.
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError for field.
//
// Parameters:
//   - field: The offending input, or "" when not tied to one.
//   - message: The validation error message.
//
// Returns:
//   - An error interface wrapping the ValidationError.
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewValidationErrorf creates a ValidationError with a formatted message.
func NewValidationErrorf(field, format string, args ...interface{}) error {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// InvalidInput marks the validation errors of the public packages, which
// cannot import this one.
func (e *ValidationError) InvalidInput() {}

type invalidInput interface {
	InvalidInput()
}

// IsValidationError reports whether err wraps a ValidationError or any
// error marked with InvalidInput.
func IsValidationError(err error) bool {
	var ve invalidInput
	return errors.As(err, &ve)
}
