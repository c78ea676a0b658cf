// Package validator checks operator input and rent payments before they
// reach the matching engine, storage or the payment provider.
package validator

import (
	"errors"
	"strings"
)

// ValidationError is a field-level input error. The API surfaces it as 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NewError builds a ValidationError for field.
func NewError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Errors collects several field errors from one input.
type Errors []*ValidationError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Add records a field error.
func (e *Errors) Add(field, message string) {
	*e = append(*e, NewError(field, message))
}

// Err returns nil when nothing was recorded, so callers can `return errs.Err()`.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// IsValidation reports whether err is (or wraps) a ValidationError or Errors.
func IsValidation(err error) bool {
	var single *ValidationError
	if errors.As(err, &single) {
		return true
	}
	var multi Errors
	return errors.As(err, &multi)
}
