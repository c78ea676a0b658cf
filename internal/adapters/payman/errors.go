package payman

import (
	"errors"
	"fmt"
)

var (
	// ErrRejected means the provider refused the request (4xx). Never retried.
	ErrRejected = errors.New("payment provider rejected the request")
	// ErrUnavailable means the provider could not be reached, timed out or
	// failed on its side (5xx). The operation may be attempted again.
	ErrUnavailable = errors.New("payment provider unavailable")
)

// Error carries the detail of a failed provider call.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Kind       error
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("payman %s: %v", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
