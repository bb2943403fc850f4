package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Use errors.Is against these to classify a failure.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// Error is a client-facing failure: its message is safe to return over the API.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// Invalid builds a validation error.
func Invalid(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a uniqueness violation error.
func Conflict(msg string) error {
	return &Error{Kind: ErrConflict, Message: msg}
}

// Unauthorized builds a credential failure.
func Unauthorized(msg string) error {
	return &Error{Kind: ErrUnauthorized, Message: msg}
}

// NotFound builds a missing resource error.
func NotFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}
