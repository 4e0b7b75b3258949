package domainerrors

import (
	"errors"

	"campus/pkg/platform/sentinel"
)

// Code represents a domain error category independent of transport layer.
// Codes describe what went wrong in business terms, not HTTP terms.
type Code string

const (
	CodeNotFound           Code = "not_found"
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_failed"
	CodeInternal           Code = "internal_error"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeTimeout            Code = "timeout"
	CodeUnavailable        Code = "unavailable"
	CodeInvariantViolation Code = "invariant_violation"
)

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service, store, and handler layers.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// StoreMessages are the client-facing messages for store outcomes. An empty
// NotFound or Conflict message leaves that outcome internal.
type StoreMessages struct {
	NotFound string
	Conflict string
	Internal string
}

// FromStore translates a store error carrying a sentinel into a coded
// domain error. Errors that already carry a code keep it.
func FromStore(err error, msgs StoreMessages) error {
	switch {
	case msgs.NotFound != "" && errors.Is(err, sentinel.ErrNotFound):
		return Wrap(err, CodeNotFound, msgs.NotFound)
	case msgs.Conflict != "" && errors.Is(err, sentinel.ErrConflict):
		return Wrap(err, CodeConflict, msgs.Conflict)
	}
	return Wrap(err, CodeInternal, msgs.Internal)
}
