// Package apperr defines the application error taxonomy. Every error that
// crosses the service boundary is either one of these or gets surfaced as a
// generic internal error by the transport layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an application error carrying the HTTP status it maps to.
type Error struct {
	Status  int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports malformed or missing required input.
func Validation(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg}
}

// Validationf is Validation with a format string.
func Validationf(format string, args ...any) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

// NotFound reports an absent referenced entity.
func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Message: msg}
}

// Conflict reports a state-machine violation, e.g. opening a second cash
// session. Surfaced as 400, matching the public contract.
func Conflict(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg}
}

// Upstream reports an external provider failure.
func Upstream(msg string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: msg, Err: err}
}

// Store reports a database failure.
func Store(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: "internal storage error", Err: err}
}

// StatusOf returns the HTTP status for err, defaulting to 500 for anything
// outside the taxonomy.
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	return http.StatusInternalServerError
}

// MessageOf returns the user-facing message for err. Errors outside the
// taxonomy get a generic message so internals never leak to clients.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}

	return "internal server error"
}
