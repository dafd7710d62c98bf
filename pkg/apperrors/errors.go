// Package apperrors defines the error taxonomy shared by the item, claim and
// HTTP layers. Errors carry a stable code and the HTTP status the transport
// should use; errors.Is matches on code so clones and wrapped errors compare
// equal to the predefined values.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, kind *Error, message string) *Error {
	if message == "" {
		message = kind.Message
	}
	return &Error{Code: kind.Code, Status: kind.Status, Message: message, Err: err}
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Predefined errors.
var (
	ErrValidation       = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrNotFound         = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden        = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrConflict         = New("CONFLICT", http.StatusConflict, "resource already exists")
	ErrUnauthenticated  = New("UNAUTHENTICATED", http.StatusUnauthorized, "authentication required")
	ErrStoreUnavailable = New("STORE_UNAVAILABLE", http.StatusServiceUnavailable, "backing store unavailable")
	ErrStoreFailure     = New("STORE_FAILURE", http.StatusInternalServerError, "backing store failure")
	ErrConfiguration    = New("CONFIGURATION_ERROR", http.StatusInternalServerError, "service misconfigured")
	ErrInternal         = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	var coded interface{ AppError() *Error }
	if errors.As(err, &coded) {
		return Clone(coded.AppError(), err.Error())
	}
	return Wrap(err, ErrInternal, ErrInternal.Message)
}
