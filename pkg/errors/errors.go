package errors

import (
	"context"
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

// Is matches on the error code so cloned sentinels still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for the workflow surface. Every kind carries its own
// user-facing message so the boundary never falls back to a generic one.
var (
	ErrNotFound          = New("NOT_FOUND", http.StatusNotFound, "we could not find this request")
	ErrForbidden         = New("FORBIDDEN", http.StatusForbidden, "you are not allowed to act on this request")
	ErrUnauthorized      = New("UNAUTHORIZED", http.StatusUnauthorized, "please sign in to continue")
	ErrInvalidTransition = New("INVALID_TRANSITION", http.StatusConflict, "this action is not available for the request in its current state")
	ErrConflict          = New("CONFLICT", http.StatusConflict, "this request was already updated by someone else, please reload it")
	ErrValidation        = New("VALIDATION_ERROR", http.StatusUnprocessableEntity, "some required details are missing or invalid")
	ErrTimeout           = New("TIMEOUT", http.StatusGatewayTimeout, "the request took too long and nothing was changed, please try again")
	ErrInternal          = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss         = New("CACHE_MISS", http.StatusNotFound, "cache miss")
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
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(err, ErrTimeout.Code, ErrTimeout.Status, ErrTimeout.Message)
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
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

// Retryable reports whether the caller may safely resend the same command.
func Retryable(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrTimeout)
}
