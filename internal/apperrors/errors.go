package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an error with the HTTP status and the message shown to the shopper.
// Err keeps the underlying cause for logs; it is never serialized.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error.
func New(code int, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message, nil)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message, nil)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message, nil)
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, message, nil)
}

func Unavailable(message string) *Error {
	return New(http.StatusServiceUnavailable, message, nil)
}

// Internal wraps err behind a generic message.
func Internal(message string, err error) *Error {
	return New(http.StatusInternalServerError, message, err)
}

// From returns err as an *Error. Anything that is not already one becomes
// a 500 carrying err as its cause.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("Internal server error", err)
}

// IsServerError reports whether err maps to a 5xx status.
func IsServerError(err error) bool {
	return From(err).Code >= http.StatusInternalServerError
}
