package http

import (
	"errors"
	"net/http"
)

// WebError is an error that carries the HTTP status it should produce.
//
//	return gohttp.NotFound("user not found")
type WebError struct {
	Code    int
	Message string
	Err     error
	// Fields holds per-field messages of a failed validation.
	Fields map[string][]string
}

// NewWebError builds a WebError. The message defaults to the status text.
func NewWebError(code int, message ...string) *WebError {
	return &WebError{Code: code, Message: first(message, StatusText(code))}
}

func (e *WebError) Error() string { return e.Message }

func (e *WebError) Unwrap() error { return e.Err }

// Wrap sets the underlying cause.
func (e *WebError) Wrap(err error) *WebError {
	e.Err = err
	return e
}

// BadRequest is a 400 error.
func BadRequest(message ...string) *WebError {
	return NewWebError(http.StatusBadRequest, message...)
}

// Unauthorized is a 401 error.
func Unauthorized(message ...string) *WebError {
	return NewWebError(http.StatusUnauthorized, message...)
}

// NotFound is a 404 error.
func NotFound(message ...string) *WebError {
	return NewWebError(http.StatusNotFound, message...)
}

// Internal is a 500 error wrapping cause.
func Internal(cause error, message ...string) *WebError {
	return NewWebError(http.StatusInternalServerError, message...).Wrap(cause)
}

// AsWebError returns err when it is (or wraps) a WebError. Any other error
// becomes an internal error; its message is kept only when expose is set.
func AsWebError(err error, expose bool) *WebError {
	var web *WebError
	if errors.As(err, &web) {
		return web
	}
	if expose && err != nil && err.Error() != "" {
		return Internal(err, err.Error())
	}
	return Internal(err)
}

func first(ss []string, fallback string) string {
	if len(ss) > 0 && ss[0] != "" {
		return ss[0]
	}
	return fallback
}
