// Package apperr is the error taxonomy shared by the services and the HTTP layer.
package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindInvalidInput    Kind = "invalid_input"
	KindUnauthorized    Kind = "unauthorized"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindUpstreamFailure Kind = "upstream_failure"
)

// Error carries the kind, the HTTP status it maps to and the message shown
// to the caller. Err is the wrapped cause, if any.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func InvalidInput(msg string) *Error {
	return &Error{Kind: KindInvalidInput, Status: http.StatusBadRequest, Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Status: http.StatusUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Status: http.StatusForbidden, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: msg}
}

// Upstream wraps a collaborator error. The upstream message is kept verbatim.
// status is 400 or 500 depending on the route.
func Upstream(status int, err error) *Error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &Error{Kind: KindUpstreamFailure, Status: status, Message: msg, Err: err}
}

// Upstreamf is Upstream with a message prefix.
func Upstreamf(status int, prefix string, err error) *Error {
	e := Upstream(status, err)
	e.Message = prefix + e.Message
	return e
}

// StatusOf returns the HTTP status for err; unknown errors are 500.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Internal server error"
}
