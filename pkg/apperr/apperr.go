package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error into the closed taxonomy the route boundary maps to
// HTTP statuses. Anything outside the taxonomy is treated as Internal.
type Kind int

const (
	KindValidation Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindDependencyConflict
	KindInternal
)

// Error carries a kind, a client-safe message and an optional wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error         { return &Error{Kind: KindValidation, Msg: msg} }
func Unauthenticated(msg string) *Error    { return &Error{Kind: KindUnauthenticated, Msg: msg} }
func Forbidden(msg string) *Error          { return &Error{Kind: KindForbidden, Msg: msg} }
func NotFound(msg string) *Error           { return &Error{Kind: KindNotFound, Msg: msg} }
func Conflict(msg string) *Error           { return &Error{Kind: KindConflict, Msg: msg} }
func DependencyConflict(msg string) *Error { return &Error{Kind: KindDependencyConflict, Msg: msg} }

// Internal wraps an unexpected failure. The cause is kept for logging but the
// client only ever sees the generic message.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Msg: "internal server error", Err: err}
}

// KindOf extracts the taxonomy kind, defaulting to Internal for plain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Status maps an error to its HTTP status code.
func Status(err error) int {
	switch KindOf(err) {
	case KindValidation, KindConflict, KindDependencyConflict:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-safe message. Internal errors and plain errors
// never leak their cause to the response body.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Msg
	}
	return "internal server error"
}
