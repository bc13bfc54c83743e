// Package apperror holds the error kinds every component reports and their
// translation to HTTP responses.
package apperror

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

type Kind int

const (
	Internal Kind = iota
	Unauthenticated
	InvalidCredential
	AccessDenied
	NotFound
	Conflict
	Invalid
	Upstream
)

func (k Kind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case InvalidCredential:
		return "invalid_credential"
	case AccessDenied:
		return "access_denied"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Invalid:
		return "invalid"
	case Upstream:
		return "upstream_failure"
	default:
		return "internal"
	}
}

// Status is the HTTP status a kind is reported with.
func (k Kind) Status() int {
	switch k {
	case Unauthenticated:
		return http.StatusUnauthorized
	case InvalidCredential, AccessDenied:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Invalid:
		return http.StatusBadRequest
	case Upstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Message string
	// Status overrides Kind.Status when non-zero.
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	return e.Kind.Status()
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to err. A nil err yields nil.
func Wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: errors.WithStack(err)}
}

func Unauthenticatedf(format string, args ...any) error {
	return New(Unauthenticated, format, args...)
}

func InvalidCredentialf(format string, args ...any) error {
	return New(InvalidCredential, format, args...)
}

func AccessDeniedf(format string, args ...any) error {
	return New(AccessDenied, format, args...)
}

func NotFoundf(format string, args ...any) error {
	return New(NotFound, format, args...)
}

func Conflictf(format string, args ...any) error {
	return New(Conflict, format, args...)
}

func Invalidf(format string, args ...any) error {
	return New(Invalid, format, args...)
}

// Upstreamf wraps a failed store or provider call.
func Upstreamf(err error, format string, args ...any) error {
	return Wrap(Upstream, err, format, args...)
}

// KindOf reports the kind of the first *Error in err's chain, Internal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
