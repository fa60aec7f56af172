// Package apperr defines the closed set of failure kinds surfaced by the
// backend gateway and the admin console.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind string

const (
	// BackendUnavailable covers network, storage and permission failures on
	// any document, identity or blob call.
	BackendUnavailable Kind = "backend_unavailable"
	// Unauthorized means the authenticated identity is not on the allowlist,
	// or no identity was presented for a guarded operation.
	Unauthorized Kind = "unauthorized"
	// ValidationFailure means the submitted input could not be coerced or
	// accepted.
	ValidationFailure Kind = "validation_failure"
	// NotFound means the addressed record does not exist.
	NotFound Kind = "not_found"
)

// Error is a failure tagged with its Kind and the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E builds an *Error. An err that already carries a Kind keeps it.
func E(kind Kind, op string, err error) error {
	var ae *Error
	if errors.As(err, &ae) {
		return &Error{Kind: ae.Kind, Op: op, Err: err}
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds an *Error from a formatted message.
func Errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind carried by err. Untagged errors are reported as
// BackendUnavailable.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return BackendUnavailable
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

// HTTPStatus maps a Kind to the response status used by the HTTP layer.
func HTTPStatus(kind Kind) int {
	switch kind {
	case Unauthorized:
		return http.StatusForbidden
	case ValidationFailure:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
