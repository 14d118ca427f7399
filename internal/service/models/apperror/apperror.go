// Package apperror defines the classified error type shared by services, stores and transports.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the transport boundary.
type Kind int

const (
	// KindInternal is an unexpected persistence or transaction failure.
	KindInternal Kind = iota
	// KindValidation is malformed or missing input.
	KindValidation
	// KindNotFound is a reference to an entity that does not exist.
	KindNotFound
	// KindConflict is a write rejected by a store constraint.
	KindConflict
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}

	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Validation creates a validation error.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a not found error.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict creates a conflict error caused by err.
func Conflict(err error, format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...), Err: err}
}

// Internal wraps err as an internal error with a client-safe message.
// Already classified errors are returned unchanged.
func Internal(err error, message string) error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}

	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of err. Unclassified errors are internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}

	return KindInternal
}

// As returns the classified error in err's chain, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}

	return nil, false
}

// IsNotFound reports whether err is a not found error.
func IsNotFound(err error) bool {
	appErr, ok := As(err)

	return ok && appErr.Kind == KindNotFound
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	appErr, ok := As(err)

	return ok && appErr.Kind == KindValidation
}

// IsConflict reports whether err is a conflict error.
func IsConflict(err error) bool {
	appErr, ok := As(err)

	return ok && appErr.Kind == KindConflict
}
