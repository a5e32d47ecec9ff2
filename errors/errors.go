// Package errors defines the errno-style errors returned by every layer of the
// file system, from block storage up to the session.
package errors

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// DriverError is a wrapper around system errno codes, with a customizable error message.
type DriverError interface {
	error
	Errno() Errno
	Unwrap() error
	// WithMessage returns a copy of the error with `message` appended to the
	// current message. The errno code is preserved.
	WithMessage(message string) DriverError
	// Wrap returns a copy of the error that also wraps `err`, so that both the
	// receiver and `err` are found by [errors.Is] and [errors.As].
	Wrap(err error) DriverError
}

type driverError struct {
	errno         Errno
	message       string
	originalError error
}

// Error implements the `error` object interface. When called, it returns a string
// describing the error.
func (e driverError) Error() string {
	if e.message != "" {
		return e.message
	}
	return StrError(e.errno)
}

func (e driverError) Errno() Errno {
	return e.errno
}

func (e driverError) Unwrap() error {
	return e.originalError
}

// Is reports whether `target` is a DriverError with the same errno code. This
// lets callers write errors.Is(err, errors.ErrNotFound) no matter what message
// was attached along the way.
func (e driverError) Is(target error) bool {
	other, ok := target.(DriverError)
	return ok && other.Errno() == e.errno
}

func (e driverError) WithMessage(message string) DriverError {
	return driverError{
		errno:         e.errno,
		message:       fmt.Sprintf("%s: %s", e.Error(), message),
		originalError: e,
	}
}

func (e driverError) Wrap(err error) DriverError {
	return driverError{
		errno:         e.errno,
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: multierror.Append(e, err),
	}
}

// New creates a new [DriverError] with a default message derived from the
// system's error code.
func New(errnoCode Errno) DriverError {
	return driverError{
		errno:   errnoCode,
		message: StrError(errnoCode),
	}
}

// NewFromError creates a new [DriverError] that wraps `originalError`.
func NewFromError(errnoCode Errno, originalError error) DriverError {
	return New(errnoCode).Wrap(originalError)
}

// NewWithMessage creates a new DriverError from a system error code with a
// custom message.
func NewWithMessage(errnoCode Errno, message string) DriverError {
	return driverError{
		errno:   errnoCode,
		message: fmt.Sprintf("%s: %s", StrError(errnoCode), message),
	}
}

// ErrnoOf returns the errno code carried by `err`, or EOK if `err` is nil and
// EIO if it isn't a [DriverError].
func ErrnoOf(err error) Errno {
	if err == nil {
		return EOK
	}
	if drverr, ok := err.(DriverError); ok {
		return drverr.Errno()
	}
	return EIO
}
