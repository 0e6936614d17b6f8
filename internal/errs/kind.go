package errs

import (
	"context"
	"errors"
	"fmt"
)

// Kind tags an error with its place in the taxonomy.
type Kind string

const (
	KindUnknown      Kind = "unknown"
	KindValidation   Kind = "validation"
	KindResponse     Kind = "response"
	KindUnauthorized Kind = "unauthorized"
	KindNotFound     Kind = "not_found"
	KindTransport    Kind = "transport"
	KindCanceled     Kind = "canceled"
)

// GenericMessage is shown when the backend supplies no usable message.
const GenericMessage = "An error occurred"

// Error is the normalized {kind, message} failure surfaced to callers.
type Error struct {
	Kind    Kind
	Status  int // HTTP status, 0 when no response was received
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d)", e.Message, e.Status)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is maps kinds onto the package sentinels so callers can use errors.Is.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrNotFound:
		return e.Kind == KindNotFound
	}
	return false
}

// Validation builds a local validation error.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Invalid wraps a validator's error as a validation error, or returns nil.
func Invalid(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindValidation, Message: err.Error(), Err: err}
}

// Transport wraps a failure that happened before any response was read.
func Transport(err error) *Error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindCanceled, Message: "request canceled: " + err.Error(), Err: err}
	}
	return &Error{Kind: KindTransport, Message: err.Error(), Err: err}
}

// KindOf classifies any error.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrNoSession):
		return KindUnauthorized
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	}
	return KindUnknown
}

// Message returns the human-readable part of err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
