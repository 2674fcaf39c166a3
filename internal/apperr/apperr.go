// Package apperr defines the error kinds surfaced to RPC callers.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the transport layer
type Kind string

const (
	KindValidation      Kind = "VALIDATION"
	KindUnauthorized    Kind = "UNAUTHORIZED"
	KindNotFound        Kind = "NOT_FOUND"
	KindConflict        Kind = "CONFLICT"
	KindTooManyRequests Kind = "TOO_MANY_REQUESTS"
	KindInternal        Kind = "INTERNAL"
)

// Error is a classified application error
type Error struct {
	Kind    Kind
	Message string
	// Fields holds field-level messages for VALIDATION errors
	Fields map[string][]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, apperr.NotFound("")) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies err under kind
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func Unauthorized() *Error {
	return New(KindUnauthorized, "authentication required")
}

func TooManyRequests() *Error {
	return New(KindTooManyRequests, "rate limit exceeded")
}

func Conflict(message string, err error) *Error {
	return Wrap(KindConflict, message, err)
}

func Internal(message string) *Error {
	return New(KindInternal, message)
}

// Validation builds a VALIDATION error from field-level messages
func Validation(fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Message: "invalid input", Fields: fields}
}

// KindOf returns the kind of err, INTERNAL for unclassified errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
