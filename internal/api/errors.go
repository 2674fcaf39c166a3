package api

import (
	"errors"

	"github.com/emojiblog/emojiblog/internal/apperr"
)

// Standard JSON-RPC error codes
const (
	ErrParseError     = -32700
	ErrInvalidRequest = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternalError  = -32603
)

// Application error codes in the implementation-defined server range
const (
	ErrUnauthorized    = -32001
	ErrNotFound        = -32004
	ErrConflict        = -32009
	ErrTooManyRequests = -32029
)

// ErrorData is the data member of an application error
type ErrorData struct {
	Kind        apperr.Kind         `json:"kind"`
	Message     string              `json:"message"`
	FieldErrors map[string][]string `json:"fieldErrors,omitempty"`
}

var kindCodes = map[apperr.Kind]int{
	apperr.KindValidation:      ErrInvalidParams,
	apperr.KindUnauthorized:    ErrUnauthorized,
	apperr.KindNotFound:        ErrNotFound,
	apperr.KindConflict:        ErrConflict,
	apperr.KindTooManyRequests: ErrTooManyRequests,
	apperr.KindInternal:        ErrInternalError,
}

var kindMessages = map[apperr.Kind]string{
	apperr.KindValidation:      "Invalid params",
	apperr.KindUnauthorized:    "Unauthorized",
	apperr.KindNotFound:        "Not found",
	apperr.KindConflict:        "Conflict",
	apperr.KindTooManyRequests: "Too many requests",
	apperr.KindInternal:        "Internal error",
}

// errorFromApp maps err to a JSON-RPC error. Causes of unclassified errors
// are never sent to the caller.
func errorFromApp(err error) *JSONRPCError {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = apperr.Internal("Internal error")
	}

	return &JSONRPCError{
		Code:    kindCodes[ae.Kind],
		Message: kindMessages[ae.Kind],
		Data: ErrorData{
			Kind:        ae.Kind,
			Message:     ae.Message,
			FieldErrors: ae.Fields,
		},
	}
}
