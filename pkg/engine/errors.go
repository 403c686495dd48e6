package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/azybler/route_engine/pkg/routing"
	"github.com/azybler/route_engine/pkg/value"
)

// Response codes.
const (
	CodeOk             = "Ok"
	CodeInvalidOptions = "InvalidOptions"
	CodeInvalidValue   = "InvalidValue"
	CodeTooBig         = "TooBig"
	CodeNoSegment      = "NoSegment"
	CodeNoRoute        = "NoRoute"
	CodeCancelled      = "Cancelled"
	CodeInternalError  = "InternalError"
)

// requestError is a failed request, reported to the caller as
// {code, message}.
type requestError struct {
	code    string
	message string
}

func (e *requestError) Error() string { return e.code + ": " + e.message }

func newRequestError(code, format string, args ...any) *requestError {
	return &requestError{code: code, message: fmt.Sprintf(format, args...)}
}

// result converts a request error into the error result tree.
func (e *requestError) result() (Status, value.Value) {
	return StatusError, value.NewObject().
		Set("code", value.String(e.code)).
		Set("message", value.String(e.message))
}

// routeError classifies an error from a router.
func routeError(err error) *requestError {
	switch {
	case errors.Is(err, routing.ErrNoRoute):
		return newRequestError(CodeNoRoute, "Impossible route between points")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return newRequestError(CodeCancelled, "Request cancelled: %v", err)
	}
	return newRequestError(CodeInternalError, "%v", err)
}

// ctxError reports a cancelled context as a request error.
func ctxError(err error) *requestError {
	if err == nil {
		return nil
	}
	return newRequestError(CodeCancelled, "Request cancelled: %v", err)
}

// recoverResult turns a panic inside a service into an InternalError result.
func recoverResult(status *Status, result *value.Value) {
	if r := recover(); r != nil {
		*status, *result = newRequestError(CodeInternalError, "internal error: %v", r).result()
	}
}
