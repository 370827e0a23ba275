package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure.  Handlers map kinds to HTTP statuses.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindCapacityExceeded
	KindDuplicateDate
	KindConflict
	KindUnauthorized
	KindInvalidCredentials
)

var kindCodes = map[Kind]string{
	KindInternal:           "INTERNAL_FAILURE",
	KindNotFound:           "NOT_FOUND",
	KindValidation:         "VALIDATION_FAILED",
	KindCapacityExceeded:   "CAPACITY_EXCEEDED",
	KindDuplicateDate:      "DUPLICATE_DATE",
	KindConflict:           "CONFLICT",
	KindUnauthorized:       "UNAUTHORIZED",
	KindInvalidCredentials: "INVALID_CREDENTIALS",
}

func (k Kind) String() string { return kindCodes[k] }

// Error is the only error type services return to handlers.  Message is
// safe to show to clients; cause is kept for logs.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// ErrorCode is Code when set, otherwise the kind's default code.
func (e *Error) ErrorCode() string {
	if e.Code != "" {
		return e.Code
	}
	return e.Kind.String()
}

func newErr(k Kind, msg string) *Error { return &Error{Kind: k, Message: msg} }

func NotFound(msg string) *Error   { return newErr(KindNotFound, msg) }
func Invalid(msg string) *Error    { return newErr(KindValidation, msg) }
func Conflict(code, msg string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: msg}
}
func Unauthorized(msg string) *Error { return newErr(KindUnauthorized, msg) }

// Internal hides cause from clients behind msg.
func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, cause: cause}
}

// KindOf reports the kind of err.  Anything that is not an *Error is
// internal.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// AsError converts any error into an *Error, wrapping unknown errors as
// internal failures.
func AsError(err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return Internal("internal error", err)
}
