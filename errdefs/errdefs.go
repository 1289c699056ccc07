// Package errdefs holds the error taxonomy shared by the client, the export
// orchestrator and the command line.
package errdefs

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	AuthMissing   ErrorType = "AUTH_MISSING"
	AuthInvalid   ErrorType = "AUTH_INVALID"
	NotFound      ErrorType = "NOT_FOUND"
	APIError      ErrorType = "API_ERROR"
	InvalidFilter ErrorType = "INVALID_FILTER"
	Unexpected    ErrorType = "UNEXPECTED_ERROR"
)

// Error is a classified error. StatusCode is the remote HTTP status when one
// was involved, zero otherwise.
type Error struct {
	Type       ErrorType
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewAuthMissing reports that no credentials are configured for op.
func NewAuthMissing(op string) *Error {
	msg := "authentication credentials are missing"
	if op != "" {
		msg = fmt.Sprintf("%s for %s", msg, op)
	}
	return &Error{Type: AuthMissing, Message: msg}
}

func NewAuthInvalid(message string, statusCode int) *Error {
	return &Error{Type: AuthInvalid, StatusCode: statusCode, Message: message}
}

func NewNotFound(message string) *Error {
	return &Error{Type: NotFound, StatusCode: 404, Message: message}
}

func NewAPIError(message string, statusCode int, cause error) *Error {
	return &Error{Type: APIError, StatusCode: statusCode, Message: message, Cause: cause}
}

func NewInvalidFilter(filter string) *Error {
	return &Error{
		Type:    InvalidFilter,
		Message: fmt.Sprintf("invalid ignore filter %q: format should be \"parent:ID\" or \"title:REGEX\"", filter),
	}
}

// Ensure returns err as an *Error. Unclassified errors become the cause of an
// Unexpected one.
func Ensure(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Type: Unexpected, Message: "unexpected error", Cause: err}
}

// TypeOf returns the type of the first *Error in err's chain, or Unexpected.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return Unexpected
}

func Is(err error, t ErrorType) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == t
}

// IsUserError reports whether err was caused by the caller's input rather
// than by a failing system.
func IsUserError(err error) bool {
	switch TypeOf(err) {
	case AuthMissing, AuthInvalid, NotFound, InvalidFilter:
		return true
	default:
		return false
	}
}
