package main

import (
	"errors"

	"github.com/foomo/confluence-export/errdefs"
)

// 0 = Success
// 1 = User error (bad flags, invalid filter, missing credentials, unknown space)
// 2 = System error (API failure, I/O error, cancellation)
const (
	ExitSuccess     = 0
	ExitUserError   = 1
	ExitSystemError = 2
)

// ExitError is an error that carries an exit code for the CLI.
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

func newUserError(message string, cause error) *ExitError {
	return &ExitError{Code: ExitUserError, Message: message, Cause: cause}
}

// exitCode maps err to the process exit status. Classified errors from the
// exporter decide between user and system errors.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errdefs.IsUserError(err) {
		return ExitUserError
	}
	return ExitSystemError
}
