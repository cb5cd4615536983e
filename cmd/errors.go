package cmd

import (
	"errors"
	"fmt"
)

// Process exit codes.
const (
	ExitValid     = 0
	ExitInvalid   = 1 // errors, expired, expiring soon, or a failed fetch
	ExitUsage     = 2
	ExitFileError = 3
)

// ExitError ends the process with Code. A nil Err exits without printing.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func exitCode(err error) int {
	if err == nil {
		return ExitValid
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitInvalid
}

func usageError(format string, args ...any) error {
	return &ExitError{Code: ExitUsage, Err: fmt.Errorf(format, args...)}
}
