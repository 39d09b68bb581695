// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
)

const (
	// exitFailure is used for every failure that carries no better code.
	exitFailure = 1
	// exitUsage reports a bad flag, key, format or issue id.
	exitUsage = 2
)

// ExitError carries the process exit code out of a RunE handler. A failed
// build under fail-fast exits with MSBuild's own code. An ExitError without
// Err has already been reported and is not rendered again.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// usageError marks err as a command-line mistake.
func usageError(err error) *ExitError {
	return &ExitError{Code: exitUsage, Err: err}
}

// exitCode maps the error returned by the command tree onto a process exit
// code: 0 for success, the ExitError code when one is set, 1 otherwise.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code != 0 {
		return exitErr.Code
	}
	return exitFailure
}
