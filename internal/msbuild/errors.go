// SPDX-License-Identifier: MPL-2.0

package msbuild

import (
	"errors"
	"fmt"
)

var (
	// ErrToolPathMissing is the sentinel error wrapped by ConfigurationError.
	ErrToolPathMissing = errors.New("msbuild path not set and auto-locate disabled")

	// ErrNoTargets is the sentinel error wrapped by NoTargetsError.
	ErrNoTargets = errors.New("no project or solution files found")

	// ErrLocatorExecution is the sentinel error wrapped by LocatorExecutionError.
	ErrLocatorExecution = errors.New("locator execution failed")

	// ErrBuildFailed is the sentinel error wrapped by BuildFailureError.
	ErrBuildFailed = errors.New("build failed")

	// ErrSpawn is the sentinel error wrapped by SpawnError.
	ErrSpawn = errors.New("failed to start build tool")
)

type (
	// ConfigurationError aborts a run that has neither an explicit tool path
	// nor auto-location enabled.
	ConfigurationError struct {
		Project Target
	}

	// NoTargetsError is returned when a run is started with an empty target list.
	NoTargetsError struct {
		Patterns []string
	}

	// LocatorExecutionError is returned when vswhere cannot be run or fails.
	LocatorExecutionError struct {
		Locator string
		Args    []string
		Err     error
	}

	// BuildFailureError is the run-aborting error produced when a build exits
	// non-zero under fail-fast.
	BuildFailureError struct {
		Project  Target
		ExitCode ExitCode
	}

	// SpawnError is returned when the build tool process could not be started
	// at all (missing executable, permission denied).
	SpawnError struct {
		Command string
		Project Target
		Err     error
	}
)

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("building %s: tool path not set; either set tool_path or enable auto_locate", e.Project.DisplayName())
}

// Unwrap returns ErrToolPathMissing so callers can use errors.Is for programmatic detection.
func (e *ConfigurationError) Unwrap() error { return ErrToolPathMissing }

// Error implements the error interface.
func (e *NoTargetsError) Error() string {
	if len(e.Patterns) == 0 {
		return ErrNoTargets.Error()
	}
	return fmt.Sprintf("%s matching %q", ErrNoTargets, e.Patterns)
}

// Unwrap returns ErrNoTargets so callers can use errors.Is for programmatic detection.
func (e *NoTargetsError) Unwrap() error { return ErrNoTargets }

// Error implements the error interface.
func (e *LocatorExecutionError) Error() string {
	return fmt.Sprintf("run %s: %v", e.Locator, e.Err)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *LocatorExecutionError) Unwrap() []error { return []error{ErrLocatorExecution, e.Err} }

// Error implements the error interface.
func (e *BuildFailureError) Error() string {
	return fmt.Sprintf("MSBuild exited with a failure code: %d (%s)", e.ExitCode, e.Project.DisplayName())
}

// Unwrap returns ErrBuildFailed so callers can use errors.Is for programmatic detection.
func (e *BuildFailureError) Unwrap() error { return ErrBuildFailed }

// Error implements the error interface.
func (e *SpawnError) Error() string {
	return fmt.Sprintf("start %s for %s: %v", e.Command, e.Project.DisplayName(), e.Err)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *SpawnError) Unwrap() []error { return []error{ErrSpawn, e.Err} }
