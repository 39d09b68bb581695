// SPDX-License-Identifier: MPL-2.0

package msbuild

import (
	"errors"
	"fmt"
	"slices"
)

const (
	// VerbosityQuiet only reports errors.
	VerbosityQuiet Verbosity = "quiet"
	// VerbosityMinimal reports errors, warnings and a short summary.
	VerbosityMinimal Verbosity = "minimal"
	// VerbosityNormal is MSBuild's default level.
	VerbosityNormal Verbosity = "normal"
	// VerbosityDetailed adds target and task details.
	VerbosityDetailed Verbosity = "detailed"
	// VerbosityDiagnostic logs everything.
	VerbosityDiagnostic Verbosity = "diagnostic"

	// DefaultConfiguration is the project configuration built when none is given.
	DefaultConfiguration = "Release"
	// DefaultTarget is the MSBuild target run when none is given.
	DefaultTarget = "Build"
)

var (
	// ErrInvalidVerbosity is the sentinel error wrapped by InvalidVerbosityError.
	ErrInvalidVerbosity = errors.New("invalid verbosity")

	// ErrInvalidOptions is the sentinel error wrapped by InvalidOptionsError.
	ErrInvalidOptions = errors.New("invalid build options")
)

type (
	// Verbosity is an MSBuild logger verbosity level.
	Verbosity string

	// InvalidVerbosityError is returned when a Verbosity is not one of the
	// five levels MSBuild accepts.
	InvalidVerbosityError struct {
		Value Verbosity
	}

	// InvalidOptionsError collects field-level problems found by Options.Validate.
	InvalidOptionsError struct {
		FieldErrors []error
	}

	// LocatorFilters narrow the vswhere query used to find MSBuild.
	LocatorFilters struct {
		// Path is the vswhere executable. Empty means discover it.
		Path string `mapstructure:"path"`
		// Products restricts matching Visual Studio products (e.g. "Community").
		Products []string `mapstructure:"products"`
		// Requires lists workload/component IDs an installation must have.
		// Microsoft.Component.MSBuild is always added.
		Requires []string `mapstructure:"requires"`
		// Version is a vswhere version range such as "[16.0,17.0)".
		Version string `mapstructure:"version"`
	}

	// Options is a fully resolved build configuration. Values are produced by
	// internal/config and are not modified afterwards.
	Options struct {
		ToolPath                string         `mapstructure:"tool_path"`
		AutoLocate              bool           `mapstructure:"auto_locate"`
		Locator                 LocatorFilters `mapstructure:"locator"`
		Configuration           string         `mapstructure:"configuration"`
		Targets                 []string       `mapstructure:"targets"`
		Platform                string         `mapstructure:"platform"`
		Verbosity               Verbosity      `mapstructure:"verbosity"`
		MaxParallelism          int            `mapstructure:"max_parallelism"`
		ConsoleLoggerParameters string         `mapstructure:"console_logger_parameters"`
		ReuseProcesses          bool           `mapstructure:"reuse_processes"`
		ToolsetVersion          string         `mapstructure:"toolset_version"`
		SuppressBanner          bool           `mapstructure:"suppress_banner"`
		FailFast                bool           `mapstructure:"fail_fast"`
		ExtraArgs               []string       `mapstructure:"extra_args"`

		// Properties are decoded separately because viper folds key case.
		Properties Properties `mapstructure:"-"`
	}
)

// Verbosities returns the accepted verbosity levels, least to most verbose.
func Verbosities() []Verbosity {
	return []Verbosity{VerbosityQuiet, VerbosityMinimal, VerbosityNormal, VerbosityDetailed, VerbosityDiagnostic}
}

// Error implements the error interface.
func (e *InvalidVerbosityError) Error() string {
	return fmt.Sprintf("invalid verbosity %q (must be one of quiet, minimal, normal, detailed, diagnostic)", string(e.Value))
}

// Unwrap returns ErrInvalidVerbosity so callers can use errors.Is for programmatic detection.
func (e *InvalidVerbosityError) Unwrap() error { return ErrInvalidVerbosity }

// Validate returns an error if the Verbosity is not a recognised level.
func (v Verbosity) Validate() error {
	if slices.Contains(Verbosities(), v) {
		return nil
	}
	return &InvalidVerbosityError{Value: v}
}

// String returns the string representation of the Verbosity.
func (v Verbosity) String() string { return string(v) }

// Error implements the error interface.
func (e *InvalidOptionsError) Error() string {
	return fmt.Sprintf("invalid build options: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidOptions and the field errors so callers can use
// errors.Is for programmatic detection.
func (e *InvalidOptionsError) Unwrap() []error {
	return append([]error{ErrInvalidOptions}, e.FieldErrors...)
}

// DefaultOptions returns the defaults table every resolved Options starts from.
func DefaultOptions() Options {
	return Options{
		Configuration:  DefaultConfiguration,
		Targets:        []string{DefaultTarget},
		Verbosity:      VerbosityNormal,
		ReuseProcesses: true,
		SuppressBanner: true,
		FailFast:       true,
	}
}

// Validate checks the values the argument builder cannot render sensibly.
// It does not check tool path availability; that is a per-run concern of the
// Orchestrator.
func (o Options) Validate() error {
	var errs []error
	if err := o.Verbosity.Validate(); err != nil {
		errs = append(errs, err)
	}
	if o.MaxParallelism < 0 {
		errs = append(errs, fmt.Errorf("max_parallelism must not be negative, got %d", o.MaxParallelism))
	}
	if len(o.Targets) == 0 {
		errs = append(errs, errors.New("targets must not be empty"))
	}
	if len(errs) > 0 {
		return &InvalidOptionsError{FieldErrors: errs}
	}
	return nil
}

// HasLocatorFilters reports whether any vswhere filter was configured.
func (f LocatorFilters) HasLocatorFilters() bool {
	return len(f.Products) > 0 || len(f.Requires) > 0 || f.Version != ""
}
