// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/msbuildtask/msbuildtask/internal/msbuild"
)

const (
	// LogFormatText is charmbracelet/log's human-readable output.
	LogFormatText LogFormat = "text"
	// LogFormatJSON emits one JSON object per log line.
	LogFormatJSON LogFormat = "json"
	// LogFormatLogfmt emits logfmt key=value lines.
	LogFormatLogfmt LogFormat = "logfmt"
)

var (
	// ErrInvalidLogFormat is the sentinel error wrapped by InvalidLogFormatError.
	ErrInvalidLogFormat = errors.New("invalid log format")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogFormat selects the log line encoding.
	LogFormat string

	// InvalidLogFormatError is returned when a LogFormat value is not recognized.
	InvalidLogFormatError struct {
		Value LogFormat
	}

	// InvalidConfigError collects field-level validation errors of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the complete resolved configuration.
	Config struct {
		Build BuildConfig `mapstructure:"build"`
		UI    UIConfig    `mapstructure:"ui"`
		Watch WatchConfig `mapstructure:"watch"`

		// Deprecated lists the deprecated keys found in the config file, each
		// with the key it was mapped to.
		Deprecated []DeprecatedKey `mapstructure:"-"`
		// Source is the file the config was read from, "" for defaults only.
		Source string `mapstructure:"-"`
	}

	// BuildConfig holds the resolved build options plus the project patterns
	// that select what to build.
	BuildConfig struct {
		msbuild.Options `mapstructure:",squash"`

		// Projects are file patterns used when none are given on the command line.
		Projects []string `mapstructure:"projects"`
	}

	// UIConfig controls log output.
	UIConfig struct {
		Verbose   bool      `mapstructure:"verbose"`
		LogFormat LogFormat `mapstructure:"log_format"`
	}

	// WatchConfig configures `build --watch`.
	WatchConfig struct {
		// Patterns select files whose changes trigger a rebuild. Empty means all.
		Patterns []string `mapstructure:"patterns"`
		// Ignore are extra patterns added to the built-in ignores.
		Ignore []string `mapstructure:"ignore"`
		// Debounce is the quiet period before a rebuild starts.
		Debounce time.Duration `mapstructure:"debounce"`
	}

	// DeprecatedKey records a deprecated configuration key and its replacement.
	DeprecatedKey struct {
		Key         string
		Replacement string
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Build: BuildConfig{Options: msbuild.DefaultOptions()},
		UI: UIConfig{
			LogFormat: LogFormatText,
		},
		Watch: WatchConfig{
			Patterns: []string{"**/*.cs", "**/*.csproj", "**/*.sln", "**/*.props", "**/*.targets"},
			Debounce: 500 * time.Millisecond,
		},
	}
}

// Error implements the error interface.
func (e *InvalidLogFormatError) Error() string {
	return fmt.Sprintf("invalid log format %q (must be one of text, json, logfmt)", string(e.Value))
}

// Unwrap returns ErrInvalidLogFormat so callers can use errors.Is for programmatic detection.
func (e *InvalidLogFormatError) Unwrap() error { return ErrInvalidLogFormat }

// Validate returns an error if the LogFormat is not a recognised encoding.
func (f LogFormat) Validate() error {
	if slices.Contains([]LogFormat{LogFormatText, LogFormatJSON, LogFormatLogfmt}, f) {
		return nil
	}
	return &InvalidLogFormatError{Value: f}
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig and the field errors so callers can use
// errors.Is for programmatic detection.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Validate checks every section of the configuration.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Build.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.UI.LogFormat.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}
