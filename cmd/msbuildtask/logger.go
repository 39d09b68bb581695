// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/msbuildtask/msbuildtask/internal/config"
)

// logPrefix tags every log line written during a build.
const logPrefix = "msbuild"

// newLogger builds the structured logger used by every component of a run.
func newLogger(w io.Writer, ui config.UIConfig) *log.Logger {
	opts := log.Options{
		Prefix: logPrefix,
		Level:  log.InfoLevel,
	}
	if ui.Verbose {
		opts.Level = log.DebugLevel
	}

	switch ui.LogFormat {
	case config.LogFormatJSON:
		opts.Formatter = log.JSONFormatter
	case config.LogFormatLogfmt:
		opts.Formatter = log.LogfmtFormatter
	default:
		opts.Formatter = log.TextFormatter
	}

	return log.NewWithOptions(w, opts)
}

// warnDeprecated logs one warning per deprecated key found in the config file.
func warnDeprecated(logger *log.Logger, cfg *config.Config) {
	for _, d := range cfg.Deprecated {
		logger.Warn("deprecated config key", "key", d.Key, "use", d.Replacement, "file", cfg.Source)
	}
}
