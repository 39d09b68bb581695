// SPDX-License-Identifier: MPL-2.0

// Package config resolves msbuildtask configuration using Viper with CUE as the file format.
//
// Values are layered, lowest precedence first: the built-in defaults table, the CUE file
// (./msbuild.cue, or config.cue in the user config directory: $XDG_CONFIG_HOME/msbuildtask
// on Linux, ~/Library/Application Support/msbuildtask on macOS, %APPDATA%\msbuildtask on
// Windows, or $MSBUILDTASK_CONFIG_DIR), MSBUILDTASK_* environment variables, and finally
// command-line overrides.
//
// Files are validated against config_schema.cue before they are merged. Build properties
// bypass Viper, which folds key case, and keep the order they were declared in.
package config
