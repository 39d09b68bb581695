// SPDX-License-Identifier: MPL-2.0

// Package issue holds the troubleshooting catalog for build failures and the
// ActionableError type that points at it.
//
// Every failure class the CLI knows about (missing tool path, no projects,
// vswhere failure, spawn failure, failed build, bad config, bad options) has
// a catalog entry rendered as Markdown with glamour. Errors carry the entry's
// Id so the CLI can print the guide next to the short error message.
package issue
