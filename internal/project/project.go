// SPDX-License-Identifier: MPL-2.0

// Package project turns project and solution file patterns into an ordered
// list of build targets.
//
// Patterns use doublestar syntax ("src/**/*.csproj"). A pattern starting with
// "!" removes every file matched by earlier patterns that it also matches.
// Results keep the order in which files were first matched.
package project

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/msbuildtask/msbuildtask/internal/msbuild"
)

// negationPrefix marks a pattern that removes earlier matches.
const negationPrefix = "!"

// ErrInvalidPattern is the sentinel error wrapped by InvalidPatternError.
var ErrInvalidPattern = errors.New("invalid project pattern")

// InvalidPatternError is returned when a pattern is not valid doublestar syntax.
type InvalidPatternError struct {
	Pattern string
}

// Error implements the error interface.
func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid project pattern %q", e.Pattern)
}

// Unwrap returns ErrInvalidPattern so callers can use errors.Is for programmatic detection.
func (e *InvalidPatternError) Unwrap() error { return ErrInvalidPattern }

// Expand resolves patterns against baseDir.
//
// With no patterns at all it returns a single working-directory target so
// MSBuild picks the project in the current directory. Patterns that match no
// file yield an empty, non-nil list.
func Expand(baseDir string, patterns []string) ([]msbuild.Target, error) {
	if len(patterns) == 0 {
		return []msbuild.Target{""}, nil
	}

	var (
		order []string
		seen  = make(map[string]bool)
	)
	for _, raw := range patterns {
		pattern, negate := strings.CutPrefix(raw, negationPrefix)
		pattern = cleanPattern(pattern)
		if pattern == "" || !doublestar.ValidatePattern(pattern) {
			return nil, &InvalidPatternError{Pattern: raw}
		}

		if negate {
			kept := order[:0]
			for _, m := range order {
				if doublestar.MatchUnvalidated(pattern, m) {
					delete(seen, m)
					continue
				}
				kept = append(kept, m)
			}
			order = kept
			continue
		}

		matches, err := glob(baseDir, pattern)
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", raw, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				order = append(order, m)
			}
		}
	}

	targets := make([]msbuild.Target, 0, len(order))
	for _, m := range order {
		targets = append(targets, msbuild.Target(filepath.FromSlash(m)))
	}
	return targets, nil
}

// cleanPattern converts a pattern to the slash-separated, cleaned form
// doublestar expects. Leading "./" is dropped.
func cleanPattern(p string) string {
	p = filepath.ToSlash(strings.TrimSpace(p))
	if p == "" {
		return ""
	}
	return path.Clean(p)
}

// glob returns the slash-separated files matching pattern. Relative patterns
// are matched below baseDir and returned relative to it; absolute patterns
// return absolute paths.
func glob(baseDir, pattern string) ([]string, error) {
	relative := !path.IsAbs(pattern) && !filepath.IsAbs(filepath.FromSlash(pattern)) && baseDir != ""
	full := pattern
	if relative {
		full = path.Join(filepath.ToSlash(baseDir), pattern)
	}

	matches, err := doublestar.FilepathGlob(full, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	for i, m := range matches {
		if relative {
			if rel, relErr := filepath.Rel(baseDir, m); relErr == nil {
				m = rel
			}
		}
		matches[i] = filepath.ToSlash(m)
	}
	return matches, nil
}
