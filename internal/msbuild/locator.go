// SPDX-License-Identifier: MPL-2.0

package msbuild

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
)

const (
	// RequiredComponent is always part of the vswhere -requires list.
	RequiredComponent = "Microsoft.Component.MSBuild"
	// AnyProduct matches every Visual Studio edition.
	AnyProduct = "*"
	// FindPattern is the glob vswhere resolves inside the installation directory.
	FindPattern = `MSBuild\**\MSBuild.exe`

	locatorName = "vswhere"
)

type (
	// PathLocator finds the MSBuild executable.
	PathLocator interface {
		Locate(ctx context.Context, filters LocatorFilters) (string, error)
	}

	// OutputFunc runs name with args and returns its standard output.
	OutputFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

	// Locator asks vswhere for the newest installation providing MSBuild.
	Locator struct {
		logger Logger
		output OutputFunc
		lookup func(string) (string, error)
		getenv func(string) string
	}

	// LocatorOption configures a Locator.
	LocatorOption func(*Locator)
)

// WithLocatorOutput replaces the function used to run vswhere.
func WithLocatorOutput(fn OutputFunc) LocatorOption {
	return func(l *Locator) { l.output = fn }
}

// WithLocatorLookPath replaces exec.LookPath when discovering vswhere.
func WithLocatorLookPath(fn func(string) (string, error)) LocatorOption {
	return func(l *Locator) { l.lookup = fn }
}

// WithLocatorEnv replaces os.Getenv when computing the installer default path.
func WithLocatorEnv(fn func(string) string) LocatorOption {
	return func(l *Locator) { l.getenv = fn }
}

// NewLocator creates a Locator that runs the real vswhere executable.
func NewLocator(logger Logger, opts ...LocatorOption) *Locator {
	l := &Locator{
		logger: loggerOrDiscard(logger),
		output: runOutput,
		lookup: exec.LookPath,
		getenv: os.Getenv,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// QueryArgs assembles the vswhere argument list for filters:
//
//	-latest [-products <list>] -requires <list> [-version <v>] -find MSBuild\**\MSBuild.exe
//
// With neither products nor a version filter, products defaults to "*".
func QueryArgs(filters LocatorFilters) []string {
	args := []string{"-latest"}

	products := filters.Products
	if len(products) == 0 && filters.Version == "" {
		products = []string{AnyProduct}
	}
	if len(products) > 0 {
		args = append(args, "-products")
		args = append(args, products...)
	}

	args = append(args, "-requires")
	args = append(args, MergeRequires(filters.Requires)...)

	if filters.Version != "" {
		args = append(args, "-version", filters.Version)
	}

	return append(args, "-find", FindPattern)
}

// MergeRequires returns the caller's requirements followed by
// RequiredComponent, without duplicates and in first-seen order.
func MergeRequires(requires []string) []string {
	merged := make([]string, 0, len(requires)+1)
	for _, r := range append(slices.Clone(requires), RequiredComponent) {
		if r == "" || slices.Contains(merged, r) {
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// Locate runs vswhere and returns the first reported MSBuild path. An empty
// result is returned as "" without error; spawning it later is what fails.
func (l *Locator) Locate(ctx context.Context, filters LocatorFilters) (string, error) {
	exe, err := l.executable(filters.Path)
	if err != nil {
		return "", &LocatorExecutionError{Locator: locatorName, Err: err}
	}

	args := QueryArgs(filters)
	l.logger.Debug("inferring msbuild path", "locator", exe, "args", strings.Join(args, " "))

	out, err := l.output(ctx, exe, args...)
	if err != nil {
		return "", &LocatorExecutionError{Locator: exe, Args: args, Err: err}
	}
	l.logger.Debug("locator output", "output", string(out))

	first, _, _ := strings.Cut(string(out), "\r")
	// Non-Windows builds of vswhere terminate lines with a bare "\n".
	first, _, _ = strings.Cut(first, "\n")
	path := normalizePath(strings.TrimSpace(first))

	l.logger.Debug("located msbuild", "path", path)
	return path, nil
}

// executable picks the vswhere binary: an explicit path, vswhere on PATH, or
// the Visual Studio Installer default location.
func (l *Locator) executable(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if p, err := l.lookup(locatorName); err == nil {
		return p, nil
	}
	if pf := l.getenv("ProgramFiles(x86)"); pf != "" {
		return filepath.Join(pf, "Microsoft Visual Studio", "Installer", "vswhere.exe"), nil
	}
	return "", errors.New("vswhere not found on PATH and ProgramFiles(x86) is not set")
}

func runOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return out, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return out, err
	}
	return out, nil
}
