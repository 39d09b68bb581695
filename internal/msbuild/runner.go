// SPDX-License-Identifier: MPL-2.0

package msbuild

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
)

type (
	// ProcessRunner runs one build tool invocation to completion.
	ProcessRunner interface {
		Run(command string, args []string, project Target) (Outcome, error)
	}

	// ExecRunner spawns the build tool as a child process whose standard
	// streams are the runner's own, so the tool's progress output is live.
	ExecRunner struct {
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
		// Env is the child environment; nil inherits the current process's.
		Env []string
		// Dir is the child working directory; empty means the current one.
		Dir string

		logger Logger
	}
)

// NewExecRunner creates an ExecRunner wired to os.Stdin, os.Stdout and os.Stderr.
func NewExecRunner(logger Logger) *ExecRunner {
	return &ExecRunner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		logger: loggerOrDiscard(logger),
	}
}

// Run starts command with args and waits for it to exit. There is no timeout
// and no cancellation: the tool runs until it exits or the host is killed.
//
// An empty command returns a StatusSkipped outcome without spawning anything.
// A non-zero exit is reported through the Outcome, not the error; the error is
// reserved for processes that could not be started.
func (r *ExecRunner) Run(command string, args []string, project Target) (Outcome, error) {
	logger := loggerOrDiscard(r.logger)
	outcome := Outcome{Project: project, Command: command}

	if command == "" {
		logger.Warn("no msbuild command resolved, skipping", "project", project.DisplayName())
		outcome.Status = StatusSkipped
		return outcome, nil
	}

	logger.Debug("using cmd", "cmd", command)
	logger.Debug("using args", "args", strings.Join(args, " "))

	cmd := exec.Command(command, args...) //nolint:gosec,noctx // the tool path is user configuration; builds are not cancellable
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	cmd.Env = r.Env
	cmd.Dir = r.Dir

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return outcome, &SpawnError{Command: command, Project: project, Err: err}
		}
		outcome.ExitCode = ExitCode(exitErr.ExitCode())
	}

	logger.Debug("close received", "code", outcome.ExitCode.String())

	if outcome.ExitCode.IsSuccess() {
		outcome.Status = StatusSucceeded
		logger.Info("build complete", "project", project.DisplayName())
	} else {
		outcome.Status = StatusFailed
		logger.Error("MSBuild failed", "code", outcome.ExitCode.String(), "project", project.DisplayName())
	}
	return outcome, nil
}
