// SPDX-License-Identifier: MPL-2.0

package msbuild

import (
	"os"
	"path/filepath"
	"strconv"
)

const (
	// StatusSucceeded means the tool exited with code 0.
	StatusSucceeded Status = "succeeded"
	// StatusFailed means the tool exited with a non-zero code.
	StatusFailed Status = "failed"
	// StatusSkipped is the silent no-op taken when no tool command was resolved.
	// Nothing was spawned and nothing is reported as a failure.
	StatusSkipped Status = "skipped"
)

type (
	// Target is a project or solution file to build. The empty Target means
	// "the current directory"; MSBuild then picks the project itself.
	Target string

	// ExitCode is a process exit status. The zero value means success.
	ExitCode int

	// Status classifies how a single target's build ended.
	Status string

	// Outcome is the result of building one Target.
	Outcome struct {
		Project  Target
		Command  string
		ExitCode ExitCode
		Status   Status
	}

	// Summary accumulates outcomes in the order the targets were built.
	Summary struct {
		Outcomes []Outcome
	}
)

// IsWorkingDir reports whether t is the "current directory" sentinel.
func (t Target) IsWorkingDir() bool { return t == "" }

// DisplayName is the name used in log lines: the path itself, or the name of
// the working directory for the sentinel target.
func (t Target) DisplayName() string {
	if !t.IsWorkingDir() {
		return string(t)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return filepath.Base(wd)
}

// String returns the target path.
func (t Target) String() string { return string(t) }

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }

// Succeeded reports whether the build ran and exited with code 0.
func (o Outcome) Succeeded() bool { return o.Status == StatusSucceeded }

// Add appends an outcome.
func (s *Summary) Add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
}

// Failed returns the outcomes whose build exited non-zero.
func (s Summary) Failed() []Outcome {
	var out []Outcome
	for _, o := range s.Outcomes {
		if o.Status == StatusFailed {
			out = append(out, o)
		}
	}
	return out
}

// Count returns how many outcomes have the given status.
func (s Summary) Count(status Status) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}
