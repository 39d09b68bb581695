// SPDX-License-Identifier: MPL-2.0

package msbuild

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
)

type (
	// fakeRunner records invocations and returns scripted exit codes.
	fakeRunner struct {
		codes map[Target]ExitCode
		calls []fakeCall
		err   error
	}

	fakeCall struct {
		command string
		args    []string
		project Target
	}

	fakeLocator struct {
		path  string
		err   error
		calls int
	}
)

func (f *fakeRunner) Run(command string, args []string, project Target) (Outcome, error) {
	f.calls = append(f.calls, fakeCall{command: command, args: args, project: project})
	if f.err != nil {
		return Outcome{Project: project, Command: command}, f.err
	}
	if command == "" {
		return Outcome{Project: project, Status: StatusSkipped}, nil
	}
	code := f.codes[project]
	status := StatusSucceeded
	if code != 0 {
		status = StatusFailed
	}
	return Outcome{Project: project, Command: command, ExitCode: code, Status: status}, nil
}

func (f *fakeRunner) projects() []Target {
	out := make([]Target, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.project
	}
	return out
}

func (f *fakeLocator) Locate(context.Context, LocatorFilters) (string, error) {
	f.calls++
	return f.path, f.err
}

func toolOptions() Options {
	opts := DefaultOptions()
	opts.ToolPath = "msbuild"
	return opts
}

func TestOrchestrator_Sequencing(t *testing.T) {
	t.Parallel()

	targets := []Target{"one.csproj", "two.csproj", "three.csproj"}

	tests := []struct {
		name         string
		failFast     bool
		wantProjects []Target
		wantErr      error
	}{
		{
			name:         "continue after failure",
			failFast:     false,
			wantProjects: targets,
		},
		{
			name:         "fail fast stops before third project",
			failFast:     true,
			wantProjects: targets[:2],
			wantErr:      ErrBuildFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := &fakeRunner{codes: map[Target]ExitCode{"two.csproj": 1}}
			opts := toolOptions()
			opts.FailFast = tt.failFast

			summary, err := NewOrchestrator(runner, nil, nil).Run(context.Background(), targets, opts)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.wantProjects, runner.projects()); diff != "" {
				t.Errorf("runner invocations mismatch (-want +got):\n%s", diff)
			}
			if len(summary.Outcomes) != len(tt.wantProjects) {
				t.Errorf("summary has %d outcomes, want %d", len(summary.Outcomes), len(tt.wantProjects))
			}
			if got := len(summary.Failed()); got != 1 {
				t.Errorf("summary.Failed() = %d, want 1", got)
			}
		})
	}
}

func TestOrchestrator_FailFastErrorCarriesProject(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{codes: map[Target]ExitCode{"a.sln": 42}}
	_, err := NewOrchestrator(runner, nil, nil).Run(context.Background(), []Target{"a.sln"}, toolOptions())

	var buildErr *BuildFailureError
	if !errors.As(err, &buildErr) {
		t.Fatalf("Run() error is %T, want *BuildFailureError", err)
	}
	if buildErr.Project != "a.sln" || buildErr.ExitCode != 42 {
		t.Errorf("BuildFailureError = %+v, want project a.sln code 42", buildErr)
	}
}

func TestOrchestrator_NoTargets(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	runner := &fakeRunner{}
	_, err := NewOrchestrator(runner, nil, log.New(&logs)).Run(context.Background(), nil, toolOptions())

	if !errors.Is(err, ErrNoTargets) {
		t.Fatalf("Run() error = %v, want ErrNoTargets", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("runner invoked %d times, want 0", len(runner.calls))
	}
	if n := strings.Count(logs.String(), "no project or solution files found"); n != 1 {
		t.Errorf("no-targets condition logged %d times, want 1", n)
	}
}

func TestOrchestrator_ConfigurationError(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	opts := DefaultOptions()

	_, err := NewOrchestrator(runner, &fakeLocator{}, nil).Run(context.Background(), []Target{"a.sln", "b.sln"}, opts)
	if !errors.Is(err, ErrToolPathMissing) {
		t.Fatalf("Run() error = %v, want ErrToolPathMissing", err)
	}
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Project != "a.sln" {
		t.Errorf("ConfigurationError should name the first project, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("runner invoked %d times, want 0", len(runner.calls))
	}
}

func TestOrchestrator_AutoLocate(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	locator := &fakeLocator{path: `C:\VS\MSBuild.exe`}
	opts := DefaultOptions()
	opts.AutoLocate = true

	summary, err := NewOrchestrator(runner, locator, nil).Run(context.Background(), []Target{"a.sln", "b.sln"}, opts)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if locator.calls != 1 {
		t.Errorf("locator called %d times, want 1", locator.calls)
	}
	for _, c := range runner.calls {
		if c.command != `C:\VS\MSBuild.exe` {
			t.Errorf("runner command = %q, want located path", c.command)
		}
	}
	if got := summary.Count(StatusSucceeded); got != 2 {
		t.Errorf("succeeded = %d, want 2", got)
	}
}

func TestOrchestrator_ExplicitToolPathWinsOverAutoLocate(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	runner := &fakeRunner{}
	locator := &fakeLocator{path: "located"}
	opts := toolOptions()
	opts.AutoLocate = true
	opts.Locator.Products = []string{"Community"}

	if _, err := NewOrchestrator(runner, locator, log.New(&logs)).Run(context.Background(), []Target{"a.sln", "b.sln"}, opts); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if locator.calls != 0 {
		t.Errorf("locator called %d times, want 0", locator.calls)
	}
	if runner.calls[0].command != "msbuild" {
		t.Errorf("runner command = %q, want msbuild", runner.calls[0].command)
	}
	if n := strings.Count(logs.String(), "products filter is ignored"); n != 1 {
		t.Errorf("ignored-filter warning logged %d times, want 1", n)
	}
}

func TestOrchestrator_LocatorFailureAborts(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	locErr := &LocatorExecutionError{Locator: "vswhere", Err: errors.New("boom")}
	opts := DefaultOptions()
	opts.AutoLocate = true

	_, err := NewOrchestrator(runner, &fakeLocator{err: locErr}, nil).Run(context.Background(), []Target{"a.sln"}, opts)
	if !errors.Is(err, ErrLocatorExecution) {
		t.Fatalf("Run() error = %v, want ErrLocatorExecution", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("runner invoked %d times, want 0", len(runner.calls))
	}
}

func TestOrchestrator_NilLocator(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.AutoLocate = true
	_, err := NewOrchestrator(&fakeRunner{}, nil, nil).Run(context.Background(), []Target{""}, opts)
	if !errors.Is(err, ErrLocatorExecution) {
		t.Errorf("Run() error = %v, want ErrLocatorExecution", err)
	}
}

func TestOrchestrator_EmptyLocatedPathIsSkipped(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	opts := DefaultOptions()
	opts.AutoLocate = true

	summary, err := NewOrchestrator(runner, &fakeLocator{}, nil).Run(context.Background(), []Target{"a.sln", "b.sln"}, opts)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := summary.Count(StatusSkipped); got != 2 {
		t.Errorf("skipped = %d, want 2", got)
	}
	if len(runner.calls) != 2 {
		t.Errorf("runner invoked %d times, want 2", len(runner.calls))
	}
}

func TestOrchestrator_SpawnErrorAborts(t *testing.T) {
	t.Parallel()

	spawnErr := &SpawnError{Command: "msbuild", Err: errors.New("not found")}
	runner := &fakeRunner{err: spawnErr}
	opts := toolOptions()
	opts.FailFast = false

	_, err := NewOrchestrator(runner, nil, nil).Run(context.Background(), []Target{"a.sln", "b.sln"}, opts)
	if !errors.Is(err, ErrSpawn) {
		t.Fatalf("Run() error = %v, want ErrSpawn", err)
	}
	if len(runner.calls) != 1 {
		t.Errorf("runner invoked %d times, want 1", len(runner.calls))
	}
}

func TestOrchestrator_UsesArgBuilder(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	opts := toolOptions()
	opts.MaxParallelism = 2

	o := NewOrchestrator(runner, nil, nil, WithArgBuilder(ArgBuilder{GOOS: HostWindows}))
	if _, err := o.Run(context.Background(), []Target{"a.sln"}, opts); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := ArgBuilder{GOOS: HostWindows}.Build("a.sln", opts)
	if diff := cmp.Diff(want, runner.calls[0].args); diff != "" {
		t.Errorf("runner args mismatch (-want +got):\n%s", diff)
	}
}
