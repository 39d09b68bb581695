// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/msbuildtask/msbuildtask/internal/config"
	"github.com/msbuildtask/msbuildtask/internal/issue"
	"github.com/msbuildtask/msbuildtask/internal/msbuild"
)

// issueRenderStyle picks the dark or notty glamour style from the terminal.
const issueRenderStyle = "auto"

type (
	// App wires CLI services and shared dependencies. It is the composition root for
	// the CLI layer; all Cobra command handlers receive an App reference.
	App struct {
		Config     ConfigProvider
		NewRunner  RunnerFactory
		NewLocator LocatorFactory
		stdout     io.Writer
		stderr     io.Writer
		flags      globalFlags
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config     ConfigProvider
		NewRunner  RunnerFactory
		NewLocator LocatorFactory
		Stdout     io.Writer
		Stderr     io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// RunnerFactory creates the process runner for one command invocation.
	// The build tool's output goes to stdout and stderr.
	RunnerFactory func(logger msbuild.Logger, stdout, stderr io.Writer) msbuild.ProcessRunner

	// LocatorFactory creates the MSBuild locator for one command invocation.
	LocatorFactory func(logger msbuild.Logger) msbuild.PathLocator
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.NewRunner == nil {
		deps.NewRunner = newExecRunner
	}
	if deps.NewLocator == nil {
		deps.NewLocator = func(logger msbuild.Logger) msbuild.PathLocator {
			return msbuild.NewLocator(logger)
		}
	}

	return &App{
		Config:     deps.Config,
		NewRunner:  deps.NewRunner,
		NewLocator: deps.NewLocator,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
	}, nil
}

func newExecRunner(logger msbuild.Logger, stdout, stderr io.Writer) msbuild.ProcessRunner {
	r := msbuild.NewExecRunner(logger)
	r.Stdout = stdout
	r.Stderr = stderr
	return r
}

// loadConfig resolves the configuration for cmd. The persistent flags and
// values are applied as overrides on top of files and environment.
func (a *App) loadConfig(cmd *cobra.Command, overrides config.Overrides) (*config.Config, error) {
	values := make(map[string]any, len(overrides.Values)+2)
	maps.Copy(values, overrides.Values)
	if cmd.Flags().Changed("verbose") {
		values["ui.verbose"] = a.flags.verbose
	}
	if cmd.Flags().Changed("log-format") {
		values["ui.log_format"] = a.flags.logFormat
	}
	overrides.Values = values

	cfg, err := a.Config.Load(cmd.Context(), config.LoadOptions{
		ConfigFilePath: a.flags.configPath,
		Overrides:      overrides,
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// handleError renders errors returned by the command tree. ActionableErrors
// get their suggestions and the matching issue catalog entry; anything else
// goes through fang's default handler.
func (a *App) handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		fang.DefaultErrorHandler(w, styles, err)
		return
	}

	fmt.Fprintf(w, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, a.flags.verbose))

	id, ok := issue.IssueOf(err)
	if !ok {
		return
	}
	if entry := issue.Get(id); entry != nil {
		rendered, renderErr := entry.Render(issueRenderStyle)
		if renderErr != nil {
			log.Warn("failed to render issue catalog entry", "issue", id, "err", renderErr)
			return
		}
		fmt.Fprint(w, rendered)
	}
}
