// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for msbuildtask.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/msbuildtask/msbuildtask/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	verbose    bool
	logFormat  string
}

// NewRootCommand creates the msbuildtask command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "msbuildtask",
		Short: "Run MSBuild against projects and solutions",
		Long: TitleStyle.Render("msbuildtask") + SubtitleStyle.Render(" - Run MSBuild against projects and solutions") + `

msbuildtask resolves build options from msbuild.cue, the user config file,
MSBUILDTASK_* environment variables and flags, finds MSBuild (explicitly or
through vswhere) and builds every matching project in order.

` + SubtitleStyle.Render("Examples:") + `
  msbuildtask build                         Build the project in the current directory
  msbuildtask build 'src/**/*.csproj'       Build every matching project
  msbuildtask build -c Debug -P Version=1.2 Build with overrides
  msbuildtask build --watch                 Rebuild on source changes
  msbuildtask args app.sln                  Print the MSBuild command line
  msbuildtask locate                        Print the MSBuild found by vswhere
  msbuildtask config show                   Show the resolved configuration`,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&app.flags.configPath, "config", "", "config file (default is ./msbuild.cue, then the user config)")
	pf.BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&app.flags.logFormat, "log-format", "", "log format: text, json or logfmt")

	root.AddCommand(
		newBuildCommand(app),
		newArgsCommand(app),
		newLocateCommand(app),
		newConfigCommand(app),
		newIssueCommand(app),
	)
	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI with the process arguments and exits with its status.
// This is called by main.main().
func Execute() {
	os.Exit(Run(context.Background(), os.Args[1:], Dependencies{}))
}

// Run executes the command tree with args and returns the process exit code.
func Run(ctx context.Context, args []string, deps Dependencies) int {
	app, err := NewApp(deps)
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error:"), err)
		return 1
	}

	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(app.stdout)
	root.SetErr(app.stderr)

	err = fang.Execute(
		ctx,
		root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(app.handleError),
	)
	return exitCode(err)
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
