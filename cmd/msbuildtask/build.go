// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/msbuildtask/msbuildtask/internal/config"
	"github.com/msbuildtask/msbuildtask/internal/issue"
	"github.com/msbuildtask/msbuildtask/internal/msbuild"
	"github.com/msbuildtask/msbuildtask/internal/project"
	"github.com/msbuildtask/msbuildtask/internal/watch"
)

// buildRequest captures everything one build run needs after flag parsing.
type buildRequest struct {
	cfg      *config.Config
	patterns []string
	logger   *log.Logger
}

// newBuildCommand creates the `msbuildtask build` command.
func newBuildCommand(app *App) *cobra.Command {
	var (
		flags   buildFlags
		watchOn bool
	)

	cmd := &cobra.Command{
		Use:   "build [pattern...]",
		Short: "Build projects and solutions with MSBuild",
		Long: `Build projects and solutions with MSBuild.

Patterns select project or solution files using doublestar syntax; a leading
'!' removes earlier matches. Without patterns the build.projects config value
is used, and without that MSBuild builds the project in the current directory.`,
		Example: `  msbuildtask build
  msbuildtask build app.sln -c Debug
  msbuildtask build 'src/**/*.csproj' '!**/*.Tests.csproj'
  msbuildtask build --auto-locate --vs-version '[17.0,18.0)'
  msbuildtask build -P Version=1.2.3 --extra-args /restore --extra-args /bl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := flags.overrides(cmd.Flags())
			if err != nil {
				return err
			}
			cfg, err := app.loadConfig(cmd, overrides)
			if err != nil {
				return err
			}

			req := buildRequest{cfg: cfg, patterns: args, logger: newLogger(app.stderr, cfg.UI)}
			if len(req.patterns) == 0 {
				req.patterns = cfg.Build.Projects
			}
			warnDeprecated(req.logger, cfg)

			if watchOn {
				return app.watchBuild(cmd.Context(), req)
			}
			return app.build(cmd.Context(), req)
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().BoolVarP(&watchOn, "watch", "w", false, "rebuild whenever source files change")
	return cmd
}

// build expands the project patterns and runs every target through the
// orchestrator, printing a summary of the outcomes.
func (a *App) build(ctx context.Context, req buildRequest) error {
	targets, err := project.Expand("", req.patterns)
	if err != nil {
		return classifyBuildError(err)
	}
	if len(targets) == 0 {
		return classifyBuildError(&msbuild.NoTargetsError{Patterns: req.patterns})
	}
	req.logger.Debug("expanded project patterns", "patterns", req.patterns, "targets", len(targets))

	orch := msbuild.NewOrchestrator(
		a.NewRunner(req.logger, a.stdout, a.stderr),
		a.NewLocator(req.logger),
		req.logger,
	)
	summary, err := orch.Run(ctx, targets, req.cfg.Build.Options)
	renderSummary(a.stdout, summary)
	if err != nil {
		return classifyBuildError(err)
	}
	return nil
}

// watchBuild builds once, then rebuilds on every settled batch of source
// changes until ctx is cancelled. Build failures are logged, not returned.
func (a *App) watchBuild(ctx context.Context, req buildRequest) error {
	rebuild := func(ctx context.Context, _ []string) error {
		return a.build(ctx, req)
	}

	w, err := watch.New(watch.Config{
		Patterns: req.cfg.Watch.Patterns,
		Ignore:   req.cfg.Watch.Ignore,
		Debounce: req.cfg.Watch.Debounce,
		Rebuild:  rebuild,
		Logger:   req.logger,
	})
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("start watcher").
			WithIssue(issue.InvalidOptionsId).
			WithSuggestion("Check the watch.patterns and watch.ignore config values").
			Wrap(err).
			BuildError()
	}

	if err := rebuild(ctx, nil); err != nil {
		req.logger.Error("build failed", "err", err)
	}
	return w.Run(ctx)
}

// classifyBuildError maps orchestrator and expansion failures to issue catalog
// IDs, suggestions and exit codes.
func classifyBuildError(err error) error {
	ec := issue.NewErrorContext().Wrap(err)
	code := exitFailure

	var (
		noTargets *msbuild.NoTargetsError
		locErr    *msbuild.LocatorExecutionError
		buildErr  *msbuild.BuildFailureError
		spawnErr  *msbuild.SpawnError
		cfgErr    *msbuild.ConfigurationError
	)
	switch {
	case errors.As(err, &cfgErr):
		ec.WithOperation("resolve msbuild").
			WithResource(cfgErr.Project.DisplayName()).
			WithIssue(issue.ToolPathMissingId).
			WithSuggestions("Set build.tool_path or pass --tool-path", "Enable build.auto_locate or pass --auto-locate")
	case errors.As(err, &noTargets):
		ec.WithOperation("find projects").
			WithIssue(issue.NoTargetsId).
			WithSuggestion("Check the patterns passed on the command line or in build.projects")
	case errors.Is(err, project.ErrInvalidPattern):
		ec.WithOperation("expand project patterns").
			WithIssue(issue.NoTargetsId).
			WithSuggestion("Patterns use doublestar syntax, e.g. 'src/**/*.csproj'")
	case errors.As(err, &locErr):
		ec.WithOperation("locate msbuild").
			WithResource(locErr.Locator).
			WithIssue(issue.LocatorFailedId).
			WithSuggestions("Install the Visual Studio Installer or set build.locator.path", "Or set build.tool_path explicitly")
	case errors.As(err, &spawnErr):
		ec.WithOperation("start msbuild").
			WithResource(spawnErr.Command).
			WithIssue(issue.SpawnFailedId).
			WithSuggestion("Check that the tool path exists and is executable")
	case errors.As(err, &buildErr):
		if buildErr.ExitCode > 0 {
			code = int(buildErr.ExitCode)
		}
		ec.WithOperation("build").
			WithResource(buildErr.Project.DisplayName()).
			WithIssue(issue.BuildFailedId).
			WithSuggestion("Set build.fail_fast to false or pass --fail-fast=false to build the remaining projects")
	default:
		ec.WithOperation("build")
	}

	return &ExitError{Code: code, Err: ec.BuildError()}
}
