// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msbuildtask/msbuildtask/internal/issue"
)

var errNoInstallation = errors.New("vswhere found no installation providing MSBuild")

// newLocateCommand creates the `msbuildtask locate` command.
func newLocateCommand(app *App) *cobra.Command {
	var flags buildFlags

	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Print the MSBuild executable found by vswhere",
		Long: `Run vswhere with the configured locator filters and print the MSBuild
executable of the newest matching Visual Studio installation.`,
		Example: `  msbuildtask locate
  msbuildtask locate --vs-version '[17.0,18.0)' --vs-product '*'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			overrides, err := flags.overrides(cmd.Flags())
			if err != nil {
				return err
			}
			cfg, err := app.loadConfig(cmd, overrides)
			if err != nil {
				return err
			}
			logger := newLogger(app.stderr, cfg.UI)
			warnDeprecated(logger, cfg)

			path, err := app.NewLocator(logger).Locate(cmd.Context(), cfg.Build.Locator)
			if err != nil {
				return classifyBuildError(err)
			}
			if path == "" {
				return &ExitError{
					Code: 1,
					Err: issue.NewErrorContext().
						WithOperation("locate msbuild").
						WithIssue(issue.LocatorFailedId).
						WithSuggestion("Loosen the --vs-version, --vs-product or --vs-requires filters").
						Wrap(errNoInstallation).
						BuildError(),
				}
			}

			fmt.Fprintln(app.stdout, path)
			return nil
		},
	}

	flags.registerLocator(cmd.Flags())
	return cmd
}
