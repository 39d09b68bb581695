// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/msbuildtask/msbuildtask/internal/msbuild"
	"github.com/msbuildtask/msbuildtask/internal/project"
)

// newArgsCommand creates the `msbuildtask args` command, which prints the
// MSBuild argument vector a build would use without running anything.
func newArgsCommand(app *App) *cobra.Command {
	var (
		flags  buildFlags
		hostOS string
	)

	cmd := &cobra.Command{
		Use:   "args [pattern...]",
		Short: "Print the MSBuild arguments for each project",
		Long: `Print the MSBuild arguments for each project, one per line.

Arguments are rendered exactly as 'build' would pass them. With more than one
project each block is preceded by a '# <project>' line.`,
		Example: `  msbuildtask args app.sln
  msbuildtask args -c Debug -P Version=1.2.3 --os windows`,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := flags.overrides(cmd.Flags())
			if err != nil {
				return err
			}
			cfg, err := app.loadConfig(cmd, overrides)
			if err != nil {
				return err
			}
			warnDeprecated(newLogger(app.stderr, cfg.UI), cfg)

			patterns := args
			if len(patterns) == 0 {
				patterns = cfg.Build.Projects
			}
			targets, err := project.Expand("", patterns)
			if err != nil {
				return classifyBuildError(err)
			}
			if len(targets) == 0 {
				return classifyBuildError(&msbuild.NoTargetsError{Patterns: patterns})
			}

			builder := msbuild.ArgBuilder{GOOS: hostOS}
			for i, target := range targets {
				if len(targets) > 1 {
					if i > 0 {
						fmt.Fprintln(app.stdout)
					}
					fmt.Fprintf(app.stdout, "# %s\n", target.DisplayName())
				}
				for _, arg := range builder.Build(target, cfg.Build.Options) {
					fmt.Fprintln(app.stdout, arg)
				}
			}
			return nil
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVar(&hostOS, "os", runtime.GOOS, "host OS to render for; /maxcpucount is only emitted on windows")
	return cmd
}
