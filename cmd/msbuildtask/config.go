// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msbuildtask/msbuildtask/internal/config"
	"github.com/msbuildtask/msbuildtask/internal/issue"
	"github.com/msbuildtask/msbuildtask/internal/msbuild"
)

const (
	formatCUE  = "cue"
	formatTOML = "toml"

	// propertyKeyPrefix addresses a single MSBuild property in `config set`.
	propertyKeyPrefix = "build.properties."
)

// projectConfigPath is the per-project config file in the working directory.
var projectConfigPath = config.ProjectFileName + "." + config.ConfigFileExt

// newConfigCommand creates the `msbuildtask config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage msbuildtask configuration",
		Long: `Manage msbuildtask configuration.

The first file found is used:
  1. the file given with --config
  2. ./msbuild.cue
  3. the user config file:
     - Linux: ~/.config/msbuildtask/config.cue
     - macOS: ~/Library/Application Support/msbuildtask/config.cue
     - Windows: %APPDATA%\msbuildtask\config.cue
     MSBUILDTASK_CONFIG_DIR replaces the directory on every platform.

MSBUILDTASK_* environment variables and command line flags override it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd, config.Overrides{})
			if err != nil {
				return err
			}
			showConfig(app.stdout, cfg)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfigPath(app.stdout)
		},
	})

	var initUser bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		Long: `Create a default configuration file.

Writes ./msbuild.cue, or the user config file with --user. An existing file is
left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := projectConfigPath
			if initUser {
				p, err := config.UserConfigPath()
				if err != nil {
					return err
				}
				path = p
			}
			return initConfig(app.stdout, path)
		},
	}
	initCmd.Flags().BoolVar(&initUser, "user", false, "write the user config file instead of ./msbuild.cue")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value and save the config file.

The file in use is updated; without one, ./msbuild.cue is created. Keys use the
dotted form listed by 'msbuildtask config env'. A single MSBuild property is
set with build.properties.<Name>.`,
		Example: `  msbuildtask config set build.configuration Debug
  msbuildtask config set build.targets Clean,Build
  msbuildtask config set build.properties.Version 1.2.3`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigValue(cmd, app, args[0], args[1])
		},
	})

	var dumpFormat string
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Output the resolved configuration as CUE or TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd, config.Overrides{})
			if err != nil {
				return err
			}
			return dumpConfig(app.stdout, cfg, dumpFormat)
		},
	}
	dumpCmd.Flags().StringVar(&dumpFormat, "format", formatCUE, "output format: cue or toml")
	cfgCmd.AddCommand(dumpCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "env",
		Short: "List the environment variables that override config keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys := config.Keys()
			width := 0
			for _, k := range keys {
				width = max(width, len(config.EnvVar(k)))
			}
			for _, k := range keys {
				fmt.Fprintf(app.stdout, "%-*s  %s\n", width, config.EnvVar(k), k)
			}
			return nil
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, cfg *config.Config) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	b := cfg.Build

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if cfg.Source != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), cfg.Source)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	for _, d := range cfg.Deprecated {
		fmt.Fprintf(w, "%s %s is deprecated, use %s\n", WarningStyle.Render("Warning:"), d.Key, d.Replacement)
	}
	fmt.Fprintln(w)

	row := func(key, value string) {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render(key), valueStyle.Render(value))
	}
	list := func(items []string) string {
		if len(items) == 0 {
			return SubtitleStyle.Render("(none)")
		}
		return strings.Join(items, ", ")
	}

	fmt.Fprintln(w, SubtitleStyle.Render("build:"))
	row("  projects", list(b.Projects))
	row("  tool_path", cmp.Or(b.ToolPath, SubtitleStyle.Render("(not set)")))
	row("  auto_locate", strconv.FormatBool(b.AutoLocate))
	row("  locator.path", cmp.Or(b.Locator.Path, SubtitleStyle.Render("(search PATH)")))
	row("  locator.products", list(b.Locator.Products))
	row("  locator.requires", list(msbuild.MergeRequires(b.Locator.Requires)))
	row("  locator.version", cmp.Or(b.Locator.Version, SubtitleStyle.Render("(any)")))
	row("  configuration", b.Configuration)
	row("  targets", list(b.Targets))
	row("  platform", cmp.Or(b.Platform, SubtitleStyle.Render("(project default)")))
	row("  verbosity", string(b.Verbosity))
	row("  max_parallelism", strconv.Itoa(b.MaxParallelism))
	row("  console_logger_parameters", cmp.Or(b.ConsoleLoggerParameters, SubtitleStyle.Render("(none)")))
	row("  reuse_processes", strconv.FormatBool(b.ReuseProcesses))
	row("  toolset_version", cmp.Or(b.ToolsetVersion, SubtitleStyle.Render("(default)")))
	row("  suppress_banner", strconv.FormatBool(b.SuppressBanner))
	row("  fail_fast", strconv.FormatBool(b.FailFast))
	row("  extra_args", list(b.ExtraArgs))
	props := make([]string, len(b.Properties))
	for i, p := range b.Properties {
		props[i] = p.Name + "=" + p.Value
	}
	row("  properties", list(props))

	fmt.Fprintln(w, SubtitleStyle.Render("ui:"))
	row("  verbose", strconv.FormatBool(cfg.UI.Verbose))
	row("  log_format", string(cfg.UI.LogFormat))

	fmt.Fprintln(w, SubtitleStyle.Render("watch:"))
	row("  patterns", list(cfg.Watch.Patterns))
	row("  ignore", list(cfg.Watch.Ignore))
	row("  debounce", cfg.Watch.Debounce.String())
}

func showConfigPath(w io.Writer) error {
	userPath, err := config.UserConfigPath()
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(projectConfigPath)
	if err != nil {
		abs = projectConfigPath
	}

	for _, p := range []struct{ label, path string }{
		{"Project config", abs},
		{"User config", userPath},
	} {
		state := SubtitleStyle.Render("(not found)")
		if info, statErr := os.Stat(p.path); statErr == nil && !info.IsDir() {
			state = SuccessStyle.Render("(exists)")
		}
		fmt.Fprintf(w, "%s: %s %s\n", CmdStyle.Render(p.label), p.path, state)
	}
	return nil
}

func initConfig(w io.Writer, path string) error {
	created, err := config.CreateDefaultConfig(path)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("create config file").
			WithResource(path).
			WithSuggestion("Check that the directory is writable").
			Wrap(err).
			BuildError()
	}
	if !created {
		fmt.Fprintf(w, "%s %s already exists\n", WarningStyle.Render("!"), path)
		return nil
	}
	fmt.Fprintf(w, "%s Created %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func setConfigValue(cmd *cobra.Command, app *App, key, value string) error {
	var overrides config.Overrides
	if name, ok := strings.CutPrefix(key, propertyKeyPrefix); ok && name != "" {
		overrides.Properties = overrides.Properties.Set(name, value)
	} else {
		if !slices.Contains(config.Keys(), key) {
			return usageError(issue.NewErrorContext().
				WithOperation("set config value").
				WithResource(key).
				WithSuggestion("Run 'msbuildtask config env' to list the valid keys").
				Wrap(fmt.Errorf("unknown config key %q", key)).
				BuildError())
		}
		overrides.Values = map[string]any{key: value}
	}

	cfg, err := app.loadConfig(cmd, overrides)
	if err != nil {
		return err
	}

	path := cmp.Or(cfg.Source, projectConfigPath)
	if err := config.Save(cfg, path); err != nil {
		return issue.NewErrorContext().
			WithOperation("save configuration").
			WithResource(path).
			WithSuggestion("Check that the file is writable").
			Wrap(err).
			BuildError()
	}
	fmt.Fprintf(app.stdout, "%s Set %s in %s\n", SuccessStyle.Render("✓"), key, path)
	return nil
}

func dumpConfig(w io.Writer, cfg *config.Config, format string) error {
	switch format {
	case formatCUE:
		fmt.Fprint(w, config.GenerateCUE(cfg))
		return nil
	case formatTOML:
		out, err := config.EncodeTOML(cfg)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		return usageError(fmt.Errorf("unknown format %q (must be cue or toml)", format))
	}
}
