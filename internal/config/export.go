// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type (
	// tomlDocument mirrors the config file layout for TOML export.
	tomlDocument struct {
		Build tomlBuild `toml:"build"`
		UI    tomlUI    `toml:"ui"`
		Watch tomlWatch `toml:"watch"`
	}

	tomlBuild struct {
		Projects                []string          `toml:"projects,omitempty"`
		ToolPath                string            `toml:"tool_path,omitempty"`
		AutoLocate              bool              `toml:"auto_locate"`
		Locator                 tomlLocator       `toml:"locator"`
		Configuration           string            `toml:"configuration"`
		Targets                 []string          `toml:"targets"`
		Platform                string            `toml:"platform,omitempty"`
		Verbosity               string            `toml:"verbosity"`
		MaxParallelism          int               `toml:"max_parallelism"`
		ConsoleLoggerParameters string            `toml:"console_logger_parameters,omitempty"`
		ReuseProcesses          bool              `toml:"reuse_processes"`
		ToolsetVersion          string            `toml:"toolset_version,omitempty"`
		SuppressBanner          bool              `toml:"suppress_banner"`
		FailFast                bool              `toml:"fail_fast"`
		ExtraArgs               []string          `toml:"extra_args,omitempty"`
		Properties              map[string]string `toml:"properties,omitempty"`
	}

	tomlLocator struct {
		Path     string   `toml:"path,omitempty"`
		Products []string `toml:"products,omitempty"`
		Requires []string `toml:"requires,omitempty"`
		Version  string   `toml:"version,omitempty"`
	}

	tomlUI struct {
		Verbose   bool   `toml:"verbose"`
		LogFormat string `toml:"log_format"`
	}

	tomlWatch struct {
		Patterns []string `toml:"patterns"`
		Ignore   []string `toml:"ignore,omitempty"`
		Debounce string   `toml:"debounce"`
	}
)

// EncodeTOML renders the resolved configuration as TOML. Property order is not
// preserved; TOML tables are written with sorted keys.
func EncodeTOML(cfg *Config) ([]byte, error) {
	b := cfg.Build
	doc := tomlDocument{
		Build: tomlBuild{
			Projects:   b.Projects,
			ToolPath:   b.ToolPath,
			AutoLocate: b.AutoLocate,
			Locator: tomlLocator{
				Path:     b.Locator.Path,
				Products: b.Locator.Products,
				Requires: b.Locator.Requires,
				Version:  b.Locator.Version,
			},
			Configuration:           b.Configuration,
			Targets:                 b.Targets,
			Platform:                b.Platform,
			Verbosity:               string(b.Verbosity),
			MaxParallelism:          b.MaxParallelism,
			ConsoleLoggerParameters: b.ConsoleLoggerParameters,
			ReuseProcesses:          b.ReuseProcesses,
			ToolsetVersion:          b.ToolsetVersion,
			SuppressBanner:          b.SuppressBanner,
			FailFast:                b.FailFast,
			ExtraArgs:               b.ExtraArgs,
		},
		UI: tomlUI{
			Verbose:   cfg.UI.Verbose,
			LogFormat: string(cfg.UI.LogFormat),
		},
		Watch: tomlWatch{
			Patterns: cfg.Watch.Patterns,
			Ignore:   cfg.Watch.Ignore,
			Debounce: cfg.Watch.Debounce.String(),
		},
	}
	if len(b.Properties) > 0 {
		doc.Build.Properties = make(map[string]string, len(b.Properties))
		for _, p := range b.Properties {
			doc.Build.Properties[p.Name] = p.Value
		}
	}

	out, err := toml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config as TOML: %w", err)
	}
	return out, nil
}

// Save writes cfg to path as CUE.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder
	b := cfg.Build

	sb.WriteString("// msbuildtask configuration file.\n")
	sb.WriteString("// Keys left out fall back to built-in defaults.\n\n")

	sb.WriteString("build: {\n")
	if len(b.Projects) > 0 {
		fmt.Fprintf(&sb, "\tprojects: %s\n", cueList(b.Projects))
	}
	if b.ToolPath != "" {
		fmt.Fprintf(&sb, "\ttool_path: %q\n", b.ToolPath)
	}
	fmt.Fprintf(&sb, "\tauto_locate: %v\n", b.AutoLocate)
	if b.Locator.HasLocatorFilters() || b.Locator.Path != "" {
		sb.WriteString("\tlocator: {\n")
		if b.Locator.Path != "" {
			fmt.Fprintf(&sb, "\t\tpath: %q\n", b.Locator.Path)
		}
		if len(b.Locator.Products) > 0 {
			fmt.Fprintf(&sb, "\t\tproducts: %s\n", cueList(b.Locator.Products))
		}
		if len(b.Locator.Requires) > 0 {
			fmt.Fprintf(&sb, "\t\trequires: %s\n", cueList(b.Locator.Requires))
		}
		if b.Locator.Version != "" {
			fmt.Fprintf(&sb, "\t\tversion: %q\n", b.Locator.Version)
		}
		sb.WriteString("\t}\n")
	}

	fmt.Fprintf(&sb, "\tconfiguration: %q\n", b.Configuration)
	fmt.Fprintf(&sb, "\ttargets: %s\n", cueList(b.Targets))
	if b.Platform != "" {
		fmt.Fprintf(&sb, "\tplatform: %q\n", b.Platform)
	}
	fmt.Fprintf(&sb, "\tverbosity: %q\n", b.Verbosity)
	if b.MaxParallelism > 0 {
		fmt.Fprintf(&sb, "\tmax_parallelism: %d\n", b.MaxParallelism)
	}
	if b.ConsoleLoggerParameters != "" {
		fmt.Fprintf(&sb, "\tconsole_logger_parameters: %q\n", b.ConsoleLoggerParameters)
	}
	fmt.Fprintf(&sb, "\treuse_processes: %v\n", b.ReuseProcesses)
	if b.ToolsetVersion != "" {
		fmt.Fprintf(&sb, "\ttoolset_version: %q\n", b.ToolsetVersion)
	}
	fmt.Fprintf(&sb, "\tsuppress_banner: %v\n", b.SuppressBanner)
	fmt.Fprintf(&sb, "\tfail_fast: %v\n", b.FailFast)
	if len(b.ExtraArgs) > 0 {
		fmt.Fprintf(&sb, "\textra_args: %s\n", cueList(b.ExtraArgs))
	}
	if len(b.Properties) > 0 {
		sb.WriteString("\tproperties: {\n")
		for _, p := range b.Properties {
			fmt.Fprintf(&sb, "\t\t%q: %q\n", p.Name, p.Value)
		}
		sb.WriteString("\t}\n")
	}
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\tlog_format: %q\n", cfg.UI.LogFormat)
	sb.WriteString("}\n")

	sb.WriteString("\nwatch: {\n")
	fmt.Fprintf(&sb, "\tpatterns: %s\n", cueList(cfg.Watch.Patterns))
	if len(cfg.Watch.Ignore) > 0 {
		fmt.Fprintf(&sb, "\tignore: %s\n", cueList(cfg.Watch.Ignore))
	}
	fmt.Fprintf(&sb, "\tdebounce: %q\n", cfg.Watch.Debounce.String())
	sb.WriteString("}\n")

	return sb.String()
}

func cueList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
