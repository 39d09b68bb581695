// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/pflag"

	"github.com/msbuildtask/msbuildtask/internal/config"
	"github.com/msbuildtask/msbuildtask/internal/issue"
	"github.com/msbuildtask/msbuildtask/internal/msbuild"
)

type (
	// buildFlags holds the flag values that override build options.
	buildFlags struct {
		toolPath       string
		autoLocate     bool
		locatorPath    string
		products       []string
		requires       []string
		vsVersion      string
		configuration  string
		targets        []string
		platform       string
		verbosity      string
		maxCPUCount    int
		clp            string
		nodeReuse      bool
		toolsetVersion string
		nologo         bool
		failFast       bool
		properties     []string
		extraArgs      []string
	}

	// flagKey binds a flag name to the config key it overrides.
	flagKey struct {
		flag  string
		key   string
		value func(*buildFlags) any
	}
)

// flagKeys lists every flag that maps directly onto a config key.
var flagKeys = []flagKey{
	{"tool-path", "build.tool_path", func(f *buildFlags) any { return f.toolPath }},
	{"auto-locate", "build.auto_locate", func(f *buildFlags) any { return f.autoLocate }},
	{"vswhere", "build.locator.path", func(f *buildFlags) any { return f.locatorPath }},
	{"vs-product", "build.locator.products", func(f *buildFlags) any { return f.products }},
	{"vs-requires", "build.locator.requires", func(f *buildFlags) any { return f.requires }},
	{"vs-version", "build.locator.version", func(f *buildFlags) any { return f.vsVersion }},
	{"configuration", "build.configuration", func(f *buildFlags) any { return f.configuration }},
	{"target", "build.targets", func(f *buildFlags) any { return f.targets }},
	{"platform", "build.platform", func(f *buildFlags) any { return f.platform }},
	{"verbosity", "build.verbosity", func(f *buildFlags) any { return f.verbosity }},
	{"max-cpu-count", "build.max_parallelism", func(f *buildFlags) any { return f.maxCPUCount }},
	{"console-logger-parameters", "build.console_logger_parameters", func(f *buildFlags) any { return f.clp }},
	{"node-reuse", "build.reuse_processes", func(f *buildFlags) any { return f.nodeReuse }},
	{"toolset-version", "build.toolset_version", func(f *buildFlags) any { return f.toolsetVersion }},
	{"nologo", "build.suppress_banner", func(f *buildFlags) any { return f.nologo }},
	{"fail-fast", "build.fail_fast", func(f *buildFlags) any { return f.failFast }},
}

// register adds the build option flags to fs. Defaults shown in help are the
// built-in ones; a flag only takes effect when it is set explicitly.
func (f *buildFlags) register(fs *pflag.FlagSet) {
	defaults := msbuild.DefaultOptions()

	fs.StringVar(&f.toolPath, "tool-path", "", "path to the MSBuild executable")
	fs.BoolVar(&f.autoLocate, "auto-locate", false, "find MSBuild with vswhere when no tool path is set")
	f.registerLocator(fs)
	fs.StringVarP(&f.configuration, "configuration", "c", defaults.Configuration, "build configuration")
	fs.StringSliceVarP(&f.targets, "target", "t", defaults.Targets, "MSBuild targets to run (repeatable)")
	fs.StringVar(&f.platform, "platform", "", "target platform, e.g. x64")
	fs.StringVar(&f.verbosity, "verbosity", string(defaults.Verbosity), "quiet, minimal, normal, detailed or diagnostic")
	fs.IntVarP(&f.maxCPUCount, "max-cpu-count", "m", 0, "parallel MSBuild nodes, 0 lets MSBuild decide (Windows only)")
	fs.StringVar(&f.clp, "console-logger-parameters", "", "value passed to /clp")
	fs.BoolVar(&f.nodeReuse, "node-reuse", defaults.ReuseProcesses, "keep MSBuild nodes alive after the build")
	fs.StringVar(&f.toolsetVersion, "toolset-version", "", "Visual Studio toolset version, passed as /p:VisualStudioVersion=<v>.0")
	fs.BoolVar(&f.nologo, "nologo", defaults.SuppressBanner, "suppress the MSBuild banner")
	fs.BoolVar(&f.failFast, "fail-fast", defaults.FailFast, "stop at the first failed project")
	fs.StringArrayVarP(&f.properties, "property", "P", nil, "MSBuild property as Name=Value (repeatable)")
	fs.StringArrayVar(&f.extraArgs, "extra-args", nil, "MSBuild argument appended as is, one per flag (repeatable)")
}

// registerLocator adds the vswhere filter flags to fs.
func (f *buildFlags) registerLocator(fs *pflag.FlagSet) {
	fs.StringVar(&f.locatorPath, "vswhere", "", "path to vswhere.exe")
	fs.StringSliceVar(&f.products, "vs-product", nil, "Visual Studio product IDs to consider (repeatable)")
	fs.StringSliceVar(&f.requires, "vs-requires", nil, "workload or component IDs the installation must have (repeatable)")
	fs.StringVar(&f.vsVersion, "vs-version", "", "Visual Studio version range, e.g. [16.0,17.0)")
}

// overrides converts the flags that were set on fs into config overrides.
func (f *buildFlags) overrides(fs *pflag.FlagSet) (config.Overrides, error) {
	o := config.Overrides{Values: make(map[string]any)}
	for _, fk := range flagKeys {
		if fs.Changed(fk.flag) {
			o.Values[fk.key] = fk.value(f)
		}
	}

	for _, raw := range f.properties {
		p, err := msbuild.ParseProperty(raw)
		if err != nil {
			return config.Overrides{}, invalidFlagError("--property", raw, err)
		}
		o.Properties = o.Properties.Set(p.Name, p.Value)
	}

	if len(f.extraArgs) > 0 {
		o.ExtraArgs = slices.Clone(f.extraArgs)
	}
	return o, nil
}

func invalidFlagError(flag, value string, err error) error {
	return usageError(issue.NewErrorContext().
		WithOperation("parse "+flag).
		WithResource(value).
		WithIssue(issue.InvalidOptionsId).
		WithSuggestion(fmt.Sprintf("Check the value passed to %s", flag)).
		Wrap(err).
		BuildError())
}
