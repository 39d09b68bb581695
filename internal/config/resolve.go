// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/msbuildtask/msbuildtask/internal/msbuild"
)

// EnvPrefix is the prefix of environment variables that override config keys,
// e.g. MSBUILDTASK_BUILD_CONFIGURATION=Debug.
const EnvPrefix = "MSBUILDTASK"

// ConfigDirEnv relocates the user configuration directory.
const ConfigDirEnv = EnvPrefix + "_CONFIG_DIR"

// deprecatedKeys maps old build option names onto their current keys. Both
// spellings of the locator filters from earlier releases are accepted.
var deprecatedKeys = []DeprecatedKey{
	{Key: "msbuild_path", Replacement: "tool_path"},
	{Key: "infer_msbuild_path", Replacement: "auto_locate"},
	{Key: "infer_build_path_products", Replacement: "locator.products"},
	{Key: "infer_build_path_requires", Replacement: "locator.requires"},
	{Key: "infer_build_path_version", Replacement: "locator.version"},
	{Key: "vswhere_products", Replacement: "locator.products"},
	{Key: "vswhere_version", Replacement: "locator.version"},
}

// Overrides are caller-supplied values applied on top of file and environment.
type Overrides struct {
	// Values maps dotted config keys (e.g. "build.configuration") to values.
	Values map[string]any
	// Properties are set on top of the file's properties.
	Properties msbuild.Properties
	// ExtraArgs are appended after the file's extra_args.
	ExtraArgs []string
}

// ResolveOptions applies the defaults table to a partial "build" block and
// returns fully populated build options. raw uses the same keys as the
// config file; deprecated keys are accepted. Config files go through the
// same steps when they are loaded.
func ResolveOptions(raw map[string]any) (msbuild.Options, error) {
	r := newResolver()
	if err := r.mergeBuild(raw); err != nil {
		return msbuild.Options{}, err
	}
	cfg, err := r.resolve(Overrides{})
	if err != nil {
		return msbuild.Options{}, err
	}
	return cfg.Build.Options, nil
}

// resolver layers configuration over the defaults table, lowest precedence
// first. Build properties are kept outside viper, which folds key case.
type resolver struct {
	v          *viper.Viper
	props      msbuild.Properties
	deprecated []DeprecatedKey
}

func newResolver() *resolver {
	return &resolver{v: newViper()}
}

// mergeFile layers a decoded config file. props are the file's build
// properties in declaration order.
func (r *resolver) mergeFile(values map[string]any, props msbuild.Properties) error {
	rest := maps.Clone(values)
	delete(rest, "build")
	if len(rest) > 0 {
		if err := r.v.MergeConfigMap(rest); err != nil {
			return fmt.Errorf("failed to merge config: %w", err)
		}
	}

	build, _ := values["build"].(map[string]any)
	if len(props) > 0 {
		build = maps.Clone(build)
		if build == nil {
			build = make(map[string]any, 1)
		}
		build["properties"] = props
	}
	return r.mergeBuild(build)
}

// mergeBuild moves deprecated keys of a partial build block onto their
// replacements, splits off its properties and layers the rest.
func (r *resolver) mergeBuild(build map[string]any) error {
	build, found := migrateDeprecated(build)
	r.deprecated = append(r.deprecated, found...)

	props, build, err := splitProperties(build)
	if err != nil {
		return err
	}
	r.props = r.props.Merge(props)

	if len(build) == 0 {
		return nil
	}
	if err := r.v.MergeConfigMap(map[string]any{"build": build}); err != nil {
		return fmt.Errorf("failed to merge build options: %w", err)
	}
	return nil
}

// resolve applies o on top of everything merged so far and decodes the result.
func (r *resolver) resolve(o Overrides) (*Config, error) {
	for key, val := range o.Values {
		r.v.Set(key, val)
	}
	cfg, err := decode(r.v)
	if err != nil {
		return nil, err
	}
	cfg.Build.Properties = r.props.Merge(o.Properties)
	cfg.Build.ExtraArgs = append(slices.Clip(cfg.Build.ExtraArgs), o.ExtraArgs...)
	cfg.Deprecated = r.deprecated
	return cfg, nil
}

// newViper creates a Viper instance holding the defaults table and the
// environment binding.
func newViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	b := defaults.Build
	v.SetDefault("build.projects", b.Projects)
	v.SetDefault("build.tool_path", b.ToolPath)
	v.SetDefault("build.auto_locate", b.AutoLocate)
	v.SetDefault("build.locator.path", b.Locator.Path)
	v.SetDefault("build.locator.products", b.Locator.Products)
	v.SetDefault("build.locator.requires", b.Locator.Requires)
	v.SetDefault("build.locator.version", b.Locator.Version)
	v.SetDefault("build.configuration", b.Configuration)
	v.SetDefault("build.targets", b.Targets)
	v.SetDefault("build.platform", b.Platform)
	v.SetDefault("build.verbosity", string(b.Verbosity))
	v.SetDefault("build.max_parallelism", b.MaxParallelism)
	v.SetDefault("build.console_logger_parameters", b.ConsoleLoggerParameters)
	v.SetDefault("build.reuse_processes", b.ReuseProcesses)
	v.SetDefault("build.toolset_version", b.ToolsetVersion)
	v.SetDefault("build.suppress_banner", b.SuppressBanner)
	v.SetDefault("build.fail_fast", b.FailFast)
	v.SetDefault("build.extra_args", b.ExtraArgs)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.log_format", string(defaults.UI.LogFormat))
	v.SetDefault("watch.patterns", defaults.Watch.Patterns)
	v.SetDefault("watch.ignore", defaults.Watch.Ignore)
	v.SetDefault("watch.debounce", defaults.Watch.Debounce.String())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// decode unmarshals v into a Config. Lists may be given as a single string,
// either in the file or through the environment; it is split on commas.
func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		stringToSliceHook,
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

func stringToSliceHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Slice || to.Elem().Kind() != reflect.String {
		return data, nil
	}
	var out []string
	for _, part := range strings.Split(data.(string), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out, nil
}

// migrateDeprecated returns a copy of build with deprecated keys moved onto
// their replacements. A replacement key that is already set wins.
func migrateDeprecated(build map[string]any) (map[string]any, []DeprecatedKey) {
	out := make(map[string]any, len(build))
	for k, val := range build {
		out[k] = val
	}

	var found []DeprecatedKey
	for _, dk := range deprecatedKeys {
		val, ok := out[dk.Key]
		if !ok {
			continue
		}
		delete(out, dk.Key)
		found = append(found, dk)

		parent, leaf := out, dk.Replacement
		if section, rest, nested := strings.Cut(dk.Replacement, "."); nested {
			sub, _ := out[section].(map[string]any)
			cp := make(map[string]any, len(sub)+1)
			for k, v := range sub {
				cp[k] = v
			}
			out[section] = cp
			parent, leaf = cp, rest
		}
		if _, set := parent[leaf]; !set {
			parent[leaf] = val
		}
	}
	return out, found
}

// splitProperties removes "properties" from build and returns it as ordered
// Properties. Map input has no declaration order, so names are sorted; the
// CUE loader passes an already ordered list instead.
func splitProperties(build map[string]any) (msbuild.Properties, map[string]any, error) {
	raw, ok := build["properties"]
	if !ok {
		return nil, build, nil
	}
	rest := make(map[string]any, len(build))
	for k, v := range build {
		if k != "properties" {
			rest[k] = v
		}
	}

	switch p := raw.(type) {
	case msbuild.Properties:
		return p, rest, nil
	case map[string]any:
		var props msbuild.Properties
		for _, name := range sortedKeys(p) {
			props = props.Set(name, fmt.Sprint(p[name]))
		}
		return props, rest, nil
	case map[string]string:
		var props msbuild.Properties
		for _, name := range sortedKeys(p) {
			props = props.Set(name, p[name])
		}
		return props, rest, nil
	default:
		return nil, nil, fmt.Errorf("properties must be a mapping of name to value, got %T", raw)
	}
}
