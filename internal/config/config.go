// SPDX-License-Identifier: MPL-2.0

package config

import (
	"cmp"
	"context"
	_ "embed"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/msbuildtask/msbuildtask/internal/issue"
	"github.com/msbuildtask/msbuildtask/internal/msbuild"
)

const (
	// AppName is the application name.
	AppName = "msbuildtask"
	// ConfigFileName is the name of the user-level config file (without extension).
	ConfigFileName = "config"
	// ProjectFileName is the name of the per-project config file (without extension).
	ProjectFileName = "msbuild"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"

	// maxConfigFileSize bounds how much of a config file is read.
	maxConfigFileSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// cueFile is the content of a parsed config file split the way the loader
// needs it.
type cueFile struct {
	values     map[string]any
	properties msbuild.Properties
}

// ConfigDir returns the msbuildtask user configuration directory: the value
// of MSBUILDTASK_CONFIG_DIR when set, otherwise the platform convention.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return dir, nil
	}

	var configDir string

	switch runtime.GOOS {
	case msbuild.HostWindows:
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// UserConfigPath returns the path of the user-level config file.
func UserConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// loadWithOptions performs option-driven config loading. It returns the
// resolved config and the path of the file it was read from ("" for defaults).
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	path, err := findConfigFile(opts)
	if err != nil {
		return nil, "", err
	}

	r := newResolver()
	if path != "" {
		file, err := readCUEFile(path)
		if err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithIssue(issue.ConfigLoadFailedId).
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'msbuildtask config init' to write a commented default file").
				Wrap(err).
				BuildError()
		}
		if err := r.mergeFile(file.values, file.properties); err != nil {
			return nil, "", err
		}
	}

	cfg, err := r.resolve(opts.Overrides)
	if err != nil {
		return nil, "", err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithIssue(issue.InvalidOptionsId).
			WithResource(cmp.Or(path, "(defaults)")).
			WithSuggestion("Run 'msbuildtask config show' to inspect the resolved values").
			Wrap(err).
			BuildError()
	}

	return cfg, path, nil
}

// findConfigFile picks the file to load: the explicit path, then
// ./msbuild.cue, then the user config file. "" means none exists.
func findConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithIssue(issue.ConfigLoadFailedId).
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	projectPath := filepath.Join(opts.BaseDir, ProjectFileName+"."+ConfigFileExt)
	if fileExists(projectPath) {
		return projectPath, nil
	}

	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	userPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if fileExists(userPath) {
		return userPath, nil
	}
	return "", nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}
	return ConfigDir()
}

// readCUEFile parses a CUE file, validates it against the #Config schema, and
// decodes it. Properties are read by iterating the CUE struct so their
// declaration order and key case survive.
func readCUEFile(path string) (*cueFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxConfigFileSize {
		return nil, fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), maxConfigFileSize)
	}
	return parseCUE(data, path)
}

func parseCUE(data []byte, filename string) (*cueFile, error) {
	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(filename))
	if userValue.Err() != nil {
		return nil, formatCUEError(userValue.Err(), filename)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err, filename)
	}

	var values map[string]any
	if err := unified.Decode(&values); err != nil {
		return nil, formatCUEError(err, filename)
	}

	props, err := decodeProperties(unified.LookupPath(cue.ParsePath("build.properties")))
	if err != nil {
		return nil, formatCUEError(err, filename)
	}
	if build, ok := values["build"].(map[string]any); ok {
		delete(build, "properties")
	}

	return &cueFile{values: values, properties: props}, nil
}

// decodeProperties reads a struct of scalar values in declaration order.
func decodeProperties(v cue.Value) (msbuild.Properties, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, err
	}

	var props msbuild.Properties
	for iter.Next() {
		val := iter.Value()
		var s string
		switch val.Kind() {
		case cue.StringKind:
			s, err = val.String()
		case cue.IntKind:
			var n int64
			n, err = val.Int64()
			s = strconv.FormatInt(n, 10)
		case cue.FloatKind:
			var f float64
			f, err = val.Float64()
			s = strconv.FormatFloat(f, 'f', -1, 64)
		case cue.BoolKind:
			var b bool
			b, err = val.Bool()
			s = strconv.FormatBool(b)
		default:
			err = fmt.Errorf("property %s: unsupported value kind %s", iter.Selector(), val.Kind())
		}
		if err != nil {
			return nil, err
		}
		props = props.Set(iter.Selector().Unquoted(), s)
	}
	return props, nil
}

// formatCUEError prefixes each CUE error with its file and field path, e.g.
// "msbuild.cue: build.verbosity: 3 errors in empty disjunction".
func formatCUEError(err error, filePath string) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}
	e := errs[0]
	if path := cueerrors.Path(e); len(path) > 0 {
		return fmt.Errorf("%s: %s: %w", filePath, joinPath(path), err)
	}
	return fmt.Errorf("%s: %w", filePath, err)
}

func joinPath(path []string) string {
	out := path[0]
	for _, p := range path[1:] {
		if _, err := strconv.Atoi(p); err == nil {
			out += "[" + p + "]"
		} else {
			out += "." + p
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes a default config file to path unless one exists.
// It reports whether a file was written.
func CreateDefaultConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}

// Keys lists every configuration key in dotted form, sorted.
func Keys() []string {
	keys := newViper().AllKeys()
	slices.Sort(keys)
	return keys
}

// EnvVar returns the environment variable that overrides key.
func EnvVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
