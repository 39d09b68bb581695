// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pelletier/go-toml/v2"

	"github.com/msbuildtask/msbuildtask/internal/issue"
	"github.com/msbuildtask/msbuildtask/internal/msbuild"
)

// writeProjectConfig writes msbuild.cue into a fresh directory and returns
// load options that only see that directory.
func writeProjectConfig(t *testing.T, content string) LoadOptions {
	t.Helper()
	dir := t.TempDir()
	if content != "" {
		path := filepath.Join(dir, ProjectFileName+"."+ConfigFileExt)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
	}
	return LoadOptions{BaseDir: dir, ConfigDirPath: t.TempDir()}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Parallel()

	cfg, err := NewProvider().Load(context.Background(), writeProjectConfig(t, ""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source != "" {
		t.Errorf("Source = %q, want empty", cfg.Source)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_ProjectFile(t *testing.T) {
	t.Parallel()

	opts := writeProjectConfig(t, `
build: {
	tool_path: "C:/Tools/MSBuild.exe"
	configuration: "Debug"
	targets: "Clean, Build"
	verbosity: "minimal"
	max_parallelism: 4
	properties: {
		WarningLevel: 2
		OutDir: "out/"
		Optimize: true
	}
}
ui: log_format: "json"
watch: debounce: "2s"
`)

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	b := cfg.Build
	if b.ToolPath != "C:/Tools/MSBuild.exe" {
		t.Errorf("ToolPath = %q", b.ToolPath)
	}
	if b.Configuration != "Debug" {
		t.Errorf("Configuration = %q, want Debug", b.Configuration)
	}
	if diff := cmp.Diff([]string{"Clean", "Build"}, b.Targets); diff != "" {
		t.Errorf("Targets mismatch (-want +got):\n%s", diff)
	}
	if b.Verbosity != msbuild.VerbosityMinimal {
		t.Errorf("Verbosity = %q, want minimal", b.Verbosity)
	}
	if b.MaxParallelism != 4 {
		t.Errorf("MaxParallelism = %d, want 4", b.MaxParallelism)
	}
	if !b.FailFast || !b.SuppressBanner || !b.ReuseProcesses {
		t.Errorf("unset booleans should keep their defaults, got %+v", b.Options)
	}

	wantProps := msbuild.Properties{
		{Name: "WarningLevel", Value: "2"},
		{Name: "OutDir", Value: "out/"},
		{Name: "Optimize", Value: "true"},
	}
	if diff := cmp.Diff(wantProps, b.Properties); diff != "" {
		t.Errorf("Properties mismatch (-want +got):\n%s", diff)
	}
	if cfg.UI.LogFormat != LogFormatJSON {
		t.Errorf("LogFormat = %q, want json", cfg.UI.LogFormat)
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("Debounce = %s, want 2s", cfg.Watch.Debounce)
	}
	if !strings.HasSuffix(cfg.Source, "msbuild.cue") {
		t.Errorf("Source = %q, want the project file", cfg.Source)
	}
}

func TestLoad_UserConfigFallback(t *testing.T) {
	t.Parallel()

	opts := writeProjectConfig(t, "")
	userPath := filepath.Join(opts.ConfigDirPath, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(userPath, []byte(`build: platform: "x64"`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Build.Platform != "x64" {
		t.Errorf("Platform = %q, want x64", cfg.Build.Platform)
	}
	if cfg.Source != userPath {
		t.Errorf("Source = %q, want %q", cfg.Source, userPath)
	}
}

func TestLoad_DeprecatedKeys(t *testing.T) {
	t.Parallel()

	opts := writeProjectConfig(t, `
build: {
	msbuild_path: "old/msbuild"
	infer_msbuild_path: true
	infer_build_path_products: "Community"
	vswhere_version: "[16.0,17.0)"
	locator: version: "17"
}
`)

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	b := cfg.Build
	if b.ToolPath != "old/msbuild" || !b.AutoLocate {
		t.Errorf("deprecated keys not migrated: tool_path=%q auto_locate=%v", b.ToolPath, b.AutoLocate)
	}
	if diff := cmp.Diff([]string{"Community"}, b.Locator.Products); diff != "" {
		t.Errorf("Locator.Products mismatch (-want +got):\n%s", diff)
	}
	if b.Locator.Version != "17" {
		t.Errorf("Locator.Version = %q, the current key should win", b.Locator.Version)
	}

	var keys []string
	for _, dk := range cfg.Deprecated {
		keys = append(keys, dk.Key)
	}
	want := []string{"msbuild_path", "infer_msbuild_path", "infer_build_path_products", "vswhere_version"}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("Deprecated mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_AgreesWithResolveOptions(t *testing.T) {
	t.Parallel()

	opts := writeProjectConfig(t, `
build: {
	msbuild_path: "old/msbuild"
	configuration: "Debug"
	vswhere_products: ["Community"]
	properties: { Alpha: "a", Zed: 1 }
}
`)
	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want, err := ResolveOptions(map[string]any{
		"msbuild_path":     "old/msbuild",
		"configuration":    "Debug",
		"vswhere_products": []string{"Community"},
		"properties":       map[string]any{"Alpha": "a", "Zed": 1},
	})
	if err != nil {
		t.Fatalf("ResolveOptions() error = %v", err)
	}
	if diff := cmp.Diff(want, cfg.Build.Options, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("loaded options differ from ResolveOptions (-want +got):\n%s", diff)
	}
}

func TestLoad_SchemaViolation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantIn  string
	}{
		{name: "unknown verbosity", content: `build: verbosity: "loud"`, wantIn: "build.verbosity"},
		{name: "negative parallelism", content: `build: max_parallelism: -1`, wantIn: "build.max_parallelism"},
		{name: "unknown key", content: `build: msbuild_args: []`, wantIn: "msbuild_args"},
		{name: "syntax error", content: `build: {`, wantIn: "msbuild.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewProvider().Load(context.Background(), writeProjectConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load() error = nil, want schema error")
			}
			if !strings.Contains(err.Error(), tt.wantIn) {
				t.Errorf("error %q does not mention %q", err, tt.wantIn)
			}
			var actionable *issue.ActionableError
			if !errors.As(err, &actionable) {
				t.Errorf("error is %T, want *issue.ActionableError", err)
			}
		})
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	t.Parallel()

	opts := writeProjectConfig(t, "")
	opts.ConfigFilePath = filepath.Join(t.TempDir(), "missing.cue")

	if _, err := NewProvider().Load(context.Background(), opts); err == nil {
		t.Fatal("Load() error = nil, want not found")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Parallel()

	opts := writeProjectConfig(t, `
build: {
	configuration: "Debug"
	extra_args: ["/bl"]
	properties: {A: "file", B: "file"}
}
`)
	opts.Overrides = Overrides{
		Values:     map[string]any{"build.configuration": "Release", "build.fail_fast": false},
		Properties: msbuild.Properties{{Name: "B", Value: "flag"}, {Name: "C", Value: "flag"}},
		ExtraArgs:  []string{"/m:2"},
	}

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Build.Configuration != "Release" {
		t.Errorf("Configuration = %q, override should win", cfg.Build.Configuration)
	}
	if cfg.Build.FailFast {
		t.Error("FailFast = true, override should win")
	}
	wantProps := msbuild.Properties{{Name: "A", Value: "file"}, {Name: "B", Value: "flag"}, {Name: "C", Value: "flag"}}
	if diff := cmp.Diff(wantProps, cfg.Build.Properties); diff != "" {
		t.Errorf("Properties mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"/bl", "/m:2"}, cfg.Build.ExtraArgs); diff != "" {
		t.Errorf("ExtraArgs mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_OverrideFailsValidation(t *testing.T) {
	t.Parallel()

	opts := writeProjectConfig(t, "")
	opts.Overrides.Values = map[string]any{"build.verbosity": "loud"}

	_, err := NewProvider().Load(context.Background(), opts)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Load() error = %v, want ErrInvalidConfig", err)
	}
	if !errors.Is(err, msbuild.ErrInvalidVerbosity) {
		t.Errorf("Load() error = %v, want it to wrap ErrInvalidVerbosity", err)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("MSBUILDTASK_BUILD_CONFIGURATION", "Staging")
	t.Setenv("MSBUILDTASK_BUILD_TARGETS", "Clean,Rebuild")

	opts := writeProjectConfig(t, `build: configuration: "Debug"`)
	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Build.Configuration != "Staging" {
		t.Errorf("Configuration = %q, environment should beat the file", cfg.Build.Configuration)
	}
	if diff := cmp.Diff([]string{"Clean", "Rebuild"}, cfg.Build.Targets); diff != "" {
		t.Errorf("Targets mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, writeProjectConfig(t, "")); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestResolveOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		raw    map[string]any
		mutate func(*msbuild.Options)
	}{
		{
			name:   "empty input yields defaults",
			raw:    nil,
			mutate: func(*msbuild.Options) {},
		},
		{
			name: "partial input",
			raw:  map[string]any{"configuration": "Debug", "targets": []string{"Rebuild"}},
			mutate: func(o *msbuild.Options) {
				o.Configuration = "Debug"
				o.Targets = []string{"Rebuild"}
			},
		},
		{
			name: "properties are sorted by name",
			raw:  map[string]any{"properties": map[string]any{"Zed": 1, "Alpha": "a"}},
			mutate: func(o *msbuild.Options) {
				o.Properties = msbuild.Properties{{Name: "Alpha", Value: "a"}, {Name: "Zed", Value: "1"}}
			},
		},
		{
			name: "deprecated names",
			raw:  map[string]any{"msbuild_path": "msbuild", "vswhere_products": []string{"*"}},
			mutate: func(o *msbuild.Options) {
				o.ToolPath = "msbuild"
				o.Locator.Products = []string{"*"}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ResolveOptions(tt.raw)
			if err != nil {
				t.Fatalf("ResolveOptions() error = %v", err)
			}
			want := msbuild.DefaultOptions()
			tt.mutate(&want)
			if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("ResolveOptions() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveOptions_BadProperties(t *testing.T) {
	t.Parallel()

	if _, err := ResolveOptions(map[string]any{"properties": []string{"A=1"}}); err == nil {
		t.Error("ResolveOptions() error = nil, want error for list properties")
	}
}

func TestGenerateCUE_LoadsBack(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Build.Projects = []string{"src/**/*.sln"}
	cfg.Build.AutoLocate = true
	cfg.Build.Locator.Products = []string{"BuildTools"}
	cfg.Build.MaxParallelism = 2
	cfg.Build.Properties = msbuild.Properties{{Name: "Z", Value: "1"}, {Name: "A", Value: "x y"}}
	cfg.Watch.Ignore = []string{"**/generated/**"}

	dir := t.TempDir()
	path := filepath.Join(dir, "generated.cue")
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path, ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() of generated file error = %v\n%s", err, GenerateCUE(cfg))
	}
	if diff := cmp.Diff(cfg, got, cmpopts.EquateEmpty(), cmpopts.IgnoreFields(Config{}, "Source")); diff != "" {
		t.Errorf("generated config mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.cue")
	created, err := CreateDefaultConfig(path)
	if err != nil || !created {
		t.Fatalf("CreateDefaultConfig() = %v, %v; want true, nil", created, err)
	}
	created, err = CreateDefaultConfig(path)
	if err != nil || created {
		t.Errorf("second CreateDefaultConfig() = %v, %v; want false, nil", created, err)
	}
}

func TestEncodeTOML(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Build.Properties = msbuild.Properties{{Name: "OutDir", Value: "out/"}}

	data, err := EncodeTOML(cfg)
	if err != nil {
		t.Fatalf("EncodeTOML() error = %v", err)
	}

	var doc struct {
		Build struct {
			Configuration string            `toml:"configuration"`
			Targets       []string          `toml:"targets"`
			Properties    map[string]string `toml:"properties"`
		} `toml:"build"`
		Watch struct {
			Debounce string `toml:"debounce"`
		} `toml:"watch"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("output is not valid TOML: %v\n%s", err, data)
	}
	if doc.Build.Configuration != "Release" || doc.Build.Properties["OutDir"] != "out/" {
		t.Errorf("unexpected TOML build table: %+v", doc.Build)
	}
	if doc.Watch.Debounce != "500ms" {
		t.Errorf("watch.debounce = %q, want 500ms", doc.Watch.Debounce)
	}
}

func TestConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME is only consulted on Linux")
	}

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if want := filepath.Join(xdg, AppName); dir != want {
		t.Errorf("ConfigDir() = %s, want %s", dir, want)
	}

	override := t.TempDir()
	t.Setenv(ConfigDirEnv, override)
	if dir, _ := ConfigDir(); dir != override {
		t.Errorf("ConfigDir() with override = %s, want %s", dir, override)
	}
}

func TestEnvVar(t *testing.T) {
	t.Parallel()

	if got := EnvVar("build.locator.products"); got != "MSBUILDTASK_BUILD_LOCATOR_PRODUCTS" {
		t.Errorf("EnvVar() = %q", got)
	}
	keys := Keys()
	for _, k := range []string{"build.configuration", "build.locator.version", "watch.debounce"} {
		found := false
		for _, key := range keys {
			if key == k {
				found = true
			}
		}
		if !found {
			t.Errorf("Keys() is missing %q", k)
		}
	}
}
