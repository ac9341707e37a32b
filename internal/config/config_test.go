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

	"github.com/urdfc/urdfc/internal/issue"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Compile.MaxRuns != 10 {
		t.Errorf("Compile.MaxRuns = %d, want 10", cfg.Compile.MaxRuns)
	}
	if !cfg.Packages.WalkUp {
		t.Error("Packages.WalkUp should default to true")
	}
	if !cfg.Output.Pretty || cfg.Output.Protocol || cfg.Output.CompareExisting {
		t.Errorf("Output = %+v, want pretty only", cfg.Output)
	}
	if cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("UI.ColorScheme = %s, want auto", cfg.UI.ColorScheme)
	}
	if valid, errs := cfg.IsValid(); !valid {
		t.Errorf("DefaultConfig().IsValid() = %v", errs)
	}
}

func TestConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/test-xdg-config")
	Reset()

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if want := filepath.Join("/tmp/test-xdg-config", AppName); dir != want {
		t.Errorf("ConfigDir() = %s, want %s", dir, want)
	}

	SetConfigDirOverride("/override")
	defer Reset()
	if dir, _ := ConfigDir(); dir != "/override" {
		t.Errorf("ConfigDir() with override = %s, want /override", dir)
	}
}

func TestLoad_DefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	cfg, path, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != "" {
		t.Errorf("Load() path = %q, want empty", path)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_CustomPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, `
packages: {
	dirs: ["src"]
	paths: robot_models: "/robots/model_a"
	files: ["packages.toml"]
	walk_up: false
}
compile: max_runs: 4
output: {
	protocol: true
	compare_existing: true
	reuse_asset_dir: true
}
mjcf: converter: "urdf2mjcf {in} {out}"
ui: color_scheme: "dark"
`)

	cfg, got, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != path {
		t.Errorf("Load() path = %q, want %q", got, path)
	}

	want := DefaultConfig()
	want.Packages = PackagesConfig{
		Dirs:   []string{filepath.Join(dir, "src")},
		Paths:  map[string]string{"robot_models": "/robots/model_a"},
		Files:  []string{filepath.Join(dir, "packages.toml")},
		WalkUp: false,
	}
	want.Compile.MaxRuns = 4
	want.Output.Protocol = true
	want.Output.CompareExisting = true
	want.Output.ReuseAssetDir = true
	want.MJCF.Converter = "urdf2mjcf {in} {out}"
	want.UI.ColorScheme = ColorSchemeDark
	if diff := cmp.Diff(want, cfg, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_CustomPathNotFound(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "missing.cue")
	_, _, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: missing})
	if err == nil {
		t.Fatal("Load() should fail for a missing config file")
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("error should be *issue.ActionableError, got %T", err)
	}
	if ae.Resource != missing || !ae.HasSuggestions() {
		t.Errorf("ActionableError = %+v, want resource and suggestions", ae)
	}
}

func TestLoad_SchemaViolation(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"max_runs below one": `compile: max_runs: 0`,
		"unknown key":        `output: color: true`,
		"bad color scheme":   `ui: color_scheme: "neon"`,
		"syntax error":       `packages: {`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			path := writeConfig(t, t.TempDir(), content)
			_, _, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
			if err == nil {
				t.Fatalf("Load() should reject %q", content)
			}
			if !strings.Contains(err.Error(), "load configuration") {
				t.Errorf("error = %v, want load configuration context", err)
			}
		})
	}
}

func TestLoad_UppercasePackagePathRejected(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), `packages: paths: {
	MyPkg: "/robots/my_pkg"
	robot_models: "/robots/model_a"
}`)
	_, _, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if !errors.Is(err, ErrInvalidPackagesConfig) {
		t.Fatalf("Load() error = %v, want ErrInvalidPackagesConfig", err)
	}
	if !strings.Contains(err.Error(), `"MyPkg"`) || strings.Contains(err.Error(), "robot_models") {
		t.Errorf("error = %v, want only MyPkg reported", err)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("URDFC_COMPILE_MAX_RUNS", "3")
	t.Setenv("URDFC_OUTPUT_PROTOCOL", "true")

	cfg, _, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Compile.MaxRuns != 3 {
		t.Errorf("Compile.MaxRuns = %d, want 3 from environment", cfg.Compile.MaxRuns)
	}
	if !cfg.Output.Protocol {
		t.Error("Output.Protocol should be set from environment")
	}
}

func TestLoad_InvalidEnvValue(t *testing.T) {
	t.Setenv("URDFC_COMPILE_MAX_RUNS", "0")

	_, _, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Load() error = %v, want ErrInvalidConfig", err)
	}
	if err != nil && !strings.Contains(err.Error(), "max_runs") {
		t.Errorf("error %q should name the offending key", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	SetConfigDirOverride(filepath.Join(t.TempDir(), AppName))
	defer Reset()

	cfg := DefaultConfig()
	cfg.Packages.Dirs = []string{"/ws/src"}
	cfg.Packages.Paths = map[string]string{"b_pkg": "/b", "a_pkg": "/a"}
	cfg.Compile.MaxRuns = 7
	cfg.MJCF.Converter = "convert {in} {out}"
	cfg.MJCF.MinInertia = 1e-5
	cfg.UI.Verbose = true

	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, _, err := NewProvider().Load(context.Background(), LoadOptions{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(cfg, loaded, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-saved +loaded):\n%s", diff)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), AppName)
	SetConfigDirOverride(configDir)
	defer Reset()

	path, err := CreateDefaultConfig()
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if want := filepath.Join(configDir, "config.cue"); path != want {
		t.Errorf("CreateDefaultConfig() path = %s, want %s", path, want)
	}

	if err := os.WriteFile(path, []byte("compile: max_runs: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := CreateDefaultConfig(); err != nil {
		t.Fatalf("second CreateDefaultConfig() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "compile: max_runs: 2\n" {
		t.Error("CreateDefaultConfig() overwrote an existing file")
	}
}
