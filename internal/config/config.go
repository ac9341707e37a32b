// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/urdfc/urdfc/internal/issue"
	"github.com/urdfc/urdfc/pkg/cueutil"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "urdfc"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. URDFC_COMPILE_MAX_RUNS.
	EnvPrefix = "URDFC"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the urdfc configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
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
	default:
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

// DefaultConfigPath returns the path of config.cue inside ConfigDir.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state. It returns the loaded config and the file it came
// from ("" when only defaults and environment applied).
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultConfig()
	v.SetDefault("packages.dirs", defaults.Packages.Dirs)
	v.SetDefault("packages.paths", defaults.Packages.Paths)
	v.SetDefault("packages.files", defaults.Packages.Files)
	v.SetDefault("packages.walk_up", defaults.Packages.WalkUp)
	v.SetDefault("compile.max_runs", defaults.Compile.MaxRuns)
	v.SetDefault("output.protocol", defaults.Output.Protocol)
	v.SetDefault("output.pretty", defaults.Output.Pretty)
	v.SetDefault("output.compare_existing", defaults.Output.CompareExisting)
	v.SetDefault("output.reuse_asset_dir", defaults.Output.ReuseAssetDir)
	v.SetDefault("mjcf.converter", defaults.MJCF.Converter)
	v.SetDefault("mjcf.min_inertia", defaults.MJCF.MinInertia)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme)

	resolvedPath := ""

	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'urdfc config init' to create a default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, "", err
		}
		cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
		localCuePath := ConfigFileName + "." + ConfigFileExt
		switch {
		case fileExists(cuePath):
			resolvedPath = cuePath
		case fileExists(localCuePath):
			resolvedPath = localCuePath
		}
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'urdfc config show' to see the effective configuration").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check URDFC_* environment variables for typos").
			Wrap(errs[0]).
			BuildError()
	}

	if resolvedPath != "" {
		anchorFiles(&cfg, filepath.Dir(resolvedPath))
	}

	return &cfg, resolvedPath, nil
}

// anchorFiles makes relative package-map and package directory entries
// relative to the config file that named them.
func anchorFiles(cfg *Config, dir string) {
	abs := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	for i, f := range cfg.Packages.Files {
		cfg.Packages.Files[i] = abs(f)
	}
	for i, d := range cfg.Packages.Dirs {
		cfg.Packages.Dirs[i] = abs(d)
	}
	for name, p := range cfg.Packages.Paths {
		cfg.Packages.Paths[name] = abs(p)
	}
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// Config decodes to map[string]any with Concrete(false) since every field
// is optional, so cueutil.ParseAndDecode does not fit here.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}
	if err := checkPathKeys(configMap); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// checkPathKeys rejects packages.paths names with uppercase letters. Viper
// lowercases map keys, so such an entry would never match its package.
func checkPathKeys(configMap map[string]any) error {
	pkgs, _ := configMap["packages"].(map[string]any)
	paths, _ := pkgs["paths"].(map[string]any)
	var errs []error
	for name := range paths {
		if name != strings.ToLower(name) {
			errs = append(errs, fmt.Errorf(
				"packages.paths[%q]: names with uppercase letters are not supported here, use --pkg-path or packages.files", name))
		}
	}
	if len(errs) > 0 {
		sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
		return &InvalidPackagesConfigError{FieldErrors: errs}
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(cfgDir, 0o755)
}

// CreateDefaultConfig writes a default config file unless one exists and
// returns its path.
func CreateDefaultConfig() (string, error) {
	cfgPath, err := DefaultConfigPath()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, nil
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return cfgPath, nil
}

// Save writes the configuration to the default config file.
func Save(cfg *Config) error {
	cfgPath, err := DefaultConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// urdfc configuration file\n\n")

	sb.WriteString("packages: {\n")
	writeList(&sb, "dirs", cfg.Packages.Dirs)
	if len(cfg.Packages.Paths) > 0 {
		sb.WriteString("\tpaths: {\n")
		names := make([]string, 0, len(cfg.Packages.Paths))
		for name := range cfg.Packages.Paths {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&sb, "\t\t%q: %q\n", name, cfg.Packages.Paths[name])
		}
		sb.WriteString("\t}\n")
	}
	writeList(&sb, "files", cfg.Packages.Files)
	fmt.Fprintf(&sb, "\twalk_up: %v\n", cfg.Packages.WalkUp)
	sb.WriteString("}\n")

	sb.WriteString("\ncompile: {\n")
	fmt.Fprintf(&sb, "\tmax_runs: %d\n", cfg.Compile.MaxRuns)
	sb.WriteString("}\n")

	sb.WriteString("\noutput: {\n")
	fmt.Fprintf(&sb, "\tprotocol: %v\n", cfg.Output.Protocol)
	fmt.Fprintf(&sb, "\tpretty: %v\n", cfg.Output.Pretty)
	fmt.Fprintf(&sb, "\tcompare_existing: %v\n", cfg.Output.CompareExisting)
	fmt.Fprintf(&sb, "\treuse_asset_dir: %v\n", cfg.Output.ReuseAssetDir)
	sb.WriteString("}\n")

	if cfg.MJCF.Converter != "" || cfg.MJCF.MinInertia > 0 {
		sb.WriteString("\nmjcf: {\n")
		if cfg.MJCF.Converter != "" {
			fmt.Fprintf(&sb, "\tconverter: %q\n", cfg.MJCF.Converter)
		}
		if cfg.MJCF.MinInertia > 0 {
			fmt.Fprintf(&sb, "\tmin_inertia: %g\n", cfg.MJCF.MinInertia)
		}
		sb.WriteString("}\n")
	}

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	sb.WriteString("}\n")

	return sb.String()
}

func writeList(sb *strings.Builder, key string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "\t%s: [\n", key)
	for _, item := range items {
		fmt.Fprintf(sb, "\t\t%q,\n", item)
	}
	sb.WriteString("\t]\n")
}
