// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urdfc/urdfc/pkg/expand"
	"github.com/urdfc/urdfc/pkg/types"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidMaxRuns is returned when compile.max_runs is below one.
	ErrInvalidMaxRuns = errors.New("invalid max runs")
	// ErrInvalidMinInertia is returned when mjcf.min_inertia is negative.
	ErrInvalidMinInertia = errors.New("invalid minimum inertia")
	// ErrInvalidPackagesConfig is the sentinel error wrapped by InvalidPackagesConfigError.
	ErrInvalidPackagesConfig = errors.New("invalid packages config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidMaxRunsError is returned when the expansion budget is below one.
	InvalidMaxRunsError struct {
		Value int
	}

	// InvalidMinInertiaError is returned when the inertia clamp is negative.
	InvalidMinInertiaError struct {
		Value float64
	}

	// InvalidPackagesConfigError collects field-level errors of PackagesConfig.
	InvalidPackagesConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Packages configures package discovery.
		Packages PackagesConfig `json:"packages" mapstructure:"packages"`
		// Compile configures the expansion loop.
		Compile CompileConfig `json:"compile" mapstructure:"compile"`
		// Output configures how compiled documents are rendered.
		Output OutputConfig `json:"output" mapstructure:"output"`
		// MJCF configures the MuJoCo conversion step.
		MJCF MJCFConfig `json:"mjcf" mapstructure:"mjcf"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// PackagesConfig lists where ROS packages are looked up.
	PackagesConfig struct {
		// Dirs are crawled for package descriptors, highest priority first.
		Dirs []string `json:"dirs" mapstructure:"dirs"`
		// Paths pins package names to directories.
		Paths map[string]string `json:"paths" mapstructure:"paths"`
		// Files are package-map files (.cue, .toml, .yaml, .yml).
		Files []string `json:"files" mapstructure:"files"`
		// WalkUp enables discovery of the input file's own package.
		WalkUp bool `json:"walk_up" mapstructure:"walk_up"`
	}

	// CompileConfig configures the fixed-point expander.
	CompileConfig struct {
		MaxRuns int `json:"max_runs" mapstructure:"max_runs"`
	}

	// OutputConfig configures rendering.
	OutputConfig struct {
		// Protocol prefixes absolute paths with file://.
		Protocol bool `json:"protocol" mapstructure:"protocol"`
		// Pretty indents the output.
		Pretty bool `json:"pretty" mapstructure:"pretty"`
		// CompareExisting skips writing when the target already holds the same text.
		CompareExisting bool `json:"compare_existing" mapstructure:"compare_existing"`
		// ReuseAssetDir lets compile copy assets into an existing directory.
		ReuseAssetDir bool `json:"reuse_asset_dir" mapstructure:"reuse_asset_dir"`
	}

	// MJCFConfig configures the external URDF to MJCF converter.
	MJCFConfig struct {
		// Converter is the command line; {in} and {out} are replaced by file paths.
		Converter string `json:"converter" mapstructure:"converter"`
		// MinInertia clamps diagonal inertia entries from below when positive.
		MinInertia float64 `json:"min_inertia" mapstructure:"min_inertia"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// Verbose enables debug logging
		Verbose bool `json:"verbose" mapstructure:"verbose"`
		// ColorScheme selects the markdown style used by reports.
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
	}
)

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

func (e *InvalidMaxRunsError) Error() string {
	return fmt.Sprintf("compile.max_runs must be at least 1, got %d", e.Value)
}

func (e *InvalidMaxRunsError) Unwrap() error { return ErrInvalidMaxRuns }

func (e *InvalidMinInertiaError) Error() string {
	return fmt.Sprintf("mjcf.min_inertia must not be negative, got %g", e.Value)
}

func (e *InvalidMinInertiaError) Unwrap() error { return ErrInvalidMinInertia }

// IsValid checks package names in Paths and rejects blank directories.
func (c PackagesConfig) IsValid() (bool, []error) {
	var errs []error
	for name, dir := range c.Paths {
		if err := types.PackageName(name).Validate(); err != nil {
			errs = append(errs, err)
		}
		if strings.TrimSpace(dir) == "" {
			errs = append(errs, fmt.Errorf("packages.paths[%q]: empty directory", name))
		}
	}
	for i, dir := range c.Dirs {
		if strings.TrimSpace(dir) == "" {
			errs = append(errs, fmt.Errorf("packages.dirs[%d]: empty directory", i))
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidPackagesConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidPackagesConfigError.
func (e *InvalidPackagesConfigError) Error() string {
	return fmt.Sprintf("invalid packages config: %s", joinErrors(e.FieldErrors))
}

// Unwrap returns ErrInvalidPackagesConfig for errors.Is() compatibility.
func (e *InvalidPackagesConfigError) Unwrap() error { return ErrInvalidPackagesConfig }

// IsValid returns whether the Config has valid fields.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Packages.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.Compile.MaxRuns < 1 {
		errs = append(errs, &InvalidMaxRunsError{Value: c.Compile.MaxRuns})
	}
	if c.MJCF.MinInertia < 0 {
		errs = append(errs, &InvalidMinInertiaError{Value: c.MJCF.MinInertia})
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s", joinErrors(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

func joinErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Packages: PackagesConfig{
			Dirs:   []string{},
			Paths:  map[string]string{},
			Files:  []string{},
			WalkUp: true,
		},
		Compile: CompileConfig{
			MaxRuns: expand.DefaultMaxIterations,
		},
		Output: OutputConfig{
			Protocol:        false,
			Pretty:          true,
			CompareExisting: false,
			ReuseAssetDir:   false,
		},
		UI: UIConfig{
			Verbose:     false,
			ColorScheme: ColorSchemeAuto,
		},
	}
}
