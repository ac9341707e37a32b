// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urdfc/urdfc/pkg/cueutil"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnknownPackageMapFormat is returned for package-map files whose
// extension is not .cue, .toml, .yaml or .yml.
var ErrUnknownPackageMapFormat = errors.New("unknown package map format")

// PackageMap pins package names to directories. All three file formats
// share the same shape:
//
//	packages: {
//		robot_models: "/robots/model_a"
//	}
type PackageMap struct {
	Packages map[string]string `json:"packages" toml:"packages" yaml:"packages"`
	Comment  string            `json:"comment,omitempty" toml:"comment" yaml:"comment"`
}

// LoadPackageMap reads a package-map file. Relative directories are taken
// relative to the file's own directory.
func LoadPackageMap(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read package map: %w", err)
	}

	var pm PackageMap
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".cue":
		res, err := cueutil.ParseAndDecode[PackageMap]([]byte(configSchema), data, "#PackageMap", cueutil.WithFilename(path))
		if err != nil {
			return nil, err
		}
		pm = *res.Value
	case ".toml":
		if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
			return nil, err
		}
		if err := toml.Unmarshal(data, &pm); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &pm); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w %q: %s", ErrUnknownPackageMapFormat, ext, path)
	}

	if valid, errs := (PackagesConfig{Paths: pm.Packages}).IsValid(); !valid {
		return nil, fmt.Errorf("%s: %w", path, errs[0])
	}

	dir := filepath.Dir(path)
	out := make(map[string]string, len(pm.Packages))
	for name, p := range pm.Packages {
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		out[name] = p
	}
	return out, nil
}

// PackagePaths merges the configured package-map files with the inline
// paths. Inline paths win over file entries.
func (c PackagesConfig) PackagePaths() (map[string]string, error) {
	out := make(map[string]string)
	for _, f := range c.Files {
		m, err := LoadPackageMap(f)
		if err != nil {
			return nil, err
		}
		for k, v := range m {
			out[k] = v
		}
	}
	for k, v := range c.Paths {
		out[k] = v
	}
	return out, nil
}
