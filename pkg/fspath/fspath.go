// SPDX-License-Identifier: MPL-2.0

// Package fspath provides typed wrappers around path/filepath functions that
// accept and return types.FilesystemPath, plus the symlink-resolving
// normalization used for package roots and asset sources.
package fspath

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/urdfc/urdfc/pkg/types"
)

// Join wraps filepath.Join, accepting and returning types.FilesystemPath.
func Join(elem ...types.FilesystemPath) types.FilesystemPath {
	strs := make([]string, len(elem))
	for i, e := range elem {
		strs[i] = string(e)
	}
	return types.FilesystemPath(filepath.Join(strs...))
}

// JoinStr wraps filepath.Join, accepting a typed base path and raw string
// segments such as descriptor file names or slash-separated asset paths.
func JoinStr(base types.FilesystemPath, elem ...string) types.FilesystemPath {
	parts := make([]string, 1, 1+len(elem))
	parts[0] = string(base)
	for _, e := range elem {
		parts = append(parts, filepath.FromSlash(e))
	}
	return types.FilesystemPath(filepath.Join(parts...))
}

// Dir wraps filepath.Dir for FilesystemPath.
func Dir(p types.FilesystemPath) types.FilesystemPath {
	return types.FilesystemPath(filepath.Dir(string(p)))
}

// Base wraps filepath.Base for FilesystemPath.
func Base(p types.FilesystemPath) string {
	return filepath.Base(string(p))
}

// Abs wraps filepath.Abs for FilesystemPath. Returns an error if the
// underlying OS call fails.
func Abs(p types.FilesystemPath) (types.FilesystemPath, error) {
	abs, err := filepath.Abs(string(p))
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}
	return types.FilesystemPath(abs), nil
}

// Resolve returns the absolute path of p with symlinks evaluated. A path
// that does not exist yet resolves to its cleaned absolute form.
func Resolve(p types.FilesystemPath) (types.FilesystemPath, error) {
	abs, err := Abs(p)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(string(abs))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return abs, nil
		}
		return "", fmt.Errorf("resolving symlinks in %s: %w", abs, err)
	}
	return types.FilesystemPath(resolved), nil
}

// Rel wraps filepath.Rel for FilesystemPath.
func Rel(base, target types.FilesystemPath) (types.FilesystemPath, error) {
	rel, err := filepath.Rel(string(base), string(target))
	if err != nil {
		return "", fmt.Errorf("relating %s to %s: %w", target, base, err)
	}
	return types.FilesystemPath(rel), nil
}

// IsAbs wraps filepath.IsAbs for FilesystemPath.
func IsAbs(p types.FilesystemPath) bool {
	return filepath.IsAbs(string(p))
}

// ToSlash wraps filepath.ToSlash. Document references always carry
// forward slashes regardless of the host separator.
func ToSlash(p types.FilesystemPath) string {
	return filepath.ToSlash(string(p))
}
