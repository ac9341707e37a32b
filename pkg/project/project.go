// SPDX-License-Identifier: MPL-2.0

package project

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urdfc/urdfc/pkg/fspath"
	"github.com/urdfc/urdfc/pkg/types"
	"github.com/urdfc/urdfc/pkg/urdf"
)

type (
	// Options selects how references are written. The zero value renders
	// absolute bare paths without indentation; DefaultOptions is pretty.
	Options struct {
		// Protocol prefixes absolute paths with file://. Relative paths never
		// carry a protocol.
		Protocol bool
		// RelativeTo, when set, expresses references relative to this
		// directory. A file path means its parent directory.
		RelativeTo string
		// Pretty indents the output by two spaces.
		Pretty bool
	}

	// WriteOptions controls WriteFile.
	WriteOptions struct {
		// CompareExisting skips the write when the file already holds the
		// exact rendering.
		CompareExisting bool
	}
)

// DefaultOptions renders absolute paths without a protocol, indented.
func DefaultOptions() Options {
	return Options{Pretty: true}
}

// Render returns doc serialized with every reference projected per opts.
func Render(doc *urdf.Document, opts Options) (string, error) {
	cp, err := Project(doc, opts)
	if err != nil {
		return "", err
	}
	if opts.Pretty {
		return cp.Pretty()
	}
	return cp.Compact()
}

// Project returns a copy of doc with every reference rewritten per opts.
// package:// and foreign-scheme references are copied unchanged.
func Project(doc *urdf.Document, opts Options) (*urdf.Document, error) {
	var base types.FilesystemPath
	if opts.RelativeTo != "" {
		var err error
		if base, err = baseDir(opts.RelativeTo); err != nil {
			return nil, err
		}
	}

	cp := doc.Clone()
	for _, asset := range cp.Assets() {
		ref := asset.Reference()
		if ref.Scheme == urdf.SchemePackage || ref.Scheme == urdf.SchemeOther {
			continue
		}
		p := types.FilesystemPath(filepath.FromSlash(ref.Path))
		if !fspath.IsAbs(p) && cp.RootDir != "" {
			p = fspath.Join(types.FilesystemPath(cp.RootDir), p)
		}

		switch {
		case base != "" && fspath.IsAbs(p):
			rel, err := fspath.Rel(base, p)
			if err != nil {
				return nil, err
			}
			asset.SetReference(urdf.FileReference(fspath.ToSlash(rel), false))
		case filepath.IsAbs(filepath.FromSlash(ref.Path)):
			// Only the protocol token changes for references that were absolute.
			asset.SetReference(urdf.FileReference(ref.Path, opts.Protocol))
		case fspath.IsAbs(p):
			asset.SetReference(urdf.FileReference(fspath.ToSlash(p), opts.Protocol))
		default:
			asset.SetReference(urdf.FileReference(fspath.ToSlash(p), false))
		}
	}
	return cp, nil
}

// baseDir returns the absolute directory references are made relative to.
// An existing file, or a missing path with an extension, means its parent.
func baseDir(relativeTo string) (types.FilesystemPath, error) {
	abs, err := fspath.Abs(types.FilesystemPath(relativeTo))
	if err != nil {
		return "", err
	}
	info, err := os.Stat(string(abs))
	switch {
	case err == nil && !info.IsDir():
		return fspath.Dir(abs), nil
	case err == nil:
		return abs, nil
	case errors.Is(err, fs.ErrNotExist):
		if filepath.Ext(string(abs)) != "" {
			return fspath.Dir(abs), nil
		}
		return abs, nil
	default:
		return "", fmt.Errorf("stat %s: %w", abs, err)
	}
}

// WriteFile renders doc to path. With CompareExisting, an existing file
// holding the same bytes is left alone and written reports false. This
// avoids needless rewrites when several processes compile the same input;
// it does not make concurrent writes safe.
func WriteFile(doc *urdf.Document, path string, opts Options, wopts WriteOptions) (written bool, err error) {
	s, err := Render(doc, opts)
	if err != nil {
		return false, err
	}
	data := []byte(s)
	if wopts.CompareExisting {
		existing, err := os.ReadFile(path)
		if err == nil && bytes.Equal(existing, data) {
			return false, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return false, fmt.Errorf("read existing output: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write output: %w", err)
	}
	return true, nil
}

// TempFile renders doc into a new *.urdf file in the system temp directory.
// The returned cleanup removes it.
func TempFile(doc *urdf.Document, opts Options) (path string, cleanup func() error, err error) {
	s, err := Render(doc, opts)
	if err != nil {
		return "", nil, err
	}
	f, err := os.CreateTemp("", "urdfc-*.urdf")
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	path = f.Name()
	cleanup = func() error { return os.Remove(path) }
	if _, err := f.WriteString(s); err != nil {
		_ = f.Close()
		_ = cleanup()
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = cleanup()
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}
	return path, cleanup, nil
}
