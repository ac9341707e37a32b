// SPDX-License-Identifier: MPL-2.0

package robotdoc

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
	"github.com/charmbracelet/log"

	"github.com/urdfc/urdfc/pkg/expand"
	"github.com/urdfc/urdfc/pkg/localize"
	"github.com/urdfc/urdfc/pkg/mjcf"
	"github.com/urdfc/urdfc/pkg/packages"
	"github.com/urdfc/urdfc/pkg/project"
	"github.com/urdfc/urdfc/pkg/resolve"
	"github.com/urdfc/urdfc/pkg/urdf"
	"github.com/urdfc/urdfc/pkg/xacro"
)

type (
	// Options configures compilation.
	Options struct {
		// Args are substitution arguments (name:=value).
		Args map[string]string
		// Locator resolves packages. FromFile registers a walk-up strategy
		// on it. A fresh Locator with the environment strategy is used when
		// nil.
		Locator *packages.Locator
		// Processor expands macro directives. Defaults to xacro.Default
		// wired to Locator.
		Processor xacro.Processor
		// MaxIterations bounds expansion passes; see expand.Expander.
		MaxIterations int
		// KeepPackages leaves package:// references unresolved.
		KeepPackages bool
		// NoWalkUp disables walk-up package discovery in FromFile.
		NoWalkUp bool
		Logger   *log.Logger
	}

	// Doc is a compiled robot description.
	Doc struct {
		doc     *urdf.Document
		locator *packages.Locator
		result  expand.Result
		logger  *log.Logger
	}
)

// FromText compiles text. Relative includes resolve against the working
// directory.
func FromText(text string, opts Options) (*Doc, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	return compile(text, wd, opts)
}

// FromFile compiles the file at path. Unless opts.NoWalkUp is set, packages
// enclosing path are discoverable with the highest priority.
func FromFile(path string, opts Options) (*Doc, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	opts.Locator = locatorFor(opts)
	if !opts.NoWalkUp {
		if err := opts.Locator.WalkUpFrom(abs, 0); err != nil {
			return nil, err
		}
	}
	return compile(string(data), filepath.Dir(abs), opts)
}

// FromPackageFile compiles the file at rel inside package pkg.
func FromPackageFile(pkg, rel string, opts Options) (*Doc, error) {
	opts.Locator = locatorFor(opts)
	path, err := opts.Locator.FilePath(pkg, rel)
	if err != nil {
		return nil, err
	}
	return FromFile(path, opts)
}

// FromIncludes compiles a document named name whose body includes each
// entry of includes. Entries may use $(find pkg) or package:// forms.
func FromIncludes(includes []string, name string, opts Options) (*Doc, error) {
	if name == "" {
		name = "robot"
	}
	tree := etree.NewDocument()
	tree.CreateProcInst("xml", `version="1.0"`)
	root := tree.CreateElement("robot")
	root.CreateAttr("name", name)
	root.CreateAttr("xmlns:xacro", xacro.Namespace)
	for _, inc := range includes {
		root.CreateElement("xacro:include").CreateAttr("filename", inc)
	}
	text, err := tree.WriteToString()
	if err != nil {
		return nil, fmt.Errorf("build include document: %w", err)
	}
	return FromText(text, opts)
}

func locatorFor(opts Options) *packages.Locator {
	if opts.Locator != nil {
		return opts.Locator
	}
	return packages.New(packages.WithLogger(opts.Logger))
}

func compile(text, rootDir string, opts Options) (*Doc, error) {
	loc := locatorFor(opts)
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	proc := opts.Processor
	if proc == nil {
		proc = &xacro.Default{Find: loc.Resolve}
	}

	exp := &expand.Expander{
		Processor:     proc,
		MaxIterations: opts.MaxIterations,
		RootDir:       rootDir,
		Logger:        logger,
	}
	res, err := exp.CompileWithResult(text, opts.Args)
	if err != nil {
		return nil, err
	}
	if !opts.KeepPackages {
		if err := resolve.New(loc).References(res.Document, resolve.Options{ResolvePackages: true}); err != nil {
			return nil, err
		}
	}
	return &Doc{doc: res.Document, locator: loc, result: res, logger: logger}, nil
}

// Document returns the compiled document. Mutations are visible to Doc.
func (d *Doc) Document() *urdf.Document { return d.doc }

// Locator returns the package locator used for compilation.
func (d *Doc) Locator() *packages.Locator { return d.locator }

// Result reports how expansion ended.
func (d *Doc) Result() expand.Result { return d.result }

// LocalizeAssets copies referenced files into dir and rewrites the document
// to point at the copies. A nil l reuses dir if it already exists.
func (d *Doc) LocalizeAssets(l *localize.Localizer, dir string) ([]localize.Record, error) {
	if l == nil {
		l = &localize.Localizer{AllowExisting: true, Logger: d.logger}
	}
	return l.Localize(d.doc, dir)
}

// String renders the document.
func (d *Doc) String(opts project.Options) (string, error) {
	return project.Render(d.doc, opts)
}

// WriteFile renders the document to path. With compare set, an identical
// existing file is not rewritten and written is false.
func (d *Doc) WriteFile(path string, opts project.Options, compare bool) (written bool, err error) {
	written, err = project.WriteFile(d.doc, path, opts, project.WriteOptions{CompareExisting: compare})
	if err != nil {
		return false, err
	}
	if !written {
		d.logger.Debug("output unchanged, not writing", "path", path)
	}
	return written, nil
}

// TempFile renders the document into a temporary .urdf file.
func (d *Doc) TempFile(opts project.Options) (path string, cleanup func() error, err error) {
	return project.TempFile(d.doc, opts)
}

// MJCF exports the document through conv.
func (d *Doc) MJCF(ctx context.Context, conv *mjcf.Converter, outPath string, opts mjcf.Options) error {
	return conv.Convert(ctx, d.doc, outPath, opts)
}
