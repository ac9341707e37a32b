// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/urdfc/urdfc/pkg/fspath"
	"github.com/urdfc/urdfc/pkg/types"
	"github.com/urdfc/urdfc/pkg/urdf"
)

// ErrInvalidReference is the sentinel error wrapped by InvalidReferenceError.
var ErrInvalidReference = errors.New("invalid resource reference")

// packageToken matches a package:// prefix and the name that follows it.
// The name runs to the next '/' or quote so names with whitespace are
// caught and rejected rather than silently truncated.
var packageToken = regexp.MustCompile(`package://([^/"'<>]*)`)

type (
	// PackageLocator maps a package name to its absolute root directory.
	PackageLocator interface {
		Resolve(name string) (string, error)
	}

	// LocatorFunc adapts a function to the PackageLocator interface.
	LocatorFunc func(name string) (string, error)

	// Options selects which transformations References applies.
	Options struct {
		// ResolvePackages rewrites package:// references to file:// ones.
		ResolvePackages bool
		// StripProtocol removes any scheme:// prefix after resolution.
		StripProtocol bool
	}

	// Resolver rewrites references in documents.
	Resolver struct {
		Locator PackageLocator
	}

	// InvalidReferenceError is returned for a package reference whose name
	// the protocol cannot carry.
	InvalidReferenceError struct {
		Value  string
		Reason string
	}
)

// Resolve calls f.
func (f LocatorFunc) Resolve(name string) (string, error) { return f(name) }

// Error implements the error interface.
func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid reference %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidReference for errors.Is() compatibility.
func (e *InvalidReferenceError) Unwrap() error { return ErrInvalidReference }

// New returns a Resolver backed by loc.
func New(loc PackageLocator) *Resolver {
	return &Resolver{Locator: loc}
}

// References rewrites every resource reference in doc in place. Package
// resolution runs before protocol stripping, so a package reference can end
// up as a bare absolute path. The first error aborts the walk.
func (r *Resolver) References(doc *urdf.Document, opts Options) error {
	for _, asset := range doc.Assets() {
		ref, err := r.Reference(asset.Reference(), opts)
		if err != nil {
			return err
		}
		asset.SetReference(ref)
	}
	return nil
}

// Reference applies opts to a single reference.
func (r *Resolver) Reference(ref urdf.Reference, opts Options) (urdf.Reference, error) {
	if opts.ResolvePackages && ref.Scheme == urdf.SchemePackage {
		abs, err := r.packagePath(ref)
		if err != nil {
			return ref, err
		}
		ref = urdf.Reference{Scheme: urdf.SchemeFile, Path: abs}
	}
	if opts.StripProtocol {
		ref = ref.Strip()
	}
	return ref, nil
}

func (r *Resolver) packagePath(ref urdf.Reference) (string, error) {
	name, rel, _ := ref.Package()
	root, err := r.lookup(name, ref.String())
	if err != nil {
		return "", err
	}
	if rel == "" {
		return root, nil
	}
	return path.Join(root, rel), nil
}

func (r *Resolver) lookup(name, value string) (string, error) {
	if err := types.PackageName(name).Validate(); err != nil {
		var nameErr *types.InvalidPackageNameError
		if errors.As(err, &nameErr) {
			return "", &InvalidReferenceError{Value: value, Reason: nameErr.Reason}
		}
		return "", &InvalidReferenceError{Value: value, Reason: err.Error()}
	}
	if r.Locator == nil {
		return "", fmt.Errorf("resolve %q: no package locator configured", value)
	}
	root, err := r.Locator.Resolve(name)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", value, err)
	}
	return fspath.ToSlash(types.FilesystemPath(root)), nil
}

// Text replaces every package://name occurrence in s with the package's
// absolute root directory. The rest of the path is left as written.
func (r *Resolver) Text(s string) (string, error) {
	if !strings.Contains(s, urdf.PackagePrefix) {
		return s, nil
	}
	var err error
	out := packageToken.ReplaceAllStringFunc(s, func(m string) string {
		if err != nil {
			return m
		}
		var root string
		root, err = r.lookup(strings.TrimPrefix(m, urdf.PackagePrefix), m)
		return root
	})
	if err != nil {
		return "", err
	}
	return out, nil
}
