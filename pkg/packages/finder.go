// SPDX-License-Identifier: MPL-2.0

package packages

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/urdfc/urdfc/pkg/fspath"
	"github.com/urdfc/urdfc/pkg/types"
)

const (
	// EnvAmentPrefixPath lists ROS 2 install prefixes.
	EnvAmentPrefixPath = "AMENT_PREFIX_PATH"
	// EnvROSPackagePath lists ROS 1 package roots.
	EnvROSPackagePath = "ROS_PACKAGE_PATH"

	amentIndexDir = "share/ament_index/resource_index/packages"
)

type (
	// Finder is one lookup strategy. Find returns the package directory, or
	// an error wrapping ErrPackageNotFound when the strategy has no answer.
	Finder interface {
		Find(name string) (string, error)
		String() string
	}

	// FinderFunc adapts a function to the Finder interface.
	FinderFunc struct {
		Name string
		Fn   func(name string) (string, error)
	}

	// DirFinder crawls a set of root directories for packages. The crawl runs
	// once, on first use; the first root (and the first directory in lexical
	// walk order within a root) to declare a name wins.
	DirFinder struct {
		roots []string

		once  sync.Once
		index map[string]string
		errs  []error
	}

	// WalkUpFinder climbs from a start directory toward the filesystem root,
	// checking each level for a descriptor naming the requested package.
	WalkUpFinder struct {
		start string
	}

	// EnvFinder is the platform default. It consults AMENT_PREFIX_PATH
	// install prefixes first, then crawls ROS_PACKAGE_PATH roots.
	EnvFinder struct {
		getenv func(string) string

		once   sync.Once
		crawl  *DirFinder
		prefix []string
	}
)

// Find calls the wrapped function.
func (f FinderFunc) Find(name string) (string, error) { return f.Fn(name) }

// String returns the finder description.
func (f FinderFunc) String() string { return f.Name }

// NewDirFinder returns a DirFinder over roots. Empty entries are ignored.
func NewDirFinder(roots []string) *DirFinder {
	clean := make([]string, 0, len(roots))
	for _, r := range roots {
		if strings.TrimSpace(r) != "" {
			clean = append(clean, r)
		}
	}
	return &DirFinder{roots: clean}
}

// Find returns the directory of the named package under the crawled roots.
func (f *DirFinder) Find(name string) (string, error) {
	f.once.Do(f.build)
	if dir, ok := f.index[name]; ok {
		return dir, nil
	}
	if len(f.errs) > 0 {
		return "", &PackageNotFoundError{Name: name, Causes: f.errs}
	}
	return "", notFound(name)
}

// String describes the finder.
func (f *DirFinder) String() string {
	return "directories " + strings.Join(f.roots, string(os.PathListSeparator))
}

func (f *DirFinder) build() {
	f.index = make(map[string]string)
	for _, root := range f.roots {
		abs, err := fspath.Resolve(types.FilesystemPath(root))
		if err != nil {
			f.errs = append(f.errs, err)
			continue
		}
		f.crawl(string(abs))
	}
}

func (f *DirFinder) crawl(root string) {
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped; a missing root is not an error.
			return nil //nolint:nilerr // best-effort crawl
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if ignored(path) {
			return filepath.SkipDir
		}
		name, ok, descErr := describeDir(path)
		if descErr != nil {
			f.errs = append(f.errs, descErr)
			return filepath.SkipDir
		}
		if !ok {
			return nil
		}
		if _, taken := f.index[name]; !taken {
			f.index[name] = path
		}
		// Packages are not nested.
		return filepath.SkipDir
	})
	if walkErr != nil {
		f.errs = append(f.errs, fmt.Errorf("crawl %s: %w", root, walkErr))
	}
}

// NewWalkUpFinder returns a finder starting at start. A file start uses its
// containing directory. The start is resolved to an absolute, symlink-free
// path immediately.
func NewWalkUpFinder(start string) (*WalkUpFinder, error) {
	resolved, err := fspath.Resolve(types.FilesystemPath(start))
	if err != nil {
		return nil, err
	}
	dir := string(resolved)
	if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	return &WalkUpFinder{start: dir}, nil
}

// Find walks from the start directory to the filesystem root. A broken
// package.xml is recorded as a cause and the walk continues upward.
func (f *WalkUpFinder) Find(name string) (string, error) {
	var causes []error
	dir := f.start
	for {
		if exists(filepath.Join(dir, PackageFile)) {
			declared, err := ReadPackageName(filepath.Join(dir, PackageFile))
			switch {
			case err != nil:
				causes = append(causes, err)
			case declared == name:
				return dir, nil
			}
		}
		if exists(filepath.Join(dir, ManifestFile)) && filepath.Base(dir) == name {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", &PackageNotFoundError{Name: name, Causes: causes}
		}
		dir = parent
	}
}

// String describes the finder.
func (f *WalkUpFinder) String() string { return "walk up from " + f.start }

// NewEnvFinder returns the platform default finder reading variables through
// getenv. A nil getenv uses os.Getenv.
func NewEnvFinder(getenv func(string) string) *EnvFinder {
	if getenv == nil {
		getenv = os.Getenv
	}
	return &EnvFinder{getenv: getenv}
}

// Find checks every ament prefix, then the ROS_PACKAGE_PATH crawl.
func (f *EnvFinder) Find(name string) (string, error) {
	f.once.Do(func() {
		f.prefix = splitList(f.getenv(EnvAmentPrefixPath))
		f.crawl = NewDirFinder(splitList(f.getenv(EnvROSPackagePath)))
	})

	for _, prefix := range f.prefix {
		share := filepath.Join(prefix, "share", name)
		if exists(filepath.Join(prefix, filepath.FromSlash(amentIndexDir), name)) ||
			exists(filepath.Join(share, PackageFile)) {
			return share, nil
		}
	}
	return f.crawl.Find(name)
}

// String describes the finder.
func (f *EnvFinder) String() string {
	return "environment (" + EnvAmentPrefixPath + ", " + EnvROSPackagePath + ")"
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	return filepath.SplitList(v)
}
