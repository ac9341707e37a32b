// SPDX-License-Identifier: MPL-2.0

package packages

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/urdfc/urdfc/pkg/fspath"
	"github.com/urdfc/urdfc/pkg/types"
)

type (
	// Locator resolves package names to absolute directories.
	//
	// A Locator is safe for concurrent Resolve calls: racing cache writes
	// store the same value. Reset must not run while a compilation that
	// shares the Locator is in flight.
	Locator struct {
		mu       sync.RWMutex
		finders  []Finder
		cache    map[string]string
		defaults func() []Finder
		logger   *log.Logger
	}

	// Entry is one cached name-to-path mapping.
	Entry struct {
		Name string
		Path string
	}

	// Option configures a Locator.
	Option func(*Locator)
)

// WithLogger sets the logger used for strategy diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(loc *Locator) {
		if l != nil {
			loc.logger = l
		}
	}
}

// WithEnv makes the default EnvFinder read variables through getenv.
func WithEnv(getenv func(string) string) Option {
	return func(loc *Locator) {
		loc.defaults = func() []Finder { return []Finder{NewEnvFinder(getenv)} }
	}
}

// WithDefaultFinders replaces the default strategy list restored by New and
// Reset. Passing no finders leaves the Locator with no strategies.
func WithDefaultFinders(finders ...Finder) Option {
	return func(loc *Locator) {
		loc.defaults = func() []Finder { return slices.Clone(finders) }
	}
}

// New creates a Locator holding only the default platform strategy.
func New(opts ...Option) *Locator {
	loc := &Locator{
		defaults: func() []Finder { return []Finder{NewEnvFinder(nil)} },
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(loc)
	}
	loc.finders = loc.defaults()
	loc.cache = make(map[string]string)
	return loc
}

// Resolve returns the directory of the named package. The cache is consulted
// first; otherwise strategies run in list order and the first answer is
// cached. When every strategy fails the result is a *PackageNotFoundError.
func (l *Locator) Resolve(name string) (string, error) {
	l.mu.RLock()
	if path, ok := l.cache[name]; ok {
		l.mu.RUnlock()
		return path, nil
	}
	finders := slices.Clone(l.finders)
	l.mu.RUnlock()

	var causes []error
	for _, f := range finders {
		path, err := f.Find(name)
		if err == nil {
			l.logger.Debug("resolved package", "name", name, "path", path, "strategy", f.String())
			l.mu.Lock()
			l.cache[name] = path
			l.mu.Unlock()
			return path, nil
		}

		var nf *PackageNotFoundError
		switch {
		case errors.As(err, &nf):
			causes = append(causes, nf.Causes...)
		case errors.Is(err, ErrPackageNotFound):
		default:
			l.logger.Warn("package strategy failed", "name", name, "strategy", f.String(), "error", err)
			causes = append(causes, err)
		}
	}
	return "", &PackageNotFoundError{Name: name, Causes: causes}
}

// FilePath returns the path of rel inside the named package.
func (l *Locator) FilePath(name, rel string) (string, error) {
	root, err := l.Resolve(name)
	if err != nil {
		return "", err
	}
	return string(fspath.JoinStr(types.FilesystemPath(root), rel)), nil
}

// LookIn inserts a strategy crawling paths at the given priority. Lower
// priorities are tried first; 0 puts the strategy ahead of all others.
// Existing strategies at or after priority shift down.
func (l *Locator) LookIn(paths []string, priority int) {
	l.insert(NewDirFinder(paths), priority)
}

// WalkUpFrom inserts a strategy that climbs from start toward the filesystem
// root looking for the enclosing package.
func (l *Locator) WalkUpFrom(start string, priority int) error {
	f, err := NewWalkUpFinder(start)
	if err != nil {
		return fmt.Errorf("walk up from %s: %w", start, err)
	}
	l.insert(f, priority)
	return nil
}

// AddFinder inserts a custom strategy at the given priority.
func (l *Locator) AddFinder(f Finder, priority int) {
	l.insert(f, priority)
}

func (l *Locator) insert(f Finder, priority int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	priority = max(0, min(priority, len(l.finders)))
	l.finders = slices.Insert(l.finders, priority, f)
}

// RegisterOverrides maps package names directly to paths. Paths are made
// absolute and symlink-resolved now, and take precedence over every
// strategy on later lookups.
func (l *Locator) RegisterOverrides(paths map[string]string) error {
	resolved := make(map[string]string, len(paths))
	for name, p := range paths {
		if err := types.PackageName(name).Validate(); err != nil {
			return err
		}
		abs, err := fspath.Resolve(types.FilesystemPath(p))
		if err != nil {
			return fmt.Errorf("package %s: %w", name, err)
		}
		resolved[name] = string(abs)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for name, p := range resolved {
		l.cache[name] = p
	}
	return nil
}

// Reset discards all strategies and cached entries, leaving only the
// default strategy.
func (l *Locator) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.finders = l.defaults()
	l.cache = make(map[string]string)
}

// Entries returns a snapshot of the cache sorted by name.
func (l *Locator) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, 0, len(l.cache))
	for name, path := range l.cache {
		out = append(out, Entry{Name: name, Path: path})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Strategies describes the registered strategies in lookup order.
func (l *Locator) Strategies() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, len(l.finders))
	for i, f := range l.finders {
		out[i] = f.String()
	}
	return out
}
