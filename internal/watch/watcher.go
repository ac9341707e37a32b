// SPDX-License-Identifier: MPL-2.0

// Package watch recompiles on change: it monitors directories for files
// matching glob patterns and invokes a callback after a debounce period.
// Events within the window are coalesced so the callback fires once with the
// full set of changed paths.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce lets an editor's write-then-rename settle into one event batch.
const defaultDebounce = 300 * time.Millisecond

// ErrInvalidWatchConfig is the sentinel wrapped by InvalidWatchConfigError.
var ErrInvalidWatchConfig = errors.New("invalid watch config")

var (
	// defaultPatterns select robot description sources and the assets they reference.
	defaultPatterns = []string{
		"**/*.xacro",
		"**/*.urdf",
		"**/package.xml",
		"**/manifest.xml",
		"**/*.{stl,STL,dae,DAE,obj,OBJ}",
	}

	// defaultIgnores cover VCS metadata, colcon/catkin output trees and
	// editor swap files.
	defaultIgnores = []string{
		"**/.git/**",
		"**/build/**",
		"**/install/**",
		"**/log/**",
		"**/devel/**",
		"**/*.swp",
		"**/*.swo",
		"**/*~",
		"**/.DS_Store",
	}
)

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Roots are directories watched recursively. Empty means the
		// current working directory.
		Roots []string

		// Patterns are doublestar globs, relative to the root that contains
		// the path, selecting files that trigger a recompile. Empty uses
		// DefaultPatterns.
		Patterns []string

		// Ignore is merged with DefaultIgnores.
		Ignore []string

		// Skip lists absolute files or directories whose changes never
		// trigger, typically the compiler's own output.
		Skip []string

		// Debounce is the quiet period after the last event. Zero or
		// negative values fall back to defaultDebounce.
		Debounce time.Duration

		// ClearScreen writes an ANSI clear sequence to Stdout before each
		// callback. No terminal detection is performed.
		ClearScreen bool

		// OnChange receives the deduplicated absolute paths that changed.
		OnChange func(ctx context.Context, changed []string) error

		// Stdout receives the clear-screen sequence; nil means os.Stdout.
		Stdout io.Writer

		Logger *log.Logger
	}

	// InvalidWatchConfigError collects field-level Config errors.
	InvalidWatchConfigError struct {
		FieldErrors []error
	}

	// Watcher monitors directories and fires a debounced callback when
	// matching files change. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		patterns []string
		ignores  []string
		skip     []string
		stdout   io.Writer
		logger   *log.Logger
		debounce time.Duration
		started  atomic.Bool

		mu    sync.Mutex
		roots []string
	}
)

// Error implements the error interface.
func (e *InvalidWatchConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid watch config: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidWatchConfig for errors.Is() compatibility.
func (e *InvalidWatchConfigError) Unwrap() error { return ErrInvalidWatchConfig }

// Validate checks globs and rejects blank roots.
func (c Config) Validate() error {
	var errs []error
	for _, r := range c.Roots {
		if strings.TrimSpace(r) == "" {
			errs = append(errs, errors.New("root directory is empty"))
		}
	}
	errs = append(errs, validatePatterns(c.Patterns, "watch")...)
	errs = append(errs, validatePatterns(c.Ignore, "ignore")...)
	if len(errs) > 0 {
		return &InvalidWatchConfigError{FieldErrors: errs}
	}
	return nil
}

// New validates cfg, creates the fsnotify watcher and registers every
// non-ignored directory under each root.
func New(cfg Config) (*Watcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	roots := cfg.Roots
	if len(roots) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		roots = []string{wd}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		patterns: cfg.Patterns,
		ignores:  append(DefaultIgnores(), cfg.Ignore...),
		stdout:   cfg.Stdout,
		logger:   cfg.Logger,
		debounce: cfg.Debounce,
	}
	if len(w.patterns) == 0 {
		w.patterns = DefaultPatterns()
	}
	if w.stdout == nil {
		w.stdout = os.Stdout
	}
	if w.logger == nil {
		w.logger = log.New(io.Discard)
	}
	if w.debounce <= 0 {
		w.debounce = defaultDebounce
	}
	for _, s := range cfg.Skip {
		if abs, err := filepath.Abs(s); err == nil {
			w.skip = append(w.skip, abs)
		}
	}

	for _, r := range roots {
		if err := w.Add(r); err != nil {
			if closeErr := fsw.Close(); closeErr != nil {
				w.logger.Warn("close watcher after init failure", "err", closeErr)
			}
			return nil, err
		}
	}

	return w, nil
}

// Add registers another root directory. Roots already covered by an
// existing root are ignored. It is safe to call while Run is active.
func (w *Watcher) Add(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("watch: resolve root %q: %w", root, err)
	}

	w.mu.Lock()
	if w.rootOf(abs) != "" {
		w.mu.Unlock()
		return nil
	}
	w.roots = append(w.roots, abs)
	w.mu.Unlock()

	return w.addDirectories(abs)
}

// Roots returns the registered root directories.
func (w *Watcher) Roots() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.roots)
}

// Run blocks until ctx is cancelled, processing filesystem events and
// dispatching debounced callbacks. It returns nil on cancellation and
// propagates fatal watcher errors.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire may run after cancellation (time.AfterFunc), hence the ctx check.
	// A busy callback reschedules instead of running concurrently.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.logger.Info("previous compile still running, retrying after debounce")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.cfg.ClearScreen {
			fmt.Fprint(w.stdout, "\033[2J\033[H")
		}

		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.logger.Error("recompile failed", "err", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if closeErr := w.fsw.Close(); closeErr != nil {
			w.logger.Warn("close fsnotify", "err", closeErr)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			if evt.Has(fsnotify.Chmod) && !evt.Has(fsnotify.Write) {
				continue
			}
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}
			if !w.relevant(evt.Name) {
				continue
			}
			w.logger.Debug("change detected", "path", evt.Name, "op", evt.Op.String())

			mu.Lock()
			pending[evt.Name] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			// isFatalFsnotifyError is platform-specific (see watcher_fatal_*.go).
			if isFatalFsnotifyError(err) {
				if hint := fatalHint(err); hint != "" {
					return fmt.Errorf("watch: fatal fsnotify error (%s): %w", hint, err)
				}
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

// relevant reports whether a change to the absolute path should trigger.
func (w *Watcher) relevant(path string) bool {
	for _, s := range w.skip {
		if path == s || strings.HasPrefix(path, s+string(filepath.Separator)) {
			return false
		}
	}
	w.mu.Lock()
	root := w.rootOf(path)
	w.mu.Unlock()
	if root == "" {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return !matchAny(w.ignores, rel) && matchAny(w.patterns, rel)
}

// rootOf returns the longest registered root containing path. Callers hold w.mu.
func (w *Watcher) rootOf(path string) string {
	best := ""
	for _, r := range w.roots {
		if (path == r || strings.HasPrefix(path, r+string(filepath.Separator))) && len(r) > len(best) {
			best = r
		}
	}
	return best
}

// addDirectories walks root and adds every non-ignored directory.
// Pattern filtering happens per event, not here.
func (w *Watcher) addDirectories(root string) error {
	walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			w.logger.Warn("skipping inaccessible path", "path", path, "err", walkDirErr)
			return nil //nolint:nilerr // intentional skip of inaccessible paths
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil //nolint:nilerr // skip paths that cannot be made relative
		}
		if w.ignoredDir(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk directory tree: %w", walkErr)
	}
	return nil
}

// maybeAddDir extends the watch to directories created after startup.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	w.mu.Lock()
	root := w.rootOf(path)
	w.mu.Unlock()
	if root == "" {
		return
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || w.ignoredDir(filepath.ToSlash(rel)) {
		return
	}
	if err := w.addDirectories(path); err != nil {
		w.logger.Warn("add new directory", "path", path, "err", err)
	}
}

func (w *Watcher) ignoredDir(rel string) bool {
	if rel == "." {
		return false
	}
	return matchAny(w.ignores, rel) || matchAny(w.ignores, rel+"/")
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if matched, err := doublestar.Match(pat, rel); err == nil && matched {
			return true
		}
	}
	return false
}

// DefaultPatterns returns a copy of the built-in watch patterns.
func DefaultPatterns() []string {
	return slices.Clone(defaultPatterns)
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

func validatePatterns(patterns []string, label string) []error {
	var errs []error
	for _, pat := range patterns {
		if pat == "" || !doublestar.ValidatePattern(pat) {
			errs = append(errs, fmt.Errorf("invalid %s pattern %q", label, pat))
		}
	}
	return errs
}
