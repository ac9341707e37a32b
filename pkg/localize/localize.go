// SPDX-License-Identifier: MPL-2.0

package localize

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/zeebo/blake3"

	"github.com/urdfc/urdfc/pkg/fspath"
	"github.com/urdfc/urdfc/pkg/types"
	"github.com/urdfc/urdfc/pkg/urdf"
)

// MaxNameAttempts bounds the numeric suffixes tried by UniqueName.
const MaxNameAttempts = 100

type (
	// Localizer copies referenced assets into a target directory.
	Localizer struct {
		// AllowExisting permits reusing a target directory that already
		// exists.
		AllowExisting bool
		// ByContent additionally merges distinct sources whose contents are
		// identical.
		ByContent bool
		Logger    *log.Logger
	}

	// Record describes one copied file.
	Record struct {
		// Source is the absolute path of the original file.
		Source string
		// Name is the destination basename inside the target directory.
		Name string
		// Path is the absolute destination path.
		Path string
		// Aliases lists other sources merged into this one by content.
		Aliases []string
		// References counts the elements rewritten to point at Path.
		References int
	}

	plan struct {
		records  []*Record
		bySource map[string]*Record
		byDigest map[[32]byte]*Record
		taken    map[string]struct{}
	}
)

// Localize copies every file referenced by doc into targetDir and rewrites
// the references to the copies. References that carried a protocol become
// file:// references; bare ones stay bare. package:// references must be
// resolved first.
func (l *Localizer) Localize(doc *urdf.Document, targetDir string) ([]Record, error) {
	dir, err := filepath.Abs(targetDir)
	if err != nil {
		return nil, fmt.Errorf("resolve target directory: %w", err)
	}
	if err := l.prepareDir(dir); err != nil {
		return nil, err
	}

	assets := doc.Assets()
	p := &plan{
		bySource: make(map[string]*Record),
		byDigest: make(map[[32]byte]*Record),
		taken:    make(map[string]struct{}),
	}
	targets := make([]*Record, len(assets))
	for i, asset := range assets {
		ref := asset.Reference()
		src, err := sourcePath(ref, doc.RootDir)
		if err != nil {
			return nil, err
		}
		rec, err := l.assign(p, src, dir)
		if err != nil {
			return nil, err
		}
		rec.References++
		targets[i] = rec
	}

	for i, asset := range assets {
		had := asset.Reference().HasProtocol()
		asset.SetReference(urdf.FileReference(filepath.ToSlash(targets[i].Path), had))
	}

	logger := l.logger()
	for _, rec := range p.records {
		if rec.Source == rec.Path {
			continue
		}
		if err := copyFile(rec.Source, rec.Path); err != nil {
			return nil, fmt.Errorf("copy %s: %w", rec.Source, err)
		}
		logger.Debug("localized asset", "source", rec.Source, "name", rec.Name, "references", rec.References)
	}

	out := make([]Record, len(p.records))
	for i, rec := range p.records {
		out[i] = *rec
	}
	return out, nil
}

func (l *Localizer) prepareDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("target %s is not a directory", dir)
	case err == nil && !l.AllowExisting:
		return &DirectoryExistsError{Path: dir}
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("stat target directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create target directory: %w", err)
	}
	return nil
}

// assign returns the record for src, creating it on first sight.
func (l *Localizer) assign(p *plan, src, dir string) (*Record, error) {
	if rec, ok := p.bySource[src]; ok {
		return rec, nil
	}

	var digest [32]byte
	if l.ByContent {
		var err error
		if digest, err = hashFile(src); err != nil {
			return nil, fmt.Errorf("hash %s: %w", src, err)
		}
		if rec, ok := p.byDigest[digest]; ok {
			rec.Aliases = append(rec.Aliases, src)
			p.bySource[src] = rec
			return rec, nil
		}
	}

	name, err := UniqueName(filepath.Base(src), p.taken)
	if err != nil {
		return nil, err
	}
	p.taken[name] = struct{}{}
	rec := &Record{Source: src, Name: name, Path: filepath.Join(dir, name)}
	p.records = append(p.records, rec)
	p.bySource[src] = rec
	if l.ByContent {
		p.byDigest[digest] = rec
	}
	return rec, nil
}

func (l *Localizer) logger() *log.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return log.New(io.Discard)
}

// UniqueName returns name if it is not in taken, otherwise the first free
// "stem_NNN.ext" variant for NNN in 1..MaxNameAttempts.
func UniqueName(name string, taken map[string]struct{}) (string, error) {
	if _, ok := taken[name]; !ok {
		return name, nil
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; i <= MaxNameAttempts; i++ {
		candidate := fmt.Sprintf("%s_%03d%s", stem, i, ext)
		if _, ok := taken[candidate]; !ok {
			return candidate, nil
		}
	}
	return "", &NameGenerationExhaustedError{Name: name, Attempts: MaxNameAttempts}
}

// sourcePath returns the symlink-resolved absolute path a reference points
// at, so links to one file share a single copy.
func sourcePath(ref urdf.Reference, rootDir string) (string, error) {
	if ref.Scheme == urdf.SchemePackage {
		return "", fmt.Errorf("%w: %s", ErrUnresolvedReference, ref)
	}
	p := filepath.FromSlash(ref.Path)
	if !filepath.IsAbs(p) {
		p = filepath.Join(rootDir, p)
	}
	resolved, err := fspath.Resolve(types.FilesystemPath(p))
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", ref, err)
	}
	return string(resolved), nil
}

func hashFile(path string) ([32]byte, error) {
	var sum [32]byte
	f, err := os.Open(path)
	if err != nil {
		return sum, err
	}
	defer func() { _ = f.Close() }()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return sum, err
	}
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close destination: %w", closeErr)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy contents: %w", err)
	}
	return nil
}
