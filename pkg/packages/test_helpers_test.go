// SPDX-License-Identifier: MPL-2.0

package packages

import (
	"os"
	"path/filepath"
	"testing"
)

// writeFile creates parent directories and writes content to root/rel.
func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// makePackage creates dir/package.xml declaring name and returns the
// symlink-resolved package directory.
func makePackage(t *testing.T, dir, name string) string {
	t.Helper()
	writeFile(t, dir, PackageFile, "<package format=\"3\">\n  <name>"+name+"</name>\n  <version>0.1.0</version>\n</package>\n")
	return realPath(t, dir)
}

func realPath(t *testing.T, p string) string {
	t.Helper()
	r, err := filepath.EvalSymlinks(p)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

// emptyLocator returns a Locator without any strategies.
func emptyLocator() *Locator {
	return New(WithDefaultFinders())
}
