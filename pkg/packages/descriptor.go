// SPDX-License-Identifier: MPL-2.0

package packages

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const (
	// PackageFile is the catkin/ament package descriptor.
	PackageFile = "package.xml"
	// ManifestFile is the legacy rosbuild descriptor. A directory holding one
	// is a package named after the directory.
	ManifestFile = "manifest.xml"
)

// ignoreMarkers stop a crawl from descending into a directory.
var ignoreMarkers = []string{"CATKIN_IGNORE", "COLCON_IGNORE", "AMENT_IGNORE"}

// ReadPackageName parses the package name declared by the package.xml at path.
func ReadPackageName(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &DescriptorError{Path: path, Reason: "read failed", Err: err}
	}
	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(data); err != nil {
		return "", &DescriptorError{Path: path, Reason: "malformed XML", Err: err}
	}
	root := tree.Root()
	if root == nil {
		return "", &DescriptorError{Path: path, Reason: "no root element"}
	}
	names := root.SelectElements("name")
	if len(names) != 1 {
		return "", &DescriptorError{
			Path:   path,
			Reason: "expected exactly one <name>, found " + strconv.Itoa(len(names)),
		}
	}
	name := strings.TrimSpace(names[0].Text())
	if name == "" {
		return "", &DescriptorError{Path: path, Reason: "empty <name>"}
	}
	return name, nil
}

// describeDir inspects dir for a package descriptor. It returns the package
// name and true when dir is a package.
func describeDir(dir string) (string, bool, error) {
	pkgXML := filepath.Join(dir, PackageFile)
	if exists(pkgXML) {
		name, err := ReadPackageName(pkgXML)
		if err != nil {
			return "", false, err
		}
		return name, true, nil
	}
	if exists(filepath.Join(dir, ManifestFile)) {
		return filepath.Base(dir), true, nil
	}
	return "", false, nil
}

func ignored(dir string) bool {
	for _, m := range ignoreMarkers {
		if exists(filepath.Join(dir, m)) {
			return true
		}
	}
	return false
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
