// SPDX-License-Identifier: MPL-2.0

package urdf

import (
	"fmt"
	"strings"
)

const (
	// SchemeNone is a bare path without a protocol prefix.
	SchemeNone Scheme = iota
	// SchemeFile is a file:// reference to an absolute path.
	SchemeFile
	// SchemePackage is a package://<name>/<relative-path> reference.
	SchemePackage
	// SchemeOther is any other scheme://; the token is kept in Reference.Token.
	SchemeOther
)

const (
	// FilePrefix is the protocol prefix of file references.
	FilePrefix = "file://"
	// PackagePrefix is the protocol prefix of package references.
	PackagePrefix = "package://"

	schemeSep = "://"
)

type (
	// Scheme tags how the path of a Reference is interpreted.
	Scheme int

	// Reference is a parsed resource reference. For SchemePackage, Path is
	// "<name>/<relative-path>"; for every other scheme Path is a filesystem
	// path using forward slashes.
	Reference struct {
		Scheme Scheme
		// Token is the raw scheme name for SchemeOther references.
		Token string
		Path  string
	}
)

// String returns the scheme name.
func (s Scheme) String() string {
	switch s {
	case SchemeNone:
		return "none"
	case SchemeFile:
		return "file"
	case SchemePackage:
		return "package"
	case SchemeOther:
		return "other"
	default:
		return fmt.Sprintf("Scheme(%d)", int(s))
	}
}

// ParseReference splits s into its scheme and path. A scheme token must be
// a non-empty run of letters, digits, '+', '-' or '.' before "://";
// anything else is treated as a bare path.
func ParseReference(s string) Reference {
	idx := strings.Index(s, schemeSep)
	if idx <= 0 || !isSchemeToken(s[:idx]) {
		return Reference{Scheme: SchemeNone, Path: s}
	}
	token, rest := s[:idx], s[idx+len(schemeSep):]
	switch token {
	case "file":
		return Reference{Scheme: SchemeFile, Path: rest}
	case "package":
		return Reference{Scheme: SchemePackage, Path: rest}
	default:
		return Reference{Scheme: SchemeOther, Token: token, Path: rest}
	}
}

// String renders the reference back into attribute form.
func (r Reference) String() string {
	switch r.Scheme {
	case SchemeFile:
		return FilePrefix + r.Path
	case SchemePackage:
		return PackagePrefix + r.Path
	case SchemeOther:
		return r.Token + schemeSep + r.Path
	default:
		return r.Path
	}
}

// HasProtocol reports whether the reference carries any scheme prefix.
func (r Reference) HasProtocol() bool { return r.Scheme != SchemeNone }

// Strip drops whatever scheme the reference has and keeps the path.
func (r Reference) Strip() Reference {
	return Reference{Scheme: SchemeNone, Path: r.Path}
}

// Package splits a package reference into the package name and the path
// relative to the package root. ok is false for non-package references.
func (r Reference) Package() (name, rel string, ok bool) {
	if r.Scheme != SchemePackage {
		return "", "", false
	}
	name, rel, _ = strings.Cut(r.Path, "/")
	return name, rel, true
}

// FileReference returns a file:// reference to path, or a bare reference
// when protocol is false.
func FileReference(path string, protocol bool) Reference {
	if protocol {
		return Reference{Scheme: SchemeFile, Path: path}
	}
	return Reference{Scheme: SchemeNone, Path: path}
}

func isSchemeToken(s string) bool {
	for i, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return true
}
