// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFilesystemPath is the sentinel error wrapped by InvalidFilesystemPathError.
var ErrInvalidFilesystemPath = errors.New("invalid filesystem path")

type (
	// FilesystemPath is a package root, asset source or output location as
	// given by the user or produced by resolution. It may be relative.
	FilesystemPath string

	// InvalidFilesystemPathError reports a blank path or one containing a
	// NUL byte, which no filesystem accepts.
	InvalidFilesystemPathError struct {
		Value  FilesystemPath
		Reason string
	}
)

func (p FilesystemPath) String() string { return string(p) }

// Validate rejects blank paths and paths containing NUL.
func (p FilesystemPath) Validate() error {
	switch {
	case strings.TrimSpace(string(p)) == "":
		return &InvalidFilesystemPathError{Value: p, Reason: "empty"}
	case strings.ContainsRune(string(p), 0):
		return &InvalidFilesystemPathError{Value: p, Reason: "contains NUL"}
	default:
		return nil
	}
}

func (e *InvalidFilesystemPathError) Error() string {
	return fmt.Sprintf("invalid filesystem path %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidFilesystemPath for errors.Is() compatibility.
func (e *InvalidFilesystemPathError) Unwrap() error { return ErrInvalidFilesystemPath }
