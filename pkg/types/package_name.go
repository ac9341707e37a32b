// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrInvalidPackageName is the sentinel error wrapped by InvalidPackageNameError.
var ErrInvalidPackageName = errors.New("invalid package name")

type (
	// PackageName is the identity of a package as written after package://.
	// Names are non-empty and contain neither whitespace nor path separators.
	PackageName string

	// InvalidPackageNameError is returned when a PackageName is empty or
	// contains characters the package:// protocol cannot carry.
	InvalidPackageNameError struct {
		Value  PackageName
		Reason string
	}
)

// String returns the string representation of the PackageName.
func (n PackageName) String() string { return string(n) }

// Validate returns an error if the name is empty or contains whitespace or
// a path separator.
func (n PackageName) Validate() error {
	s := string(n)
	switch {
	case s == "":
		return &InvalidPackageNameError{Value: n, Reason: "name is empty"}
	case strings.IndexFunc(s, unicode.IsSpace) >= 0:
		return &InvalidPackageNameError{Value: n, Reason: "name contains whitespace"}
	case strings.ContainsAny(s, `/\`):
		return &InvalidPackageNameError{Value: n, Reason: "name contains a path separator"}
	}
	return nil
}

// Error implements the error interface for InvalidPackageNameError.
func (e *InvalidPackageNameError) Error() string {
	return fmt.Sprintf("invalid package name %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidPackageName for errors.Is() compatibility.
func (e *InvalidPackageNameError) Unwrap() error { return ErrInvalidPackageName }
