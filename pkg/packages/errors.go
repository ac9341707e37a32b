// SPDX-License-Identifier: MPL-2.0

package packages

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPackageNotFound is the sentinel error wrapped by PackageNotFoundError.
	// Finders return it (or wrap it) to mean "try the next strategy".
	ErrPackageNotFound = errors.New("package not found")
	// ErrInvalidDescriptor is the sentinel error wrapped by DescriptorError.
	ErrInvalidDescriptor = errors.New("invalid package descriptor")
)

type (
	// PackageNotFoundError is returned when no strategy could locate a package.
	// Causes holds strategy failures other than a plain "not found" so they
	// are reported rather than lost.
	PackageNotFoundError struct {
		Name   string
		Causes []error
	}

	// DescriptorError is returned when a package.xml cannot be read or does
	// not declare exactly one name.
	DescriptorError struct {
		Path   string
		Reason string
		Err    error
	}
)

// Error implements the error interface.
func (e *PackageNotFoundError) Error() string {
	if len(e.Causes) == 0 {
		return fmt.Sprintf("package not found: %s", e.Name)
	}
	msgs := make([]string, len(e.Causes))
	for i, c := range e.Causes {
		msgs[i] = c.Error()
	}
	return fmt.Sprintf("package not found: %s (%s)", e.Name, strings.Join(msgs, "; "))
}

// Unwrap returns ErrPackageNotFound for errors.Is() compatibility.
func (e *PackageNotFoundError) Unwrap() error { return ErrPackageNotFound }

// Error implements the error interface.
func (e *DescriptorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *DescriptorError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidDescriptor, e.Err}
	}
	return []error{ErrInvalidDescriptor}
}

func notFound(name string) error {
	return &PackageNotFoundError{Name: name}
}
