// SPDX-License-Identifier: MPL-2.0

package localize

import (
	"errors"
	"fmt"
)

var (
	// ErrDirectoryExists is the sentinel error wrapped by DirectoryExistsError.
	ErrDirectoryExists = errors.New("target directory already exists")
	// ErrNameGenerationExhausted is the sentinel error wrapped by
	// NameGenerationExhaustedError.
	ErrNameGenerationExhausted = errors.New("could not generate a unique file name")
	// ErrUnresolvedReference is returned for package:// references, which
	// must be resolved before localization.
	ErrUnresolvedReference = errors.New("unresolved package reference")
)

type (
	// DirectoryExistsError is returned when the target directory exists and
	// reuse was not allowed.
	DirectoryExistsError struct {
		Path string
	}

	// NameGenerationExhaustedError is returned when every suffixed variant
	// of a basename is taken.
	NameGenerationExhaustedError struct {
		Name     string
		Attempts int
	}
)

// Error implements the error interface.
func (e *DirectoryExistsError) Error() string {
	return fmt.Sprintf("target directory %s already exists", e.Path)
}

// Unwrap returns ErrDirectoryExists for errors.Is() compatibility.
func (e *DirectoryExistsError) Unwrap() error { return ErrDirectoryExists }

// Error implements the error interface.
func (e *NameGenerationExhaustedError) Error() string {
	return fmt.Sprintf("could not find a free name for %q after %d attempts", e.Name, e.Attempts)
}

// Unwrap returns ErrNameGenerationExhausted for errors.Is() compatibility.
func (e *NameGenerationExhaustedError) Unwrap() error { return ErrNameGenerationExhausted }
