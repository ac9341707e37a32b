// SPDX-License-Identifier: MPL-2.0

package xacro

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported is the sentinel error wrapped by UnsupportedError.
	ErrUnsupported = errors.New("unsupported directive")
	// ErrUndefined is the sentinel error wrapped by UndefinedError.
	ErrUndefined = errors.New("undefined substitution")
	// ErrInvalidCondition is the sentinel error wrapped by ConditionError.
	ErrInvalidCondition = errors.New("invalid condition")
)

type (
	// UnsupportedError is returned for directives Default cannot expand.
	UnsupportedError struct {
		Directive string
	}

	// UndefinedError is returned when a substitution names an argument or
	// variable that was never defined.
	UndefinedError struct {
		Kind string
		Name string
	}

	// ConditionError is returned when an if/unless value is not a boolean.
	ConditionError struct {
		Directive string
		Value     string
	}
)

// Error implements the error interface.
func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported directive %s", e.Directive)
}

// Unwrap returns ErrUnsupported for errors.Is() compatibility.
func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }

// Error implements the error interface.
func (e *UndefinedError) Error() string {
	return fmt.Sprintf("undefined %s %q", e.Kind, e.Name)
}

// Unwrap returns ErrUndefined for errors.Is() compatibility.
func (e *UndefinedError) Unwrap() error { return ErrUndefined }

// Error implements the error interface.
func (e *ConditionError) Error() string {
	return fmt.Sprintf("%s value %q is not a boolean", e.Directive, e.Value)
}

// Unwrap returns ErrInvalidCondition for errors.Is() compatibility.
func (e *ConditionError) Unwrap() error { return ErrInvalidCondition }
