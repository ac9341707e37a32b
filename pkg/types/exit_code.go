// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
)

// Process exit statuses of the urdfc command.
const (
	ExitOK ExitCode = 0
	// ExitFailure covers compile, lookup, copy and conversion failures as
	// well as malformed name:=value arguments.
	ExitFailure ExitCode = 1
	// ExitUsage is reserved for command-line parsing errors reported by
	// the flag parser itself.
	ExitUsage ExitCode = 2
)

// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

type (
	// ExitCode is a process exit status. Only 0-255 survive the trip
	// through the operating system.
	ExitCode int

	// InvalidExitCodeError reports an ExitCode outside 0-255.
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d out of range 0-255", e.Value)
}

func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Validate rejects codes the operating system would truncate.
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// OrFailure returns c when it is a valid failure status and ExitFailure
// otherwise, so a bad code never turns into success after truncation.
func (c ExitCode) OrFailure() ExitCode {
	if c == ExitOK || c.Validate() != nil {
		return ExitFailure
	}
	return c
}
