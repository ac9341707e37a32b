// SPDX-License-Identifier: MPL-2.0

//go:build windows

package watch

import (
	"errors"
	"syscall"
)

// Win32 error codes returned through ReadDirectoryChangesW.
const (
	errnoTooManyOpenFiles = syscall.Errno(4)
	// The watched directory was removed or unmounted.
	errnoInvalidHandle   = syscall.Errno(6)
	errnoNotEnoughMemory = syscall.Errno(8)
)

// isFatalFsnotifyError reports errors after which the directory handle
// delivers no more events.
func isFatalFsnotifyError(err error) bool {
	return errors.Is(err, errnoTooManyOpenFiles) ||
		errors.Is(err, errnoInvalidHandle) ||
		errors.Is(err, errnoNotEnoughMemory)
}

// fatalHint returns a remedy for a fatal error, or "".
func fatalHint(err error) string {
	switch {
	case errors.Is(err, errnoInvalidHandle):
		return "a watched package directory was removed; restart watch"
	case errors.Is(err, errnoTooManyOpenFiles), errors.Is(err, errnoNotEnoughMemory):
		return "watch fewer package directories"
	default:
		return ""
	}
}
