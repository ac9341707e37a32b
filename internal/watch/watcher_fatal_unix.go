// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import (
	"errors"
	"syscall"
)

// isFatalFsnotifyError reports errors after which inotify delivers no more
// events. Each watched package directory costs one inotify watch, so a large
// workspace can exhaust the limit.
func isFatalFsnotifyError(err error) bool {
	switch {
	case errors.Is(err, syscall.ENOSPC):
		return true
	case errors.Is(err, syscall.EMFILE), errors.Is(err, syscall.ENFILE):
		return true
	default:
		return false
	}
}

// fatalHint returns a remedy for a fatal error, or "".
func fatalHint(err error) string {
	switch {
	case errors.Is(err, syscall.ENOSPC):
		return "raise fs.inotify.max_user_watches or watch fewer package directories"
	case errors.Is(err, syscall.EMFILE), errors.Is(err, syscall.ENFILE):
		return "raise the open file limit (ulimit -n)"
	default:
		return ""
	}
}
