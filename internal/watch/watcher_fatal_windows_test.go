// SPDX-License-Identifier: MPL-2.0

//go:build windows

package watch

import (
	"fmt"
	"syscall"
	"testing"
)

func TestFatalFsnotifyErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{name: "handle limit", err: syscall.Errno(4), fatal: true},
		{name: "removed directory", err: syscall.Errno(6), fatal: true},
		{name: "wrapped removed directory", err: fmt.Errorf("ReadDirectoryChanges: %w", syscall.Errno(6)), fatal: true},
		{name: "out of memory", err: syscall.Errno(8), fatal: true},
		{name: "access denied", err: syscall.Errno(5)},
		{name: "plain error", err: fmt.Errorf("queue overflow")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isFatalFsnotifyError(tt.err); got != tt.fatal {
				t.Errorf("isFatalFsnotifyError(%v) = %v, want %v", tt.err, got, tt.fatal)
			}
			if hint := fatalHint(tt.err); (hint != "") != tt.fatal {
				t.Errorf("fatalHint(%v) = %q, fatal = %v", tt.err, hint, tt.fatal)
			}
		})
	}
}
