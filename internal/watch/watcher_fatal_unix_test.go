// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import (
	"fmt"
	"strings"
	"syscall"
	"testing"
)

func TestFatalFsnotifyErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		fatal     bool
		hintHasIt string
	}{
		{name: "watch limit", err: syscall.ENOSPC, fatal: true, hintHasIt: "max_user_watches"},
		{name: "wrapped watch limit", err: fmt.Errorf("inotify_add_watch: %w", syscall.ENOSPC), fatal: true, hintHasIt: "max_user_watches"},
		{name: "process fd limit", err: syscall.EMFILE, fatal: true, hintHasIt: "ulimit"},
		{name: "system fd limit", err: syscall.ENFILE, fatal: true, hintHasIt: "ulimit"},
		{name: "permission denied", err: syscall.EACCES},
		{name: "plain error", err: fmt.Errorf("queue overflow")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isFatalFsnotifyError(tt.err); got != tt.fatal {
				t.Errorf("isFatalFsnotifyError(%v) = %v, want %v", tt.err, got, tt.fatal)
			}
			hint := fatalHint(tt.err)
			if tt.hintHasIt == "" {
				if hint != "" {
					t.Errorf("fatalHint(%v) = %q, want empty", tt.err, hint)
				}
				return
			}
			if !strings.Contains(hint, tt.hintHasIt) {
				t.Errorf("fatalHint(%v) = %q, want it to mention %q", tt.err, hint, tt.hintHasIt)
			}
		})
	}
}
