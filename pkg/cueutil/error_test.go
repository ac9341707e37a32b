// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

func TestFormatError(t *testing.T) {
	t.Parallel()

	t.Run("nil error returns nil", func(t *testing.T) {
		t.Parallel()

		if err := FormatError(nil, "config.cue"); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("non-CUE error is wrapped with the file path", func(t *testing.T) {
		t.Parallel()

		orig := errors.New("disk on fire")
		err := FormatError(orig, "config.cue")
		if !errors.Is(err, orig) {
			t.Errorf("error should wrap the original, got %v", err)
		}
		if !strings.HasPrefix(err.Error(), "config.cue: ") {
			t.Errorf("error should start with the file path, got %v", err)
		}
		var verr *ValidationError
		if errors.As(err, &verr) {
			t.Errorf("non-CUE error should not become a ValidationError, got %v", err)
		}
	})

	t.Run("wrapped CUE error becomes a ValidationError", func(t *testing.T) {
		t.Parallel()

		cerr := fmt.Errorf("decode: %w", cueerrors.Newf(token.NoPos, "conflicting values"))
		err := FormatError(cerr, "config.cue")
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected *ValidationError, got %T: %v", err, err)
		}
		if len(verr.Issues) != 1 || !strings.Contains(verr.Issues[0].Message, "conflicting values") {
			t.Errorf("Issues = %+v", verr.Issues)
		}
		if !errors.Is(err, ErrInvalidFile) {
			t.Error("ValidationError should wrap ErrInvalidFile")
		}
	})
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"compile"}, "compile"},
		{[]string{"compile", "max_runs"}, "compile.max_runs"},
		{[]string{"packages", "dirs", "1"}, "packages.dirs[1]"},
		{[]string{"a", "0", "b", "2"}, "a[0].b[2]"},
		{[]string{"0"}, "0"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.path); got != tt.want {
			t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"empty", 0, false},
		{"under limit", 10, false},
		{"at limit", 100, false},
		{"over limit", 101, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := CheckFileSize(make([]byte, tt.size), 100, "pkgs.cue")
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckFileSize() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && (!strings.Contains(err.Error(), "pkgs.cue") || !strings.Contains(err.Error(), "101")) {
				t.Errorf("error should name the file and size, got %v", err)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	single := &ValidationError{FilePath: "config.cue", Issues: []Issue{{Path: "ui.verbose", Message: "conflicting values"}}}
	if got, want := single.Error(), "config.cue: ui.verbose: conflicting values"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	multi := &ValidationError{FilePath: "config.cue", Issues: []Issue{
		{Message: "expected '}'"},
		{Path: "compile.max_runs", Message: "out of bound"},
	}}
	if got := multi.Error(); !strings.Contains(got, "validation failed:\n  expected '}'\n  compile.max_runs: out of bound") {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(multi, ErrInvalidFile) {
		t.Error("ValidationError should wrap ErrInvalidFile")
	}
}
