// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"testing"
)

func TestExitCodeValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		value     ExitCode
		wantValid bool
	}{
		{name: "zero is valid", value: ExitOK, wantValid: true},
		{name: "usage is valid", value: ExitUsage, wantValid: true},
		{name: "255 is valid", value: 255, wantValid: true},
		{name: "negative is invalid", value: -1, wantValid: false},
		{name: "256 is invalid", value: 256, wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.value.Validate()
			if (err == nil) != tt.wantValid {
				t.Fatalf("ExitCode(%d).Validate() error = %v, wantValid %v", tt.value, err, tt.wantValid)
			}
			if err != nil && !errors.Is(err, ErrInvalidExitCode) {
				t.Errorf("error should wrap ErrInvalidExitCode, got: %v", err)
			}
		})
	}
}

func TestFilesystemPathValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    FilesystemPath
		wantErr bool
	}{
		{"absolute path", "/robots/model_a", false},
		{"relative path", "meshes/arm.stl", false},
		{"path with spaces", "/path/to/my mesh.stl", false},
		{"empty is invalid", "", true},
		{"whitespace only is invalid", "  \t", true},
		{"NUL byte is invalid", "meshes/arm\x00.stl", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.path.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("FilesystemPath(%q).Validate() error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			var fpErr *InvalidFilesystemPathError
			if tt.wantErr && !errors.As(err, &fpErr) {
				t.Errorf("error should be *InvalidFilesystemPathError, got: %T", err)
			}
		})
	}
}

func TestPackageNameValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   PackageName
		wantErr bool
	}{
		{"underscore", "robot_models", false},
		{"hyphen", "example-robot-data", false},
		{"empty", "", true},
		{"space", "my pkg", true},
		{"tab", "my\tpkg", true},
		{"slash", "a/b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.value.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("PackageName(%q).Validate() error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidPackageName) {
				t.Errorf("error should wrap ErrInvalidPackageName, got: %v", err)
			}
		})
	}
}

func TestExitCodeOrFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want ExitCode
	}{
		{ExitOK, ExitFailure},
		{ExitFailure, ExitFailure},
		{ExitUsage, ExitUsage},
		{256, ExitFailure},
		{-1, ExitFailure},
	}
	for _, tt := range tests {
		if got := tt.in.OrFailure(); got != tt.want {
			t.Errorf("ExitCode(%d).OrFailure() = %d, want %d", tt.in, got, tt.want)
		}
	}
}
