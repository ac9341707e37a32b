// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{"operation only", &ActionableError{Operation: "compile robot description"}, "failed to compile robot description"},
		{
			"operation with resource",
			&ActionableError{Operation: "resolve package", Resource: "robot_models"},
			"failed to resolve package: robot_models",
		},
		{
			"full context",
			&ActionableError{Operation: "load configuration", Resource: "config.cue", Cause: errors.New("file not found")},
			"failed to load configuration: config.cue: file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("underlying error")
	err := &ActionableError{Operation: "test", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if (&ActionableError{Operation: "test"}).Unwrap() != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	inner := errors.New("disk full")
	err := &ActionableError{
		Operation:   "localize assets",
		Resource:    "/out/assets",
		Suggestions: []string{"Free some space", "Pick another directory"},
		Cause:       &ActionableError{Operation: "copy", Cause: inner},
	}

	plain := err.Format(false)
	for _, want := range []string{"failed to localize assets: /out/assets", "• Free some space", "• Pick another directory"} {
		if !strings.Contains(plain, want) {
			t.Errorf("Format(false) = %q, missing %q", plain, want)
		}
	}
	if strings.Contains(plain, "Error chain") {
		t.Error("Format(false) should not include the error chain")
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "Error chain:") || !strings.Contains(verbose, "2. disk full") {
		t.Errorf("Format(true) = %q, want numbered error chain", verbose)
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without operation should return nil")
	}
	if NewErrorContext().BuildError() != nil {
		t.Error("BuildError() without operation should return a nil interface")
	}

	cause := errors.New("boom")
	ctx := NewErrorContext().
		WithOperation("write output").
		WithResource("robot.urdf").
		WithSuggestion("one").
		WithSuggestions("two", "three").
		Wrap(cause)
	ae := ctx.Build()
	if ae.Operation != "write output" || ae.Resource != "robot.urdf" || !errors.Is(ae, cause) {
		t.Errorf("Build() = %+v", ae)
	}
	if len(ae.Suggestions) != 3 || !ae.HasSuggestions() {
		t.Errorf("Suggestions = %v, want 3", ae.Suggestions)
	}

	ctx.WithSuggestion("four")
	if len(ae.Suggestions) != 3 {
		t.Error("later builder calls should not alter an already built error")
	}
}
