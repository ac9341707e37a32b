// SPDX-License-Identifier: MPL-2.0

package expand

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/urdfc/urdfc/pkg/urdf"
	"github.com/urdfc/urdfc/pkg/xacro"
)

const plain = `<robot name="plain">
  <link name="base"><visual><geometry><mesh filename="meshes/base.stl"/></geometry></visual></link>
  <joint name="j" type="fixed"><parent link="base"/><child link="tool"/></joint>
  <link name="tool"/>
</robot>`

// growing appends a child on every call, so it never converges.
func growing(calls *int) xacro.Processor {
	return xacro.ProcessorFunc(func(doc *urdf.Document, _ map[string]string) error {
		*calls++
		doc.Root().CreateElement("link").CreateAttr("name", "l"+strconv.Itoa(*calls))
		return nil
	})
}

// settling changes the document on the first n calls only.
func settling(n int, calls *int) xacro.Processor {
	return xacro.ProcessorFunc(func(doc *urdf.Document, _ map[string]string) error {
		*calls++
		if *calls <= n {
			doc.Root().CreateAttr("pass", strconv.Itoa(*calls))
		}
		return nil
	})
}

func TestCompile_NonConvergenceAfterExactBudget(t *testing.T) {
	t.Parallel()

	for _, budget := range []int{1, 3, DefaultMaxIterations} {
		calls := 0
		e := &Expander{Processor: growing(&calls), MaxIterations: budget}
		res, err := e.CompileWithResult(plain, nil)
		if !errors.Is(err, ErrNonConvergence) {
			t.Fatalf("budget %d: error = %v, want ErrNonConvergence", budget, err)
		}
		var nc *NonConvergenceError
		if !errors.As(err, &nc) || nc.Iterations != budget {
			t.Errorf("budget %d: error = %#v, want Iterations %d", budget, err, budget)
		}
		if calls != budget {
			t.Errorf("budget %d: processor called %d times", budget, calls)
		}
		if res.State != StateFailed {
			t.Errorf("budget %d: state = %v, want failed", budget, res.State)
		}
	}
}

func TestCompile_DefaultBudget(t *testing.T) {
	t.Parallel()

	calls := 0
	_, err := (&Expander{Processor: growing(&calls)}).Compile(plain, nil)
	if !errors.Is(err, ErrNonConvergence) {
		t.Fatalf("Compile() error = %v, want ErrNonConvergence", err)
	}
	if calls != 10 {
		t.Errorf("processor called %d times, want 10", calls)
	}
}

func TestCompile_Converges(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		changes  int
		budget   int
		wantRuns int
	}{
		{"no changes", 0, 10, 1},
		{"two changes", 2, 10, 3},
		{"converges on last allowed pass", 4, 5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			e := &Expander{Processor: settling(tt.changes, &calls), MaxIterations: tt.budget}
			res, err := e.CompileWithResult(plain, nil)
			if err != nil {
				t.Fatalf("CompileWithResult() error = %v", err)
			}
			if res.State != StateConverged || res.Iterations != tt.wantRuns || calls != tt.wantRuns {
				t.Errorf("state=%v iterations=%d calls=%d, want converged after %d", res.State, res.Iterations, calls, tt.wantRuns)
			}
		})
	}
}

func TestCompile_Idempotent(t *testing.T) {
	t.Parallel()

	e := New(&xacro.Default{})
	first, err := e.Compile(plain, nil)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	once, err := first.String()
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Compile(once, nil)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	twice, err := second.String()
	if err != nil {
		t.Fatal(err)
	}
	if once != twice {
		t.Errorf("compile is not idempotent:\nonce:  %s\ntwice: %s", once, twice)
	}
}

func TestCompile_ProcessorErrorFails(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	e := New(xacro.ProcessorFunc(func(*urdf.Document, map[string]string) error { return boom }))
	res, err := e.CompileWithResult(plain, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped processor error", err)
	}
	if res.State != StateFailed || res.Iterations != 1 {
		t.Errorf("state=%v iterations=%d, want failed after 1", res.State, res.Iterations)
	}
}

func TestCompile_ParseError(t *testing.T) {
	t.Parallel()

	res, err := New(nil).CompileWithResult("<robot>", nil)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if res.State != StateFailed {
		t.Errorf("state = %v, want failed", res.State)
	}
}

func TestCompile_SelfIncludeDoesNotConverge(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	text := `<robot xmlns:xacro="http://www.ros.org/wiki/xacro"><link name="l"/><xacro:include filename="loop.xacro"/></robot>`
	if err := os.WriteFile(filepath.Join(dir, "loop.xacro"), []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	e := &Expander{Processor: &xacro.Default{}, RootDir: dir}
	_, err := e.Compile(text, nil)
	var nc *NonConvergenceError
	if !errors.As(err, &nc) || nc.Iterations != DefaultMaxIterations {
		t.Fatalf("Compile() error = %v, want NonConvergenceError after %d", err, DefaultMaxIterations)
	}
}

func TestCompile_FinalizerRuns(t *testing.T) {
	t.Parallel()

	e := New(&xacro.Default{})
	_, err := e.Compile(`<robot name="$(arg missing)"/>`, nil)
	if !errors.Is(err, xacro.ErrUndefined) {
		t.Errorf("Compile() error = %v, want ErrUndefined from the finalizer", err)
	}

	doc, err := e.Compile(`<robot name="$(arg name)"/>`, map[string]string{"name": "arm"})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if got := doc.Root().SelectAttrValue("name", ""); got != "arm" {
		t.Errorf("name = %q, want arm", got)
	}
}

func TestState_String(t *testing.T) {
	t.Parallel()

	want := map[State]string{
		StateParsed:    "parsed",
		StateExpanding: "expanding",
		StateConverged: "converged",
		StateFailed:    "failed",
		State(42):      "State(42)",
	}
	for s, w := range want {
		if s.String() != w {
			t.Errorf("State(%d).String() = %q, want %q", int(s), s.String(), w)
		}
	}
}
