// SPDX-License-Identifier: MPL-2.0

package packages

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolve_NoStrategies(t *testing.T) {
	t.Parallel()

	_, err := emptyLocator().Resolve("missing_pkg")
	if !errors.Is(err, ErrPackageNotFound) {
		t.Fatalf("Resolve() error = %v, want ErrPackageNotFound", err)
	}
	var nf *PackageNotFoundError
	if !errors.As(err, &nf) || nf.Name != "missing_pkg" {
		t.Errorf("Resolve() error = %#v, want PackageNotFoundError{Name: missing_pkg}", err)
	}
}

func TestResolve_CachesFirstAnswer(t *testing.T) {
	t.Parallel()

	calls := 0
	loc := emptyLocator()
	loc.AddFinder(FinderFunc{Name: "counting", Fn: func(name string) (string, error) {
		calls++
		return "/robots/" + name, nil
	}}, 0)

	for range 3 {
		got, err := loc.Resolve("model_a")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if got != "/robots/model_a" {
			t.Errorf("Resolve() = %q, want /robots/model_a", got)
		}
	}
	if calls != 1 {
		t.Errorf("strategy invoked %d times, want 1", calls)
	}
}

func TestResolve_TriesStrategiesInOrder(t *testing.T) {
	t.Parallel()

	var order []string
	finder := func(label, answer string) Finder {
		return FinderFunc{Name: label, Fn: func(name string) (string, error) {
			order = append(order, label)
			if answer == "" {
				return "", notFound(name)
			}
			return answer, nil
		}}
	}

	loc := emptyLocator()
	loc.AddFinder(finder("last", "/from/last"), 0)
	loc.AddFinder(finder("first", ""), 0)
	loc.AddFinder(finder("middle", "/from/middle"), 1)

	if diff := cmp.Diff([]string{"first", "middle", "last"}, loc.Strategies()); diff != "" {
		t.Fatalf("Strategies() mismatch (-want +got):\n%s", diff)
	}

	got, err := loc.Resolve("pkg")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/from/middle" {
		t.Errorf("Resolve() = %q, want /from/middle", got)
	}
	if diff := cmp.Diff([]string{"first", "middle"}, order); diff != "" {
		t.Errorf("strategy order mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertClampsPriority(t *testing.T) {
	t.Parallel()

	loc := emptyLocator()
	loc.AddFinder(FinderFunc{Name: "a"}, 50)
	loc.AddFinder(FinderFunc{Name: "b"}, -3)
	if diff := cmp.Diff([]string{"b", "a"}, loc.Strategies()); diff != "" {
		t.Errorf("Strategies() mismatch (-want +got):\n%s", diff)
	}
}

func TestRegisterOverrides_TakesPrecedence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	loc := emptyLocator()
	loc.AddFinder(FinderFunc{Name: "fixed", Fn: func(string) (string, error) {
		return "/from/strategy", nil
	}}, 0)

	if err := loc.RegisterOverrides(map[string]string{"robot_models": dir}); err != nil {
		t.Fatalf("RegisterOverrides() error = %v", err)
	}
	got, err := loc.Resolve("robot_models")
	if err != nil {
		t.Fatal(err)
	}
	if got != realPath(t, dir) {
		t.Errorf("Resolve() = %q, want %q", got, realPath(t, dir))
	}
}

func TestRegisterOverrides_NormalizesRelativePaths(t *testing.T) {
	t.Parallel()

	loc := emptyLocator()
	if err := loc.RegisterOverrides(map[string]string{"missing_dir": "does/not/../exist"}); err != nil {
		t.Fatalf("RegisterOverrides() error = %v", err)
	}
	got, err := loc.Resolve("missing_dir")
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(got) || filepath.Base(got) != "exist" {
		t.Errorf("Resolve() = %q, want absolute path ending in exist", got)
	}
}

func TestRegisterOverrides_RejectsWhitespaceName(t *testing.T) {
	t.Parallel()

	if err := emptyLocator().RegisterOverrides(map[string]string{"bad name": "/tmp"}); err == nil {
		t.Error("RegisterOverrides() accepted a name with whitespace")
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	loc := New(WithDefaultFinders(FinderFunc{Name: "default", Fn: func(name string) (string, error) {
		return "", notFound(name)
	}}))
	loc.LookIn([]string{t.TempDir()}, 0)
	if err := loc.RegisterOverrides(map[string]string{"pkg": t.TempDir()}); err != nil {
		t.Fatal(err)
	}

	loc.Reset()

	if diff := cmp.Diff([]string{"default"}, loc.Strategies()); diff != "" {
		t.Errorf("Strategies() after Reset mismatch (-want +got):\n%s", diff)
	}
	if len(loc.Entries()) != 0 {
		t.Errorf("Entries() after Reset = %v, want empty", loc.Entries())
	}
	if _, err := loc.Resolve("pkg"); !errors.Is(err, ErrPackageNotFound) {
		t.Errorf("Resolve() after Reset error = %v, want ErrPackageNotFound", err)
	}
}

func TestResolve_DeterministicAfterReset(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	want := makePackage(t, filepath.Join(root, "robot_models"), "robot_models")

	loc := New(WithDefaultFinders(NewDirFinder([]string{root})))
	for range 3 {
		got, err := loc.Resolve("robot_models")
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("Resolve() = %q, want %q", got, want)
		}
		loc.Reset()
	}
}

func TestFilePath(t *testing.T) {
	t.Parallel()

	loc := emptyLocator()
	loc.AddFinder(FinderFunc{Name: "fixed", Fn: func(string) (string, error) {
		return filepath.FromSlash("/robots/model_a"), nil
	}}, 0)

	got, err := loc.FilePath("robot_models", "urdf/arm.urdf.xacro")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.FromSlash("/robots/model_a/urdf/arm.urdf.xacro")
	if got != want {
		t.Errorf("FilePath() = %q, want %q", got, want)
	}
}
