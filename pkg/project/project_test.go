// SPDX-License-Identifier: MPL-2.0

package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/urdfc/urdfc/pkg/urdf"
)

const sample = `<robot name="r">
  <link name="a"><visual><geometry><mesh filename="file:///robots/a/arm.stl"/></geometry></visual></link>
  <link name="b"><visual><geometry><mesh filename="meshes/base.stl"/></geometry></visual></link>
  <link name="c"><visual><geometry><mesh filename="package://other/m.stl"/></geometry></visual></link>
</robot>`

func parse(t *testing.T, text, root string) *urdf.Document {
	t.Helper()
	doc, err := urdf.Parse(text, root)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func refs(t *testing.T, s string) []string {
	t.Helper()
	doc := parse(t, s, "")
	var out []string
	for _, a := range doc.Assets() {
		out = append(out, a.Element.SelectAttrValue(urdf.FilenameAttr, ""))
	}
	return out
}

func TestRender_Modes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{
			name: "absolute without protocol",
			opts: Options{},
			want: []string{"/robots/a/arm.stl", "/work/meshes/base.stl", "package://other/m.stl"},
		},
		{
			name: "absolute with protocol",
			opts: Options{Protocol: true},
			want: []string{"file:///robots/a/arm.stl", "file:///work/meshes/base.stl", "package://other/m.stl"},
		},
		{
			name: "relative ignores protocol",
			opts: Options{RelativeTo: "/robots/out", Protocol: true},
			want: []string{"../a/arm.stl", "../../work/meshes/base.stl", "package://other/m.stl"},
		},
		{
			name: "relative to a file path uses its parent",
			opts: Options{RelativeTo: "/robots/a/robot.urdf"},
			want: []string{"arm.stl", "../../work/meshes/base.stl", "package://other/m.stl"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := parse(t, sample, "/work")
			s, err := Render(doc, tt.opts)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, refs(t, s)); diff != "" {
				t.Errorf("references mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRender_AbsoluteReferencesKeepTheirPath(t *testing.T) {
	t.Parallel()

	const text = `<robot name="r">
  <link name="a"><visual><geometry><mesh filename="file:///robots/a/../a//arm.stl"/></geometry></visual></link>
  <link name="b"><visual><geometry><mesh filename="/robots/b/./leg.stl"/></geometry></visual></link>
</robot>`

	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{"protocol dropped", Options{}, []string{"/robots/a/../a//arm.stl", "/robots/b/./leg.stl"}},
		{"protocol added", Options{Protocol: true}, []string{"file:///robots/a/../a//arm.stl", "file:///robots/b/./leg.stl"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, err := Render(parse(t, text, "/work"), tt.opts)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, refs(t, s)); diff != "" {
				t.Errorf("references mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRender_DoesNotMutate(t *testing.T) {
	t.Parallel()

	doc := parse(t, sample, "/work")
	before, err := doc.String()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Render(doc, Options{RelativeTo: "/robots", Protocol: true, Pretty: true}); err != nil {
		t.Fatal(err)
	}
	after, err := doc.String()
	if err != nil {
		t.Fatal(err)
	}
	if before != after {
		t.Errorf("Render mutated the document:\nbefore: %s\nafter:  %s", before, after)
	}
}

func TestRender_CompactAndPrettyRoundTrip(t *testing.T) {
	t.Parallel()

	doc := parse(t, sample, "/work")
	compact, err := Render(doc, Options{Protocol: true})
	if err != nil {
		t.Fatal(err)
	}
	pretty, err := Render(doc, Options{Protocol: true, Pretty: true})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(compact, "\n  <link") {
		t.Errorf("compact output is indented:\n%s", compact)
	}
	if !strings.Contains(pretty, "\n  <link") {
		t.Errorf("pretty output is not indented:\n%s", pretty)
	}
	if diff := cmp.Diff(refs(t, compact), refs(t, pretty)); diff != "" {
		t.Errorf("compact and pretty disagree (-compact +pretty):\n%s", diff)
	}

	// Rendering the re-parsed output again is stable.
	again, err := Render(parse(t, compact, "/work"), Options{Protocol: true})
	if err != nil {
		t.Fatal(err)
	}
	if again != compact {
		t.Errorf("re-render differs:\nfirst:  %s\nsecond: %s", compact, again)
	}
}

func TestWriteFile_CompareExisting(t *testing.T) {
	t.Parallel()

	doc := parse(t, sample, "/work")
	path := filepath.Join(t.TempDir(), "robot.urdf")

	written, err := WriteFile(doc, path, DefaultOptions(), WriteOptions{CompareExisting: true})
	if err != nil || !written {
		t.Fatalf("first WriteFile() = %v, %v; want written", written, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	written, err = WriteFile(doc, path, DefaultOptions(), WriteOptions{CompareExisting: true})
	if err != nil || written {
		t.Errorf("second WriteFile() = %v, %v; want skipped", written, err)
	}
	after, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !after.ModTime().Equal(info.ModTime()) {
		t.Error("identical output rewrote the file")
	}

	written, err = WriteFile(doc, path, DefaultOptions(), WriteOptions{})
	if err != nil || !written {
		t.Errorf("WriteFile() without compare = %v, %v; want written", written, err)
	}

	written, err = WriteFile(doc, path, Options{Protocol: true}, WriteOptions{CompareExisting: true})
	if err != nil || !written {
		t.Errorf("WriteFile() with different rendering = %v, %v; want written", written, err)
	}
}

func TestTempFile(t *testing.T) {
	t.Parallel()

	doc := parse(t, sample, "/work")
	path, cleanup, err := TempFile(doc, DefaultOptions())
	if err != nil {
		t.Fatalf("TempFile() error = %v", err)
	}
	if filepath.Ext(path) != ".urdf" {
		t.Errorf("temp file %s lacks the .urdf extension", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "/work/meshes/base.stl") {
		t.Errorf("temp file content = %s", data)
	}
	if err := cleanup(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("cleanup left %s behind", path)
	}
}
