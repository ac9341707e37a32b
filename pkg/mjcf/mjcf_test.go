// SPDX-License-Identifier: MPL-2.0

package mjcf

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/urdfc/urdfc/pkg/urdf"
)

const robot = `<robot name="r">
  <link name="a">
    <inertial><mass value="1"/><inertia ixx="0" iyy="0.5" izz="1e-9" ixy="0" ixz="0" iyz="0"/></inertial>
    <visual><geometry><mesh filename="file:///robots/a/arm.stl"/></geometry></visual>
  </link>
</robot>`

func parse(t *testing.T, text string) *urdf.Document {
	t.Helper()
	doc, err := urdf.Parse(text, "")
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestPrepare(t *testing.T) {
	t.Parallel()

	doc := parse(t, robot)
	got, err := Prepare(doc, Options{
		Compiler:   map[string]string{"strippath": "true", "meshdir": "assets"},
		MinInertia: 1e-6,
	})
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	if ref := got.Assets()[0].Reference(); ref.String() != "/robots/a/arm.stl" {
		t.Errorf("mesh = %q, want protocol stripped", ref.String())
	}
	compilers := got.Root().FindElements("./mujoco/compiler")
	if len(compilers) != 1 {
		t.Fatalf("compiler elements = %d, want 1", len(compilers))
	}
	attrs := map[string]string{}
	for _, a := range compilers[0].Attr {
		attrs[a.Key] = a.Value
	}
	if diff := cmp.Diff(map[string]string{"strippath": "true", "meshdir": "assets"}, attrs); diff != "" {
		t.Errorf("compiler attributes mismatch (-want +got):\n%s", diff)
	}

	inertia := got.ElementsByTag("inertia")[0]
	for key, want := range map[string]string{"ixx": "1e-06", "iyy": "0.5", "izz": "1e-06", "ixy": "0"} {
		if v := inertia.SelectAttrValue(key, ""); v != want {
			t.Errorf("%s = %q, want %q", key, v, want)
		}
	}

	// The source document is untouched.
	if ref := doc.Assets()[0].Reference(); ref.Scheme != urdf.SchemeFile {
		t.Errorf("Prepare mutated the source reference to %q", ref.String())
	}
	if len(doc.ElementsByTag("mujoco")) != 0 {
		t.Error("Prepare added an extension to the source document")
	}
}

func TestPrepare_ReusesExistingExtension(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<robot><mujoco><compiler balanceinertia="true"/></mujoco></robot>`)
	got, err := Prepare(doc, Options{Compiler: map[string]string{"strippath": "false"}})
	if err != nil {
		t.Fatal(err)
	}
	c := got.Root().FindElement("./mujoco/compiler")
	if c.SelectAttrValue("balanceinertia", "") != "true" || c.SelectAttrValue("strippath", "") != "false" {
		t.Errorf("compiler = %v", c.Attr)
	}
	if n := len(got.ElementsByTag("mujoco")); n != 1 {
		t.Errorf("mujoco elements = %d, want 1", n)
	}
}

func TestPrepare_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		opts Options
		want error
	}{
		{"two mujoco", `<robot><mujoco/><mujoco/></robot>`, Options{}, ErrDuplicateExtension},
		{"two compilers", `<robot><mujoco><compiler/><compiler/></mujoco></robot>`, Options{}, ErrDuplicateExtension},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Prepare(parse(t, tt.text), tt.opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("Prepare() error = %v, want %v", err, tt.want)
			}
		})
	}

	_, err := Prepare(parse(t, `<robot><inertia ixx="heavy"/></robot>`), Options{MinInertia: 1})
	if err == nil || !strings.Contains(err.Error(), "heavy") {
		t.Errorf("Prepare() error = %v, want the bad inertia value", err)
	}
}

func TestCompilerOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		assets string
		output string
		want   map[string]string
	}{
		{"no assets", "", "out/robot.xml", map[string]string{"strippath": "false"}},
		{"assets without output", "assets", "", map[string]string{"strippath": "true", "meshdir": "assets"}},
		{"assets relative to output", "build/assets", "build/model/robot.xml", map[string]string{"strippath": "true", "meshdir": "../assets"}},
	}
	for _, tt := range tests {
		got, err := CompilerOptions(tt.assets, tt.output)
		if err != nil {
			t.Fatalf("%s: error = %v", tt.name, err)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%s: mismatch (-want +got):\n%s", tt.name, diff)
		}
	}
}

func TestConverter_RunsCommand(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("cp"); err != nil {
		t.Skip("cp not available")
	}
	out := filepath.Join(t.TempDir(), "robot.xml")
	c := &Converter{Command: "cp {in} {out}"}
	if err := c.Convert(context.Background(), parse(t, robot), out, Options{Compiler: map[string]string{"strippath": "false"}}); err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `<compiler strippath="false"/>`) {
		t.Errorf("converter input lacks the compiler element:\n%s", data)
	}
	entries, err := os.ReadDir(filepath.Dir(out))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("intermediate file left behind: %v", entries)
	}
}

func TestConverter_CommandErrors(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "robot.xml")
	doc := parse(t, robot)

	if err := (&Converter{}).Convert(context.Background(), doc, out, Options{}); !errors.Is(err, ErrNoConverter) {
		t.Errorf("empty command error = %v, want ErrNoConverter", err)
	}
	if err := (&Converter{Command: `convert "{in}`}).Convert(context.Background(), doc, out, Options{}); err == nil {
		t.Error("unterminated quote should fail to parse")
	}
	if err := (&Converter{Command: "urdfc-no-such-converter {in} {out}"}).Convert(context.Background(), doc, out, Options{}); err == nil {
		t.Error("missing converter binary should fail")
	}
}
