// SPDX-License-Identifier: MPL-2.0

package mjcf

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/beevik/etree"

	"github.com/urdfc/urdfc/pkg/resolve"
	"github.com/urdfc/urdfc/pkg/urdf"
)

// ErrDuplicateExtension is returned when a document holds more than one
// mujoco or compiler element.
var ErrDuplicateExtension = errors.New("duplicate mujoco extension element")

// inertiaDiagonal lists the inertia attributes clamped by MinInertia.
var inertiaDiagonal = []string{"ixx", "iyy", "izz"}

// Options configures Prepare.
type Options struct {
	// Compiler sets attributes on the <mujoco><compiler/> element.
	Compiler map[string]string
	// MinInertia raises diagonal inertia values below it. Zero disables
	// clamping.
	MinInertia float64
}

// CompilerOptions returns the compiler attributes for an export. Without an
// asset directory meshes keep their full paths. With one, the converter
// strips paths and looks in assetDir, expressed relative to the output's
// directory when an output path is known.
func CompilerOptions(assetDir, outputPath string) (map[string]string, error) {
	if assetDir == "" {
		return map[string]string{"strippath": "false"}, nil
	}
	meshdir := assetDir
	if outputPath != "" {
		rel, err := filepath.Rel(filepath.Dir(outputPath), assetDir)
		if err != nil {
			return nil, fmt.Errorf("relate asset directory to output: %w", err)
		}
		meshdir = rel
	}
	return map[string]string{"strippath": "true", "meshdir": filepath.ToSlash(meshdir)}, nil
}

// Prepare returns a copy of doc ready for the converter: references carry
// no protocol, exactly one compiler element holds opts.Compiler, and
// diagonal inertia is clamped to opts.MinInertia.
func Prepare(doc *urdf.Document, opts Options) (*urdf.Document, error) {
	cp := doc.Clone()
	if err := (&resolve.Resolver{}).References(cp, resolve.Options{StripProtocol: true}); err != nil {
		return nil, err
	}
	compiler, err := compilerElement(cp)
	if err != nil {
		return nil, err
	}
	for _, k := range slices.Sorted(maps.Keys(opts.Compiler)) {
		compiler.CreateAttr(k, opts.Compiler[k])
	}
	if opts.MinInertia > 0 {
		if err := clampInertia(cp, opts.MinInertia); err != nil {
			return nil, err
		}
	}
	return cp, nil
}

// compilerElement finds or creates the single <mujoco><compiler/> pair.
func compilerElement(doc *urdf.Document) (*etree.Element, error) {
	var mujoco *etree.Element
	switch found := doc.ElementsByTag("mujoco"); len(found) {
	case 0:
		mujoco = doc.Root().CreateElement("mujoco")
	case 1:
		mujoco = found[0]
	default:
		return nil, fmt.Errorf("%w: %d <mujoco> elements", ErrDuplicateExtension, len(found))
	}

	switch found := mujoco.SelectElements("compiler"); len(found) {
	case 0:
		return mujoco.CreateElement("compiler"), nil
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("%w: %d <compiler> elements", ErrDuplicateExtension, len(found))
	}
}

func clampInertia(doc *urdf.Document, minimum float64) error {
	floor := strconv.FormatFloat(minimum, 'g', -1, 64)
	for _, e := range doc.ElementsByTag("inertia") {
		for _, key := range inertiaDiagonal {
			attr := e.SelectAttr(key)
			if attr == nil {
				continue
			}
			v, err := strconv.ParseFloat(attr.Value, 64)
			if err != nil {
				return fmt.Errorf("inertia %s=%q: %w", key, attr.Value, err)
			}
			if v < minimum {
				attr.Value = floor
			}
		}
	}
	return nil
}
