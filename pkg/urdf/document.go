// SPDX-License-Identifier: MPL-2.0

package urdf

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
)

// FilenameAttr is the attribute carrying resource references.
const FilenameAttr = "filename"

// assetTags lists the element kinds whose filename attribute is a resource
// reference.
var assetTags = map[string]struct{}{
	"mesh":     {},
	"material": {},
}

type (
	// Document is a robot description tree. It is owned by the compilation
	// that produced it and mutated in place by the resolve and localize
	// stages; use Clone for non-destructive work.
	Document struct {
		tree *etree.Document
		// RootDir is the directory relative references are interpreted
		// against. It is captured when the document is loaded.
		RootDir string
		// Vars carries macro-processor definitions between expansion passes.
		// It is never serialized.
		Vars map[string]string
	}

	// Asset is an element whose filename attribute is a resource reference.
	Asset struct {
		Element *etree.Element
	}
)

// Parse reads text into a Document rooted at rootDir.
func Parse(text, rootDir string) (*Document, error) {
	tree := etree.NewDocument()
	tree.ReadSettings.PreserveCData = true
	if err := tree.ReadFromString(text); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if tree.Root() == nil {
		return nil, fmt.Errorf("parse document: no root element")
	}
	return &Document{tree: tree, RootDir: rootDir}, nil
}

// ParseFile reads the file at path. The document root directory is the
// directory containing the file.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve document path: %w", err)
	}
	return Parse(string(data), filepath.Dir(abs))
}

// NewDocument wraps an existing tree.
func NewDocument(tree *etree.Document, rootDir string) *Document {
	return &Document{tree: tree, RootDir: rootDir}
}

// Tree exposes the underlying etree document.
func (d *Document) Tree() *etree.Document { return d.tree }

// Root returns the root element.
func (d *Document) Root() *etree.Element { return d.tree.Root() }

// Clone returns a deep copy that shares nothing with d.
func (d *Document) Clone() *Document {
	return &Document{tree: d.tree.Copy(), RootDir: d.RootDir, Vars: maps.Clone(d.Vars)}
}

// String serializes the tree exactly as it is held in memory. This is the
// canonical form compared by the fixed-point expander.
func (d *Document) String() (string, error) {
	s, err := d.tree.WriteToString()
	if err != nil {
		return "", fmt.Errorf("serialize document: %w", err)
	}
	return s, nil
}

// Compact serializes a copy of the tree with whitespace-only text between
// elements removed.
func (d *Document) Compact() (string, error) {
	tree := d.tree.Copy()
	stripWhitespace(&tree.Element)
	s, err := tree.WriteToString()
	if err != nil {
		return "", fmt.Errorf("serialize document: %w", err)
	}
	return s, nil
}

// Pretty serializes a copy of the tree indented by two spaces.
func (d *Document) Pretty() (string, error) {
	tree := d.tree.Copy()
	tree.Indent(2)
	s, err := tree.WriteToString()
	if err != nil {
		return "", fmt.Errorf("serialize document: %w", err)
	}
	return s, nil
}

// Walk visits every element below and including the root in document
// order. Returning false from fn skips the element's children.
func (d *Document) Walk(fn func(*etree.Element) bool) {
	if root := d.Root(); root != nil {
		walk(root, fn)
	}
}

func walk(e *etree.Element, fn func(*etree.Element) bool) {
	if !fn(e) {
		return
	}
	for _, child := range e.ChildElements() {
		walk(child, fn)
	}
}

// Assets returns every mesh or material element with a filename attribute,
// in document order.
func (d *Document) Assets() []Asset {
	var assets []Asset
	d.Walk(func(e *etree.Element) bool {
		if IsAsset(e) {
			assets = append(assets, Asset{Element: e})
		}
		return true
	})
	return assets
}

// ElementsByTag returns every element with the given local tag and no
// namespace prefix, in document order.
func (d *Document) ElementsByTag(tag string) []*etree.Element {
	var out []*etree.Element
	d.Walk(func(e *etree.Element) bool {
		if e.Space == "" && e.Tag == tag {
			out = append(out, e)
		}
		return true
	})
	return out
}

// IsAsset reports whether e carries a resource reference.
func IsAsset(e *etree.Element) bool {
	if e.Space != "" {
		return false
	}
	if _, ok := assetTags[e.Tag]; !ok {
		return false
	}
	return e.SelectAttr(FilenameAttr) != nil
}

// Reference parses the asset's filename attribute.
func (a Asset) Reference() Reference {
	return ParseReference(a.Element.SelectAttrValue(FilenameAttr, ""))
}

// SetReference rewrites the asset's filename attribute.
func (a Asset) SetReference(r Reference) {
	a.Element.CreateAttr(FilenameAttr, r.String())
}

// stripWhitespace removes whitespace-only character data from e and its
// descendants. Text inside leaf elements is kept.
func stripWhitespace(e *etree.Element) {
	if len(e.ChildElements()) == 0 {
		return
	}
	for i := len(e.Child) - 1; i >= 0; i-- {
		switch tok := e.Child[i].(type) {
		case *etree.CharData:
			if strings.TrimSpace(tok.Data) == "" {
				e.RemoveChildAt(i)
			}
		case *etree.Element:
			stripWhitespace(tok)
		}
	}
}
