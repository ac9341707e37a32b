// SPDX-License-Identifier: MPL-2.0

package xacro

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/urdfc/urdfc/pkg/resolve"
	"github.com/urdfc/urdfc/pkg/urdf"
)

// Namespace is the xacro XML namespace URI.
const Namespace = "http://www.ros.org/wiki/xacro"

const (
	argPrefix  = "arg:"
	propPrefix = "prop:"
)

var (
	commandPattern  = regexp.MustCompile(`\$\(([^()]*)\)`)
	propertyPattern = regexp.MustCompile(`\$\{([^{}]*)\}`)
	identPattern    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Default is a single-pass processor for arg, property, if, unless and
// include directives plus the $(arg), $(find), $(env), $(optenv),
// $(dirname) and ${name} substitutions.
type Default struct {
	// Find resolves package names for $(find) and package:// includes.
	Find FindFunc
	// Getenv looks up environment variables. Defaults to os.LookupEnv.
	Getenv func(string) (string, bool)
	// BaseDir is used for relative includes when the document has no root
	// directory.
	BaseDir string
}

// Process runs one expansion pass over doc.
func (d *Default) Process(doc *urdf.Document, args map[string]string) error {
	if doc.Vars == nil {
		doc.Vars = make(map[string]string)
	}
	p := &pass{Default: d, doc: doc, args: args}
	if err := p.definitions(); err != nil {
		return err
	}
	if err := p.substituteAll(); err != nil {
		return err
	}
	if err := p.conditionals(); err != nil {
		return err
	}
	if err := p.includes(); err != nil {
		return err
	}
	if !hasDirectives(doc) {
		doc.Root().RemoveAttr("xmlns:xacro")
	}
	return nil
}

// Finalize reports directives and substitutions left in a converged
// document.
func (d *Default) Finalize(doc *urdf.Document) error {
	var err error
	doc.Walk(func(e *etree.Element) bool {
		if err != nil {
			return false
		}
		if isDirective(e) {
			switch e.Tag {
			case "if", "unless":
				err = &ConditionError{Directive: "xacro:" + e.Tag, Value: e.SelectAttrValue("value", "")}
			case "include":
				err = &UndefinedError{Kind: "include", Name: e.SelectAttrValue("filename", "")}
			default:
				err = &UnsupportedError{Directive: "xacro:" + e.Tag}
			}
			return false
		}
		for _, a := range e.Attr {
			if err = leftover(a.Value); err != nil {
				return false
			}
		}
		for _, tok := range e.Child {
			if cd, ok := tok.(*etree.CharData); ok {
				if err = leftover(cd.Data); err != nil {
					return false
				}
			}
		}
		return true
	})
	return err
}

func leftover(s string) error {
	if m := commandPattern.FindStringSubmatch(s); m != nil {
		fields := strings.Fields(m[1])
		if len(fields) == 2 && fields[0] == "arg" {
			return &UndefinedError{Kind: "argument", Name: fields[1]}
		}
		return &UndefinedError{Kind: "substitution", Name: m[0]}
	}
	if m := propertyPattern.FindStringSubmatch(s); m != nil {
		return &UndefinedError{Kind: "property", Name: strings.TrimSpace(m[1])}
	}
	return nil
}

type pass struct {
	*Default
	doc  *urdf.Document
	args map[string]string
}

// definitions records arg and property values and removes their elements.
// Elements nested in unresolved conditionals are left alone.
func (p *pass) definitions() error {
	var defs []*etree.Element
	var err error
	p.doc.Walk(func(e *etree.Element) bool {
		if err != nil || !isDirective(e) {
			return err == nil
		}
		switch e.Tag {
		case "arg", "property":
			defs = append(defs, e)
		case "if", "unless", "include":
			return false
		default:
			err = &UnsupportedError{Directive: "xacro:" + e.Tag}
		}
		return false
	})
	if err != nil {
		return err
	}

	for _, e := range defs {
		name := e.SelectAttrValue("name", "")
		if name == "" {
			return fmt.Errorf("xacro:%s without a name", e.Tag)
		}
		switch e.Tag {
		case "arg":
			if err := p.defineArg(e, name); err != nil {
				return err
			}
		case "property":
			value := e.SelectAttr("value")
			if value == nil {
				return &UnsupportedError{Directive: "xacro:property (block)"}
			}
			v, err := p.substitute(value.Value)
			if err != nil {
				return err
			}
			p.doc.Vars[propPrefix+name] = v
		}
		e.Parent().RemoveChild(e)
	}
	return nil
}

func (p *pass) defineArg(e *etree.Element, name string) error {
	if _, ok := p.args[name]; ok {
		return nil
	}
	if _, ok := p.doc.Vars[argPrefix+name]; ok {
		return nil
	}
	def := e.SelectAttr("default")
	if def == nil {
		return nil
	}
	v, err := p.substitute(def.Value)
	if err != nil {
		return err
	}
	p.doc.Vars[argPrefix+name] = v
	return nil
}

func (p *pass) substituteAll() error {
	var err error
	p.doc.Walk(func(e *etree.Element) bool {
		for i := range e.Attr {
			if err != nil {
				return false
			}
			e.Attr[i].Value, err = p.substitute(e.Attr[i].Value)
		}
		for _, tok := range e.Child {
			if err != nil {
				return false
			}
			if cd, ok := tok.(*etree.CharData); ok {
				var v string
				if v, err = p.substitute(cd.Data); err == nil && v != cd.Data {
					cd.Data = v
				}
			}
		}
		return err == nil
	})
	return err
}

func (p *pass) substitute(s string) (string, error) {
	if !strings.Contains(s, "$") {
		return s, nil
	}
	var err error
	out := commandPattern.ReplaceAllStringFunc(s, func(m string) string {
		if err != nil {
			return m
		}
		var v string
		var ok bool
		v, ok, err = p.command(strings.Fields(m[2 : len(m)-1]))
		if !ok || err != nil {
			return m
		}
		return v
	})
	if err != nil {
		return "", err
	}
	out = propertyPattern.ReplaceAllStringFunc(out, func(m string) string {
		name := strings.TrimSpace(m[2 : len(m)-1])
		if !identPattern.MatchString(name) {
			return m
		}
		if v, ok := p.doc.Vars[propPrefix+name]; ok {
			return v
		}
		return m
	})
	return out, nil
}

// command evaluates one $(...) substitution. ok is false when the value is
// not known yet.
func (p *pass) command(fields []string) (string, bool, error) {
	if len(fields) == 0 {
		return "", false, nil
	}
	switch fields[0] {
	case "arg":
		if len(fields) != 2 {
			return "", false, fmt.Errorf("$(arg) takes one name, got %d", len(fields)-1)
		}
		if v, ok := p.args[fields[1]]; ok {
			return v, true, nil
		}
		v, ok := p.doc.Vars[argPrefix+fields[1]]
		return v, ok, nil
	case "find":
		if len(fields) != 2 {
			return "", false, fmt.Errorf("$(find) takes one package name, got %d", len(fields)-1)
		}
		if p.Find == nil {
			return "", false, &UnsupportedError{Directive: "$(find " + fields[1] + ")"}
		}
		dir, err := p.Find(fields[1])
		if err != nil {
			return "", false, fmt.Errorf("$(find %s): %w", fields[1], err)
		}
		return dir, true, nil
	case "env":
		if len(fields) != 2 {
			return "", false, fmt.Errorf("$(env) takes one variable name, got %d", len(fields)-1)
		}
		v, ok := p.lookupEnv(fields[1])
		if !ok {
			return "", false, &UndefinedError{Kind: "environment variable", Name: fields[1]}
		}
		return v, true, nil
	case "optenv":
		if len(fields) < 2 {
			return "", false, fmt.Errorf("$(optenv) needs a variable name")
		}
		if v, ok := p.lookupEnv(fields[1]); ok {
			return v, true, nil
		}
		return strings.Join(fields[2:], " "), true, nil
	case "dirname":
		return p.baseDir(), true, nil
	default:
		return "", false, &UnsupportedError{Directive: "$(" + fields[0] + ")"}
	}
}

func (p *pass) lookupEnv(name string) (string, bool) {
	if p.Getenv != nil {
		return p.Getenv(name)
	}
	return os.LookupEnv(name)
}

func (p *pass) baseDir() string {
	if p.doc.RootDir != "" {
		return p.doc.RootDir
	}
	return p.BaseDir
}

// conditionals splices the children of true branches into place and drops
// false ones. Values that still hold substitutions wait for a later pass.
func (p *pass) conditionals() error {
	var conds []*etree.Element
	p.doc.Walk(func(e *etree.Element) bool {
		if isDirective(e) && (e.Tag == "if" || e.Tag == "unless") {
			conds = append(conds, e)
		}
		return true
	})

	for _, e := range conds {
		raw := e.SelectAttrValue("value", "")
		if strings.Contains(raw, "$") {
			continue
		}
		keep, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return &ConditionError{Directive: "xacro:" + e.Tag, Value: raw}
		}
		if e.Tag == "unless" {
			keep = !keep
		}
		parent := e.Parent()
		if keep {
			splice(parent, e, e)
		}
		parent.RemoveChild(e)
	}
	return nil
}

// includes replaces each include whose filename is fully substituted with
// the children of the included document root.
func (p *pass) includes() error {
	var incs []*etree.Element
	p.doc.Walk(func(e *etree.Element) bool {
		if isDirective(e) && e.Tag == "include" {
			incs = append(incs, e)
			return false
		}
		return !isDirective(e)
	})

	for _, e := range incs {
		filename := e.SelectAttrValue("filename", "")
		if filename == "" {
			return fmt.Errorf("xacro:include without a filename")
		}
		if strings.Contains(filename, "$") {
			continue
		}
		path, err := p.includePath(filename)
		if err != nil {
			return err
		}
		included, err := urdf.ParseFile(path)
		if err != nil {
			return fmt.Errorf("include %s: %w", filename, err)
		}
		anchorRelative(included)
		parent := e.Parent()
		splice(parent, e, included.Root())
		parent.RemoveChild(e)
	}
	return nil
}

func (p *pass) includePath(filename string) (string, error) {
	ref := urdf.ParseReference(filename)
	switch ref.Scheme {
	case urdf.SchemePackage:
		r := resolve.Resolver{Locator: resolve.LocatorFunc(p.findPackage)}
		path, err := r.Text(filename)
		if err != nil {
			return "", fmt.Errorf("include %s: %w", filename, err)
		}
		return path, nil
	case urdf.SchemeFile:
		return ref.Path, nil
	}
	if filepath.IsAbs(filename) {
		return filename, nil
	}
	return filepath.Join(p.baseDir(), filepath.FromSlash(filename)), nil
}

func (p *pass) findPackage(name string) (string, error) {
	if p.Find == nil {
		return "", &UnsupportedError{Directive: "package:// include of " + name}
	}
	return p.Find(name)
}

// anchorRelative makes $(dirname) and relative include filenames in an
// included document refer to the included file's directory.
func anchorRelative(doc *urdf.Document) {
	doc.Walk(func(e *etree.Element) bool {
		for i := range e.Attr {
			e.Attr[i].Value = strings.ReplaceAll(e.Attr[i].Value, "$(dirname)", doc.RootDir)
		}
		if isDirective(e) && e.Tag == "include" {
			fn := e.SelectAttrValue("filename", "")
			ref := urdf.ParseReference(fn)
			if fn != "" && ref.Scheme == urdf.SchemeNone && !strings.Contains(fn, "$") && !filepath.IsAbs(fn) {
				e.CreateAttr("filename", filepath.Join(doc.RootDir, filepath.FromSlash(fn)))
			}
		}
		return true
	})
}

// splice moves the children of from into parent just before anchor.
func splice(parent, anchor, from *etree.Element) {
	for len(from.Child) > 0 {
		parent.InsertChildAt(anchor.Index(), from.Child[0])
	}
}

func isDirective(e *etree.Element) bool {
	return e.Space == "xacro" || e.NamespaceURI() == Namespace
}

func hasDirectives(doc *urdf.Document) bool {
	found := false
	doc.Walk(func(e *etree.Element) bool {
		if isDirective(e) {
			found = true
		}
		return !found
	})
	return found
}
