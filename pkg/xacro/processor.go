// SPDX-License-Identifier: MPL-2.0

package xacro

import "github.com/urdfc/urdfc/pkg/urdf"

type (
	// Processor expands macro directives in doc in place. args holds
	// externally supplied substitution arguments (name:=value).
	Processor interface {
		Process(doc *urdf.Document, args map[string]string) error
	}

	// Finalizer is implemented by processors that validate a document once
	// it has stopped changing, e.g. to report directives that could never
	// be expanded.
	Finalizer interface {
		Finalize(doc *urdf.Document) error
	}

	// ProcessorFunc adapts a function to the Processor interface.
	ProcessorFunc func(doc *urdf.Document, args map[string]string) error

	// FindFunc resolves a package name to its directory. It is injected into
	// processors that support $(find ...) and package:// includes.
	FindFunc func(name string) (string, error)
)

// Process calls f.
func (f ProcessorFunc) Process(doc *urdf.Document, args map[string]string) error {
	return f(doc, args)
}

// Nop is a Processor that leaves documents untouched.
var Nop Processor = ProcessorFunc(func(*urdf.Document, map[string]string) error { return nil })
