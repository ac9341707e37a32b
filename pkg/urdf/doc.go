// SPDX-License-Identifier: MPL-2.0

// Package urdf holds the in-memory robot description used by every stage of
// compilation.
//
// A Document wraps an etree element tree together with the root directory
// captured when the document was loaded. Resource references (the filename
// attribute of mesh and material elements) are parsed once into a Reference
// value so later stages work with a scheme tag and a path instead of
// re-matching string prefixes.
package urdf
