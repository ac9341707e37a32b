// SPDX-License-Identifier: MPL-2.0

// Package project renders compiled documents with their resource references
// expressed in a chosen form. Rendering always works on a copy; the
// compiled document keeps its canonical references.
package project
