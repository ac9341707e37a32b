// SPDX-License-Identifier: MPL-2.0

// Package expand drives a macro processor to a fixed point.
//
// Compilation is a small state machine: a document is Parsed once, then
// Expanding for as many passes as it takes for two consecutive compact
// serializations to be byte-identical (Converged). A document that is still
// changing when the pass budget runs out is Failed with a
// NonConvergenceError; this almost always means a directive expands into
// itself.
package expand
