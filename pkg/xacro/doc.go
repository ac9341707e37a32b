// SPDX-License-Identifier: MPL-2.0

// Package xacro defines the narrow interface the compiler uses to drive a
// macro processor, and ships Default, a single-pass processor for the
// include, argument, property and conditional directives.
//
// A Processor mutates a document in place. The expander calls it
// repeatedly until the serialized document stops changing, so a processor
// only needs to make progress on each pass rather than expand everything at
// once. Default relies on this: content spliced in by an include is left for
// the next pass.
//
// Macro definitions, block properties and expression evaluation are not
// supported by Default; documents using them need a different Processor.
package xacro
