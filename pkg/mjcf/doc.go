// SPDX-License-Identifier: MPL-2.0

// Package mjcf prepares compiled documents for conversion to the MuJoCo
// MJCF format and runs an external converter on them.
//
// The converter itself is opaque: Converter writes the prepared document to
// a temporary file next to the output and runs a configured command.
package mjcf
