// SPDX-License-Identifier: MPL-2.0

// Package types defines small validated value types shared across urdfc
// packages: filesystem paths, package names and process exit codes.
package types
