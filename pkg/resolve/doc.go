// SPDX-License-Identifier: MPL-2.0

// Package resolve rewrites package:// resource references into absolute
// file references using an injected package locator.
package resolve
