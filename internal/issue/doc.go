// SPDX-License-Identifier: MPL-2.0

// Package issue turns compiler errors into actionable CLI messages.
//
// Each Issue pairs the sentinel errors it explains with one-line suggestions
// and a markdown page. Classify maps an error to its Issue and Explain wraps
// it as an ActionableError carrying those suggestions.
package issue
