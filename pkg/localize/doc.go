// SPDX-License-Identifier: MPL-2.0

// Package localize copies the files a document references into a single
// directory and rewrites the references to match.
//
// Localization runs in three passes. The first assigns every distinct source
// file a destination name in document order, so elements that share a
// source share a destination. The second rewrites references. The third
// copies files. Nothing is copied until the whole mapping is known.
package localize
