// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes CUE files against embedded schemas.
//
// Both the urdfc configuration file and CUE package-map files go through
// the same three steps: compile the schema, unify the user file with a
// schema definition, then validate and decode into a Go struct. Errors
// carry the file name and a JSON-style path to the offending field:
//
//	config.cue: compile.max_runs: invalid value 0 (out of bound >=1)
//
// # Usage
//
//	//go:embed config_schema.cue
//	var schema []byte
//
//	res, err := cueutil.ParseAndDecode[Config](schema, data, "#Config",
//	    cueutil.WithFilename("config.cue"))
package cueutil
