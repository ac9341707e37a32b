// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for urdfc.
//
// The root command wires configuration loading and logging; subcommands
// compile robot descriptions, watch them for changes, locate packages and
// report on the packages and assets a description pulls in.
package cmd
