// SPDX-License-Identifier: MPL-2.0

// Package config handles urdfc configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/urdfc/config.cue (or $XDG_CONFIG_HOME on Linux,
// ~/Library/Application Support/urdfc/config.cue on macOS, %APPDATA%\urdfc\config.cue
// on Windows), from a file given with --config, or from config.cue in the working
// directory. Values may be overridden through URDFC_* environment variables.
//
// The package also reads package-map files (CUE, TOML or YAML) that pin ROS package
// names to directories, feeding packages.Locator.RegisterOverrides.
package config
