// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride replaces the platform lookup in ConfigDir when set.
// Only tests set it: os.UserHomeDir ignores HOME on some platforms.
var configDirOverride string

// SetConfigDirOverride makes ConfigDir return dir until Reset.
func SetConfigDirOverride(dir string) { configDirOverride = dir }

// Reset restores the platform config directory lookup.
func Reset() { configDirOverride = "" }
