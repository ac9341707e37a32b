// SPDX-License-Identifier: MPL-2.0

// Package packages maps symbolic package names to directories on disk.
//
// A Locator holds an ordered list of Finder strategies and a cache. Lookups
// consult the cache first, then try each strategy in list order; the first
// strategy that answers wins and its answer is cached for the lifetime of
// the Locator. Manual overrides are written straight into the cache.
//
// Strategies shipped here:
//   - EnvFinder: the platform default (AMENT_PREFIX_PATH, then ROS_PACKAGE_PATH)
//   - DirFinder: crawls explicit directories for package descriptors
//   - WalkUpFinder: climbs from a starting path toward the filesystem root
package packages
