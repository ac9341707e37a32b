// SPDX-License-Identifier: MPL-2.0

// Package robotdoc is the high-level entry point for compiling robot
// descriptions. A Doc bundles the compiled document with the package
// locator used to build it and exposes the output operations: asset
// localization, rendering, file output and MJCF export.
//
// Typical use:
//
//	d, err := robotdoc.FromFile("robot.urdf.xacro", robotdoc.Options{
//		Args: map[string]string{"gripper": "true"},
//	})
//	if err != nil {
//		return err
//	}
//	_, err = d.WriteFile("robot.urdf", project.DefaultOptions(), true)
package robotdoc
