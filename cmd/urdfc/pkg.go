// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"maps"

	"github.com/spf13/cobra"

	"github.com/urdfc/urdfc/internal/config"
)

type pkgFindFlags struct {
	pkgDirs  []string
	pkgPaths []string
	pkgFiles []string
	from     string
}

func newPkgCommand(app *App) *cobra.Command {
	pkgCmd := &cobra.Command{
		Use:   "pkg",
		Short: "Locate ROS packages",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	pkgCmd.AddCommand(newPkgFindCommand(app))
	return pkgCmd
}

func newPkgFindCommand(app *App) *cobra.Command {
	flags := &pkgFindFlags{}

	cmd := &cobra.Command{
		Use:   "find <name> [name ...]",
		Short: "Print the directory of one or more packages",
		Long: `Print the directory of one or more packages using the same lookup
order as compile. A single name prints only the path so the output can be
used in scripts.`,
		Example: `  urdfc pkg find robot_models
  urdfc pkg find robot_models gripper_description -d ~/ws/src`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPkgFind(cmd, app, flags, args)
		},
	}

	fs := cmd.Flags()
	fs.StringArrayVarP(&flags.pkgDirs, "pkg-dir", "d", nil, "directory to search for packages (repeatable)")
	fs.StringArrayVarP(&flags.pkgPaths, "pkg-path", "p", nil, "package location override as NAME:=PATH (repeatable)")
	fs.StringArrayVar(&flags.pkgFiles, "pkg-file", nil, "package map file (.cue, .toml, .yaml, .yml)")
	fs.StringVar(&flags.from, "from", "", "also find the package enclosing this file or directory")
	return cmd
}

func runPkgFind(cmd *cobra.Command, app *App, flags *pkgFindFlags, names []string) error {
	cfg, err := app.loadConfig(cmd.Context())
	if err != nil {
		return app.fail(err, "load configuration", app.configFile)
	}

	req := compileRequest{
		PkgDirs: append(append([]string{}, flags.pkgDirs...), cfg.Packages.Dirs...),
	}
	if req.PkgPaths, err = packagePaths(cfg, flags.pkgFiles, flags.pkgPaths); err != nil {
		return app.fail(err, "parse arguments", "")
	}
	loc, err := app.newLocator(req)
	if err != nil {
		return app.fail(err, "configure package lookup", "")
	}
	if flags.from != "" {
		if err := loc.WalkUpFrom(flags.from, 0); err != nil {
			return app.fail(err, "configure package lookup", flags.from)
		}
	}
	for i, s := range loc.Strategies() {
		app.logger.Debug("strategy", "order", i+1, "finder", s)
	}

	var errs []error
	for _, name := range names {
		path, err := loc.Resolve(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(names) == 1 {
			fmt.Fprintln(app.stdout, path)
		} else {
			fmt.Fprintf(app.stdout, "%s %s\n", name, path)
		}
	}
	if len(errs) > 0 {
		return app.fail(errors.Join(errs...), "find package", "")
	}
	return nil
}

// packagePaths merges configured overrides with package-map files and
// NAME:=PATH flags, later sources winning.
func packagePaths(cfg *config.Config, files, pairs []string) (map[string]string, error) {
	out, err := cfg.Packages.PackagePaths()
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		m, err := config.LoadPackageMap(file)
		if err != nil {
			return nil, err
		}
		maps.Copy(out, m)
	}
	overrides, err := parsePackagePaths(pairs)
	if err != nil {
		return nil, err
	}
	maps.Copy(out, overrides)
	return out, nil
}
