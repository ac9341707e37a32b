// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/urdfc/urdfc/internal/watch"
)

type watchFlags struct {
	compileFlags
	debounce    time.Duration
	clearScreen bool
	patterns    []string
	ignore      []string
}

func newWatchCommand(app *App) *cobra.Command {
	flags := &watchFlags{}

	cmd := &cobra.Command{
		Use:   "watch <file> [name:=value ...]",
		Short: "Recompile whenever the description or its packages change",
		Long: `Compile once, then recompile whenever a xacro, URDF, package manifest
or mesh file changes in the input's directory or in any package the last
compilation used.

The output file and the asset directory are never watched. Assets are
copied into the same directory on every run.`,
		Example: `  urdfc watch robot.urdf.xacro -o robot.urdf
  urdfc watch robot.urdf.xacro -o out/robot.urdf -c out/meshes --clear`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, app, flags, args)
		},
	}

	flags.register(cmd)
	fs := cmd.Flags()
	fs.DurationVar(&flags.debounce, "debounce", 0, "quiet period before recompiling (default 300ms)")
	fs.BoolVar(&flags.clearScreen, "clear", false, "clear the terminal before each recompile")
	fs.StringArrayVar(&flags.patterns, "pattern", nil, "glob selecting files that trigger a recompile (repeatable)")
	fs.StringArrayVar(&flags.ignore, "ignore", nil, "glob excluded from watching (repeatable)")
	return cmd
}

// runWatch compiles once and then blocks until the context is cancelled
// (e.g., Ctrl+C). Compile failures are reported without stopping the loop.
func runWatch(cmd *cobra.Command, app *App, flags *watchFlags, args []string) error {
	ctx := cmd.Context()
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return app.fail(err, "load configuration", app.configFile)
	}
	req, err := flags.request(cmd, cfg, args)
	if err != nil {
		return app.fail(err, "parse arguments", "")
	}
	if req.Output == "" && !req.MJCF {
		app.logger.Warn("no --output given, results go to stdout")
	}
	req.ReuseAssetDir = true

	input, err := filepath.Abs(req.Input)
	if err != nil {
		return app.fail(err, "watch", req.Input)
	}

	var skip []string
	for _, p := range []string{req.Output, req.AssetDir} {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return app.fail(err, "watch", p)
		}
		skip = append(skip, abs)
	}

	var w *watch.Watcher
	recompile := func(ctx context.Context) {
		res, err := app.compile(ctx, req)
		if err != nil {
			app.logger.Error(formatErrorForDisplay(app.fail(err, "compile", req.Input), app.verbose))
			return
		}
		app.report(req, res)
		if w == nil {
			return
		}
		for _, e := range res.Doc.Locator().Entries() {
			if err := w.Add(e.Path); err != nil {
				app.logger.Warn("cannot watch package", "name", e.Name, "path", e.Path, "err", err)
			}
		}
	}

	w, err = watch.New(watch.Config{
		Roots:       []string{filepath.Dir(input)},
		Patterns:    flags.patterns,
		Ignore:      flags.ignore,
		Skip:        skip,
		Debounce:    flags.debounce,
		ClearScreen: flags.clearScreen,
		Stdout:      app.stdout,
		Logger:      app.logger,
		OnChange: func(ctx context.Context, changed []string) error {
			app.logger.Debug("recompiling", "changed", changed)
			recompile(ctx)
			return nil
		},
	})
	if err != nil {
		return app.fail(err, "watch", req.Input)
	}

	recompile(ctx)
	app.logger.Info(fmt.Sprintf("watching %d director%s, press Ctrl+C to stop", len(w.Roots()), plural(len(w.Roots()), "y", "ies")))

	if err := w.Run(ctx); err != nil {
		return app.fail(err, "watch", req.Input)
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
