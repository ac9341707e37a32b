// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/urdfc/urdfc/internal/config"
)

// newConfigCommand creates the `urdfc config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage urdfc configuration",
		Long: `Manage urdfc configuration.

Configuration is stored in:
  - Linux: ~/.config/urdfc/config.cue
  - macOS: ~/Library/Application Support/urdfc/config.cue
  - Windows: %APPDATA%\urdfc\config.cue

A config.cue in the working directory is used when the user file is absent.
Every key can be overridden from the environment, e.g. URDFC_COMPILE_MAX_RUNS.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(err, "load configuration", app.configFile)
			}
			showConfig(app.stdout, cfg, app.cfgPath)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(err, "load configuration", app.configFile)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfig()
			if err != nil {
				return app.fail(err, "create configuration", "")
			}
			fmt.Fprintf(app.stdout, "%s Configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return app.fail(err, "locate configuration", "")
			}
			path, err := config.DefaultConfigPath()
			if err != nil {
				return app.fail(err, "locate configuration", "")
			}
			fmt.Fprintf(app.stdout, "Config directory: %s\n", cfgDir)
			fmt.Fprintf(app.stdout, "Config file: %s\n", path)
			return nil
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, cfg *config.Config, source string) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	none := SubtitleStyle.Render("(none configured)")

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if source != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), source)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("packages"))
	fmt.Fprintf(w, "  walk_up: %s\n", valueStyle.Render(fmt.Sprint(cfg.Packages.WalkUp)))
	fmt.Fprintln(w, "  dirs:")
	if len(cfg.Packages.Dirs) == 0 {
		fmt.Fprintf(w, "    %s\n", none)
	}
	for _, d := range cfg.Packages.Dirs {
		fmt.Fprintf(w, "    - %s\n", valueStyle.Render(d))
	}
	fmt.Fprintln(w, "  paths:")
	if len(cfg.Packages.Paths) == 0 {
		fmt.Fprintf(w, "    %s\n", none)
	}
	for _, name := range slices.Sorted(maps.Keys(cfg.Packages.Paths)) {
		fmt.Fprintf(w, "    %s: %s\n", name, valueStyle.Render(cfg.Packages.Paths[name]))
	}
	fmt.Fprintln(w, "  files:")
	if len(cfg.Packages.Files) == 0 {
		fmt.Fprintf(w, "    %s\n", none)
	}
	for _, f := range cfg.Packages.Files {
		fmt.Fprintf(w, "    - %s\n", valueStyle.Render(f))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("compile"))
	fmt.Fprintf(w, "  max_runs: %s\n", valueStyle.Render(fmt.Sprint(cfg.Compile.MaxRuns)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("output"))
	fmt.Fprintf(w, "  protocol: %s\n", valueStyle.Render(fmt.Sprint(cfg.Output.Protocol)))
	fmt.Fprintf(w, "  pretty: %s\n", valueStyle.Render(fmt.Sprint(cfg.Output.Pretty)))
	fmt.Fprintf(w, "  compare_existing: %s\n", valueStyle.Render(fmt.Sprint(cfg.Output.CompareExisting)))
	fmt.Fprintf(w, "  reuse_asset_dir: %s\n", valueStyle.Render(fmt.Sprint(cfg.Output.ReuseAssetDir)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("mjcf"))
	converter := none
	if cfg.MJCF.Converter != "" {
		converter = valueStyle.Render(cfg.MJCF.Converter)
	}
	fmt.Fprintf(w, "  converter: %s\n", converter)
	fmt.Fprintf(w, "  min_inertia: %s\n", valueStyle.Render(fmt.Sprint(cfg.MJCF.MinInertia)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  color_scheme: %s\n", valueStyle.Render(cfg.UI.ColorScheme.String()))
	fmt.Fprintf(w, "  verbose: %s\n", valueStyle.Render(fmt.Sprint(cfg.UI.Verbose)))
}
