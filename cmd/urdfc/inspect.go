// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/urdfc/urdfc/pkg/robotdoc"
	"github.com/urdfc/urdfc/pkg/urdf"
	"github.com/urdfc/urdfc/pkg/xacro"
)

type (
	// assetRow is one distinct asset file referenced by a document.
	assetRow struct {
		Path   string
		Uses   int
		Exists bool
	}

	// inspectReport is the data behind `urdfc inspect`.
	inspectReport struct {
		Input      string
		Args       map[string]string
		Passes     int
		State      string
		Packages   [][2]string
		Strategies []string
		Assets     []assetRow
	}
)

func newInspectCommand(app *App) *cobra.Command {
	flags := &compileFlags{}
	var raw bool

	cmd := &cobra.Command{
		Use:   "inspect <file> [name:=value ...]",
		Short: "Report the packages and assets a description uses",
		Long: `Compile a description without writing it and print a report of the
packages that were resolved, the lookup strategies in order and every
referenced asset file, flagging the ones that do not exist.

The report is rendered as markdown using the ui.color_scheme style.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(err, "load configuration", app.configFile)
			}
			req, err := flags.request(cmd, cfg, args)
			if err != nil {
				return app.fail(err, "parse arguments", "")
			}
			// Only the compiled document is needed.
			req.Output, req.AssetDir, req.MJCF = "", "", false

			loc, err := app.newLocator(req)
			if err != nil {
				return app.fail(err, "configure package lookup", "")
			}
			doc, err := robotdoc.FromFile(req.Input, robotdoc.Options{
				Args:          req.Args,
				Locator:       loc,
				Processor:     &xacro.Default{Find: loc.Resolve, Getenv: app.LookupEnv},
				MaxIterations: req.MaxRuns,
				NoWalkUp:      !req.WalkUp,
				Logger:        app.logger,
			})
			if err != nil {
				return app.fail(err, "inspect", req.Input)
			}

			md := buildInspectReport(req, doc).Markdown()
			if raw {
				fmt.Fprint(app.stdout, md)
				return nil
			}
			out, err := glamour.Render(md, app.colorScheme())
			if err != nil {
				return app.fail(err, "render report", "")
			}
			fmt.Fprint(app.stdout, out)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringArrayVarP(&flags.pkgDirs, "pkg-dir", "d", nil, "directory to search for packages (repeatable)")
	fs.StringArrayVarP(&flags.pkgPaths, "pkg-path", "p", nil, "package location override as NAME:=PATH (repeatable)")
	fs.StringArrayVar(&flags.pkgFiles, "pkg-file", nil, "package map file (.cue, .toml, .yaml, .yml)")
	fs.BoolVar(&flags.noWalkUp, "no-walk-up", false, "do not discover the package enclosing the input file")
	fs.IntVar(&flags.maxRuns, "max-runs", 0, "maximum macro expansion passes (default from compile.max_runs)")
	fs.BoolVar(&raw, "raw", false, "print the markdown source instead of rendering it")
	return cmd
}

func buildInspectReport(req compileRequest, doc *robotdoc.Doc) inspectReport {
	r := inspectReport{
		Input:      req.Input,
		Args:       req.Args,
		Passes:     doc.Result().Iterations,
		State:      doc.Result().State.String(),
		Strategies: doc.Locator().Strategies(),
	}
	for _, e := range doc.Locator().Entries() {
		r.Packages = append(r.Packages, [2]string{e.Name, e.Path})
	}

	index := make(map[string]int)
	d := doc.Document()
	for _, a := range d.Assets() {
		ref := a.Reference()
		path := ref.Path
		if ref.Scheme == urdf.SchemeNone && !filepath.IsAbs(path) {
			path = filepath.Join(d.RootDir, filepath.FromSlash(path))
		}
		if i, ok := index[path]; ok {
			r.Assets[i].Uses++
			continue
		}
		_, statErr := os.Stat(path)
		index[path] = len(r.Assets)
		r.Assets = append(r.Assets, assetRow{Path: path, Uses: 1, Exists: statErr == nil})
	}
	return r
}

// Markdown renders the report.
func (r inspectReport) Markdown() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", filepath.Base(r.Input))
	fmt.Fprintf(&sb, "Expansion %s after %d pass%s.\n", r.State, r.Passes, plural(r.Passes, "", "es"))
	if len(r.Args) > 0 {
		sb.WriteString("\n## Arguments\n\n")
		for _, k := range slices.Sorted(maps.Keys(r.Args)) {
			fmt.Fprintf(&sb, "- `%s` = `%s`\n", k, r.Args[k])
		}
	}

	sb.WriteString("\n## Packages\n\n")
	if len(r.Packages) == 0 {
		sb.WriteString("_No packages referenced._\n")
	} else {
		sb.WriteString("| Package | Directory |\n|---|---|\n")
		for _, p := range r.Packages {
			fmt.Fprintf(&sb, "| `%s` | %s |\n", p[0], p[1])
		}
	}

	sb.WriteString("\n## Lookup order\n\n")
	for i, s := range r.Strategies {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, s)
	}

	sb.WriteString("\n## Assets\n\n")
	if len(r.Assets) == 0 {
		sb.WriteString("_No assets referenced._\n")
		return sb.String()
	}
	missing := 0
	sb.WriteString("| File | Uses | Status |\n|---|---|---|\n")
	for _, a := range r.Assets {
		status := "ok"
		if !a.Exists {
			status = "**missing**"
			missing++
		}
		fmt.Fprintf(&sb, "| %s | %d | %s |\n", a.Path, a.Uses, status)
	}
	if missing > 0 {
		fmt.Fprintf(&sb, "\n> %d of %d asset files are missing.\n", missing, len(r.Assets))
	}
	return sb.String()
}
