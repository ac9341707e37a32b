// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/urdfc/urdfc/internal/config"
	"github.com/urdfc/urdfc/internal/issue"
	"github.com/urdfc/urdfc/pkg/localize"
	"github.com/urdfc/urdfc/pkg/mjcf"
	"github.com/urdfc/urdfc/pkg/packages"
	"github.com/urdfc/urdfc/pkg/project"
	"github.com/urdfc/urdfc/pkg/robotdoc"
	"github.com/urdfc/urdfc/pkg/xacro"
)

const argSeparator = ":="

type (
	// compileFlags holds the flag values shared by compile and watch.
	compileFlags struct {
		output        string
		copyAssetsTo  string
		reuseAssets   bool
		pkgDirs       []string
		pkgPaths      []string
		pkgFiles      []string
		noWalkUp      bool
		maxRuns       int
		protocol      bool
		relativeTo    string
		compact       bool
		compare       bool
		mjcf          bool
		mjcfConverter string
		minInertia    float64
	}

	// compileRequest is one compilation with flags merged over configuration.
	compileRequest struct {
		Input    string
		Args     map[string]string
		Output   string
		AssetDir string

		// ReuseAssetDir lets repeated compiles copy into the same directory.
		ReuseAssetDir bool

		PkgDirs    []string
		PkgPaths   map[string]string
		WalkUp     bool
		MaxRuns    int
		Project    project.Options
		Compare    bool
		MJCF       bool
		Converter  string
		MinInertia float64
	}

	// compileResult reports what a compilation produced.
	compileResult struct {
		Doc     *robotdoc.Doc
		Records []localize.Record
		// Written is false when --compare found the output up to date.
		Written bool
	}
)

func newCompileCommand(app *App) *cobra.Command {
	flags := &compileFlags{}

	cmd := &cobra.Command{
		Use:   "compile <file> [name:=value ...]",
		Short: "Compile a xacro or URDF file into a self-contained URDF",
		Long: `Compile a xacro or URDF file into a self-contained URDF.

Macros are expanded until the document stops changing, then every
package:// reference is replaced with an absolute path. Without --output
the result is printed to stdout.

Substitution arguments follow the input file as name:=value pairs.`,
		Example: `  urdfc compile robot.urdf.xacro -o robot.urdf
  urdfc compile robot.urdf.xacro prefix:=left_ use_gripper:=true
  urdfc compile robot.urdf.xacro -c out/meshes -o out/robot.urdf --relative-to out
  urdfc compile robot.urdf.xacro -o robot.xml --mjcf --mjcf-converter 'urdf2mjcf {in} {out}'`,
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
			res, err := app.compile(cmd.Context(), req)
			if err != nil {
				return app.fail(err, "compile", req.Input)
			}
			app.report(req, res)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func (f *compileFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.output, "output", "o", "", "write the result to this file instead of stdout")
	fs.StringVarP(&f.copyAssetsTo, "copy-assets-to", "c", "", "copy referenced assets into this directory")
	fs.BoolVar(&f.reuseAssets, "reuse-asset-dir", false, "allow --copy-assets-to to name an existing directory")
	fs.StringArrayVarP(&f.pkgDirs, "pkg-dir", "d", nil, "directory to search for packages (repeatable)")
	fs.StringArrayVarP(&f.pkgPaths, "pkg-path", "p", nil, "package location override as NAME:=PATH (repeatable)")
	fs.StringArrayVar(&f.pkgFiles, "pkg-file", nil, "package map file (.cue, .toml, .yaml, .yml)")
	fs.BoolVar(&f.noWalkUp, "no-walk-up", false, "do not discover the package enclosing the input file")
	fs.IntVar(&f.maxRuns, "max-runs", 0, "maximum macro expansion passes (default from compile.max_runs)")
	fs.BoolVar(&f.protocol, "protocol", false, "prefix absolute paths with file://")
	fs.StringVar(&f.relativeTo, "relative-to", "", "write references relative to this directory")
	fs.BoolVar(&f.compact, "compact", false, "do not indent the output")
	fs.BoolVar(&f.compare, "compare", false, "leave the output untouched when its content is unchanged")
	fs.BoolVar(&f.mjcf, "mjcf", false, "convert the result to MJCF with an external converter")
	fs.StringVar(&f.mjcfConverter, "mjcf-converter", "", "converter command line with {in} and {out} placeholders")
	fs.Float64Var(&f.minInertia, "min-inertia", 0, "raise diagonal inertia values below this threshold")
}

// request merges flags over cfg. Flags that were not given fall back to
// the configuration.
func (f *compileFlags) request(cmd *cobra.Command, cfg *config.Config, args []string) (compileRequest, error) {
	req := compileRequest{
		Input:      args[0],
		Output:     f.output,
		AssetDir:   f.copyAssetsTo,
		WalkUp:     cfg.Packages.WalkUp && !f.noWalkUp,
		MaxRuns:    cfg.Compile.MaxRuns,
		Compare:    cfg.Output.CompareExisting,
		MJCF:       f.mjcf,
		Converter:  cfg.MJCF.Converter,
		MinInertia: cfg.MJCF.MinInertia,
		Project: project.Options{
			Protocol:   cfg.Output.Protocol,
			RelativeTo: f.relativeTo,
			Pretty:     cfg.Output.Pretty,
		},
	}

	changed := cmd.Flags().Changed
	if changed("max-runs") {
		req.MaxRuns = f.maxRuns
	}
	if changed("protocol") {
		req.Project.Protocol = f.protocol
	}
	if changed("compact") {
		req.Project.Pretty = !f.compact
	}
	if changed("compare") {
		req.Compare = f.compare
	}
	req.ReuseAssetDir = cfg.Output.ReuseAssetDir
	if changed("reuse-asset-dir") {
		req.ReuseAssetDir = f.reuseAssets
	}
	if f.mjcfConverter != "" {
		req.Converter = f.mjcfConverter
	}
	if changed("min-inertia") {
		req.MinInertia = f.minInertia
	}
	if req.MaxRuns < 1 {
		return req, fmt.Errorf("%w: --max-runs must be at least 1", issue.ErrInvalidArgument)
	}
	if req.MinInertia < 0 {
		return req, fmt.Errorf("%w: --min-inertia must not be negative", issue.ErrInvalidArgument)
	}
	if req.MJCF && req.Output == "" {
		return req, fmt.Errorf("%w: --mjcf requires --output", issue.ErrInvalidArgument)
	}

	var err error
	if req.Args, err = parseSubstitutionArgs(args[1:]); err != nil {
		return req, err
	}

	req.PkgDirs = append(append([]string{}, f.pkgDirs...), cfg.Packages.Dirs...)

	if req.PkgPaths, err = packagePaths(cfg, f.pkgFiles, f.pkgPaths); err != nil {
		return req, err
	}

	return req, nil
}

// parseSubstitutionArgs turns name:=value pairs into a map. Later pairs
// override earlier ones.
func parseSubstitutionArgs(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, argSeparator)
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q is not of the form name:=value", issue.ErrInvalidArgument, pair)
		}
		out[name] = value
	}
	return out, nil
}

// parsePackagePaths turns NAME:=PATH overrides into a map.
func parsePackagePaths(pairs []string) (map[string]string, error) {
	out, err := parseSubstitutionArgs(pairs)
	if err != nil {
		return nil, err
	}
	for name, path := range out {
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("%w: --pkg-path %s has an empty path", issue.ErrInvalidArgument, name)
		}
	}
	return out, nil
}

// newLocator builds the package locator for req: overrides first, then the
// configured directories, then the environment.
func (a *App) newLocator(req compileRequest) (*packages.Locator, error) {
	loc := packages.New(packages.WithLogger(a.logger), packages.WithEnv(a.getenv))
	if err := loc.RegisterOverrides(req.PkgPaths); err != nil {
		return nil, err
	}
	if len(req.PkgDirs) > 0 {
		loc.LookIn(req.PkgDirs, 0)
	}
	return loc, nil
}

// compile runs one full compilation: expansion, package resolution, the
// optional asset copy and the output step.
func (a *App) compile(ctx context.Context, req compileRequest) (*compileResult, error) {
	loc, err := a.newLocator(req)
	if err != nil {
		return nil, err
	}

	doc, err := robotdoc.FromFile(req.Input, robotdoc.Options{
		Args:          req.Args,
		Locator:       loc,
		Processor:     &xacro.Default{Find: loc.Resolve, Getenv: a.LookupEnv},
		MaxIterations: req.MaxRuns,
		NoWalkUp:      !req.WalkUp,
		Logger:        a.logger,
	})
	if err != nil {
		return nil, err
	}
	res := &compileResult{Doc: doc}
	a.logger.Debug("expanded", "file", req.Input, "passes", doc.Result().Iterations, "state", doc.Result().State)

	if req.AssetDir != "" {
		l := &localize.Localizer{AllowExisting: req.ReuseAssetDir, Logger: a.logger}
		if res.Records, err = doc.LocalizeAssets(l, req.AssetDir); err != nil {
			return nil, err
		}
	}

	switch {
	case req.MJCF:
		opts := mjcf.Options{MinInertia: req.MinInertia}
		if opts.Compiler, err = mjcf.CompilerOptions(req.AssetDir, req.Output); err != nil {
			return nil, err
		}
		conv := &mjcf.Converter{Command: req.Converter, Getenv: a.getenv, Logger: a.logger}
		if err := doc.MJCF(ctx, conv, req.Output, opts); err != nil {
			return nil, err
		}
		res.Written = true
	case req.Output != "":
		if res.Written, err = doc.WriteFile(req.Output, req.Project, req.Compare); err != nil {
			return nil, err
		}
	default:
		text, err := doc.String(req.Project)
		if err != nil {
			return nil, err
		}
		fmt.Fprint(a.stdout, text)
		if !strings.HasSuffix(text, "\n") {
			fmt.Fprintln(a.stdout)
		}
	}
	return res, nil
}

// report logs a one-line summary for file outputs. Stdout output stays
// clean so it can be piped.
func (a *App) report(req compileRequest, res *compileResult) {
	if len(res.Records) > 0 {
		a.logger.Info("copied assets", "count", len(res.Records), "dir", req.AssetDir)
	}
	if req.Output == "" {
		return
	}
	out := req.Output
	if abs, err := filepath.Abs(out); err == nil {
		out = abs
	}
	if res.Written {
		a.logger.Info("wrote "+CmdStyle.Render(out), "packages", len(res.Doc.Locator().Entries()))
	} else {
		a.logger.Info(SubtitleStyle.Render("unchanged ") + out)
	}
}
