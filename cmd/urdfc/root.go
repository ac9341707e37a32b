// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/urdfc/urdfc/internal/issue"
	"github.com/urdfc/urdfc/pkg/types"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// newRootCommand builds the command tree around app.
func newRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "urdfc",
		Short: "Compile xacro robot descriptions into self-contained URDF",
		Long: TitleStyle.Render("urdfc") + SubtitleStyle.Render(" - Compile xacro robot descriptions into self-contained URDF") + `

urdfc expands xacro macros until the document stops changing, resolves
every package:// reference against the ROS packages it can find and
optionally copies the referenced meshes next to the output.

` + SubtitleStyle.Render("Package lookup order:") + `
  1. --pkg-path / --pkg-file / packages.paths overrides
  2. The input file's enclosing package (disable with --no-walk-up)
  3. --pkg-dir / packages.dirs directories
  4. AMENT_PREFIX_PATH and ROS_PACKAGE_PATH

` + SubtitleStyle.Render("Examples:") + `
  urdfc compile robot.urdf.xacro -o robot.urdf
  urdfc compile robot.urdf.xacro prefix:=left_ -c out/meshes -o out/robot.urdf
  urdfc watch robot.urdf.xacro -o robot.urdf
  urdfc pkg find robot_models -d ~/ws/src
  urdfc inspect robot.urdf.xacro`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.applyVerbosity()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.configFile, "config", "", "config file (default is $HOME/.config/urdfc/config.cue)")

	rootCmd.AddCommand(newCompileCommand(app))
	rootCmd.AddCommand(newWatchCommand(app))
	rootCmd.AddCommand(newPkgCommand(app))
	rootCmd.AddCommand(newInspectCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the App and runs the command tree. It is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}

	// fang overrides rootCmd.Version, so the version is passed explicitly.
	if err := fang.Execute(
		context.Background(),
		newRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithErrorHandler(app.handleError),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		// RunE handlers return ExitError; anything else came from flag or
		// argument parsing.
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code.OrFailure()))
		}
		os.Exit(int(types.ExitUsage))
	}
}

// handleError prints actionable errors with their suggestions and, in
// verbose mode, the matching issue page. Other errors get fang's styling.
func (a *App) handleError(w io.Writer, styles fang.Styles, err error) {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		fang.DefaultErrorHandler(w, styles, err)
		return
	}

	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(ae, a.verbose))
	if !a.verbose {
		return
	}
	if is := issue.Classify(err); is != nil {
		rendered, renderErr := is.Render(a.colorScheme())
		if renderErr != nil {
			a.logger.Debug("render issue", "id", is.Id(), "error", renderErr)
			return
		}
		fmt.Fprint(w, rendered)
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
