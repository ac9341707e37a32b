// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/urdfc/urdfc/internal/config"
	"github.com/urdfc/urdfc/internal/issue"
	"github.com/urdfc/urdfc/pkg/types"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every Cobra command handler receives an App
	// reference and reads configuration, output streams and the logger from it.
	App struct {
		Config config.Provider

		// LookupEnv reads the environment for package discovery and
		// $(env) substitutions.
		LookupEnv func(string) (string, bool)

		stdout io.Writer
		stderr io.Writer
		logger *log.Logger

		// Persistent flag values, bound by newRootCommand.
		verbose    bool
		configFile string

		cfgOnce sync.Once
		cfg     *config.Config
		cfgPath string
		cfgErr  error
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config    config.Provider
		LookupEnv func(string) (string, bool)
		Stdout    io.Writer
		Stderr    io.Writer
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.LookupEnv == nil {
		deps.LookupEnv = os.LookupEnv
	}

	logger := log.NewWithOptions(deps.Stderr, log.Options{
		Prefix: config.AppName,
		Level:  log.InfoLevel,
	})

	return &App{
		Config:    deps.Config,
		LookupEnv: deps.LookupEnv,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
		logger:    logger,
	}, nil
}

func (a *App) getenv(key string) string {
	v, _ := a.LookupEnv(key)
	return v
}

// Logger returns the application logger.
func (a *App) Logger() *log.Logger { return a.logger }

// loadConfig loads configuration once per App. ui.verbose raises the log
// level just like --verbose.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	a.cfgOnce.Do(func() {
		a.cfg, a.cfgPath, a.cfgErr = a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.configFile})
		if a.cfgErr == nil && a.cfg.UI.Verbose {
			a.verbose = true
		}
		a.applyVerbosity()
	})
	return a.cfg, a.cfgErr
}

func (a *App) applyVerbosity() {
	if a.verbose {
		a.logger.SetLevel(log.DebugLevel)
	} else {
		a.logger.SetLevel(log.InfoLevel)
	}
}

// colorScheme returns the glamour style for reports. Before configuration
// is loaded it falls back to automatic detection.
func (a *App) colorScheme() string {
	if a.cfg == nil {
		return string(config.ColorSchemeAuto)
	}
	return a.cfg.UI.ColorScheme.String()
}

// fail explains err for the user and marks it as a failed run.
func (a *App) fail(err error, operation, resource string) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: types.ExitFailure, Err: issue.Explain(err, operation, resource)}
}
