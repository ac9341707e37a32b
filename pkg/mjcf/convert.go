// SPDX-License-Identifier: MPL-2.0

package mjcf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/shell"

	"github.com/urdfc/urdfc/pkg/urdf"
)

const (
	// InputPlaceholder is replaced by the prepared document path.
	InputPlaceholder = "{in}"
	// OutputPlaceholder is replaced by the requested output path.
	OutputPlaceholder = "{out}"
)

// ErrNoConverter is returned when no converter command is configured.
var ErrNoConverter = errors.New("no MJCF converter command configured")

// Converter runs an external URDF to MJCF converter.
type Converter struct {
	// Command is a shell-style command line with {in} and {out}
	// placeholders, e.g. "urdf2mjcf {in} {out}".
	Command string
	// Getenv expands variables in Command. Defaults to os.Getenv.
	Getenv func(string) string
	Logger *log.Logger
}

// Convert prepares doc, writes it next to outPath and runs the converter.
// The intermediate file lives beside the output because converters resolve
// relative mesh paths against it.
func (c *Converter) Convert(ctx context.Context, doc *urdf.Document, outPath string, opts Options) error {
	argv, err := c.argv()
	if err != nil {
		return err
	}
	prepared, err := Prepare(doc, opts)
	if err != nil {
		return err
	}
	text, err := prepared.Pretty()
	if err != nil {
		return err
	}

	outAbs, err := filepath.Abs(outPath)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(outAbs), ".urdfc-*.urdf")
	if err != nil {
		return fmt.Errorf("create intermediate file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.WriteString(text); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write intermediate file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close intermediate file: %w", err)
	}

	args := make([]string, len(argv))
	for i, a := range argv {
		a = strings.ReplaceAll(a, InputPlaceholder, tmp.Name())
		args[i] = strings.ReplaceAll(a, OutputPlaceholder, outAbs)
	}
	c.logger().Debug("running MJCF converter", "argv", args)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("mjcf converter %s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (c *Converter) argv() ([]string, error) {
	if strings.TrimSpace(c.Command) == "" {
		return nil, ErrNoConverter
	}
	argv, err := shell.Fields(c.Command, c.Getenv)
	if err != nil {
		return nil, fmt.Errorf("parse converter command %q: %w", c.Command, err)
	}
	if len(argv) == 0 {
		return nil, ErrNoConverter
	}
	return argv, nil
}

func (c *Converter) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.New(io.Discard)
}
