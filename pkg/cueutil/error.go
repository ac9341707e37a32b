// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// ErrInvalidFile is the sentinel error wrapped by ValidationError.
var ErrInvalidFile = errors.New("invalid CUE file")

type (
	// Issue is one problem found in a file.
	Issue struct {
		// Path is the JSON-style path to the field, e.g. "packages.dirs[1]".
		// Empty for file-level problems such as syntax errors.
		Path    string
		Message string
	}

	// ValidationError lists every issue CUE reported for a file.
	ValidationError struct {
		FilePath string
		Issues   []Issue
	}
)

// Error implements the error interface.
func (e *ValidationError) Error() string {
	lines := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		if is.Path != "" {
			lines[i] = is.Path + ": " + is.Message
		} else {
			lines[i] = is.Message
		}
	}
	if len(lines) == 1 {
		return fmt.Sprintf("%s: %s", e.FilePath, lines[0])
	}
	return fmt.Sprintf("%s: validation failed:\n  %s", e.FilePath, strings.Join(lines, "\n  "))
}

// Unwrap returns ErrInvalidFile for errors.Is() compatibility.
func (e *ValidationError) Unwrap() error { return ErrInvalidFile }

// FormatError converts a CUE error into a *ValidationError for filePath.
// Errors that did not come from CUE are wrapped with the file path.
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}
	var ce cueerrors.Error
	if !errors.As(err, &ce) {
		return fmt.Errorf("%s: %w", filePath, err)
	}
	list := cueerrors.Errors(err)

	verr := &ValidationError{FilePath: filePath}
	for _, e := range list {
		path := formatPath(cueerrors.Path(e))
		msg := e.Error()
		if path != "" && strings.HasPrefix(msg, path) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, path), ":"))
		}
		verr.Issues = append(verr.Issues, Issue{Path: path, Message: msg})
	}
	return verr
}

// formatPath renders a CUE path such as ["packages", "dirs", "1"] as
// "packages.dirs[1]".
func formatPath(path []string) string {
	var b strings.Builder
	for i, part := range path {
		switch {
		case i > 0 && isIndex(part):
			b.WriteString("[" + part + "]")
		case i > 0:
			b.WriteString("." + part)
		default:
			b.WriteString(part)
		}
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize returns an error when data is larger than maxSize bytes.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", filename, len(data), maxSize)
	}
	return nil
}
