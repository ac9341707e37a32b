// SPDX-License-Identifier: MPL-2.0

package expand

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/urdfc/urdfc/pkg/urdf"
	"github.com/urdfc/urdfc/pkg/xacro"
)

// DefaultMaxIterations is the pass budget used when Expander.MaxIterations
// is not positive.
const DefaultMaxIterations = 10

const (
	// StateParsed means the input was parsed and no pass has run yet.
	StateParsed State = iota
	// StateExpanding means at least one pass has run and the document was
	// still changing.
	StateExpanding
	// StateConverged means the last pass left the document unchanged.
	StateConverged
	// StateFailed means a pass errored or the budget ran out.
	StateFailed
)

// ErrNonConvergence is the sentinel error wrapped by NonConvergenceError.
var ErrNonConvergence = errors.New("macro expansion did not converge")

type (
	// State is the phase of a compilation.
	State int

	// Expander runs a Processor until the document stops changing.
	Expander struct {
		Processor xacro.Processor
		// MaxIterations bounds the number of Process calls.
		MaxIterations int
		// RootDir becomes the compiled document's root directory.
		RootDir string
		Logger  *log.Logger
	}

	// Result describes how a compilation ended.
	Result struct {
		Document *urdf.Document
		State    State
		// Iterations is the number of Process calls made.
		Iterations int
	}

	// NonConvergenceError is returned when every pass in the budget changed
	// the document.
	NonConvergenceError struct {
		Iterations int
	}
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateParsed:
		return "parsed"
	case StateExpanding:
		return "expanding"
	case StateConverged:
		return "converged"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Error implements the error interface.
func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("macro expansion still changing after %d iterations; check for a directive that expands into itself", e.Iterations)
}

// Unwrap returns ErrNonConvergence for errors.Is() compatibility.
func (e *NonConvergenceError) Unwrap() error { return ErrNonConvergence }

// New returns an Expander using p with the default budget.
func New(p xacro.Processor) *Expander {
	return &Expander{Processor: p, MaxIterations: DefaultMaxIterations}
}

// Compile parses text and expands it to a fixed point.
func (e *Expander) Compile(text string, args map[string]string) (*urdf.Document, error) {
	res, err := e.CompileWithResult(text, args)
	if err != nil {
		return nil, err
	}
	return res.Document, nil
}

// CompileWithResult is Compile but also reports the final state and the
// number of passes.
func (e *Expander) CompileWithResult(text string, args map[string]string) (Result, error) {
	doc, err := urdf.Parse(text, e.RootDir)
	if err != nil {
		return Result{State: StateFailed}, err
	}
	return e.Expand(doc, args)
}

// Expand runs the fixed-point loop on an already parsed document, mutating
// it in place.
func (e *Expander) Expand(doc *urdf.Document, args map[string]string) (Result, error) {
	res := Result{Document: doc, State: StateParsed}
	proc := e.Processor
	if proc == nil {
		proc = xacro.Nop
	}
	budget := e.MaxIterations
	if budget <= 0 {
		budget = DefaultMaxIterations
	}
	logger := e.logger()

	prev, err := doc.Compact()
	if err != nil {
		res.State = StateFailed
		return res, err
	}
	for res.Iterations < budget {
		res.Iterations++
		if err := proc.Process(doc, args); err != nil {
			res.State = StateFailed
			return res, fmt.Errorf("expansion pass %d: %w", res.Iterations, err)
		}
		cur, err := doc.Compact()
		if err != nil {
			res.State = StateFailed
			return res, err
		}
		if cur == prev {
			res.State = StateConverged
			break
		}
		res.State = StateExpanding
		logger.Debug("expansion pass changed document", "pass", res.Iterations, "bytes", len(cur))
		prev = cur
	}

	if res.State != StateConverged {
		res.State = StateFailed
		return res, &NonConvergenceError{Iterations: res.Iterations}
	}
	if f, ok := proc.(xacro.Finalizer); ok {
		if err := f.Finalize(doc); err != nil {
			res.State = StateFailed
			return res, fmt.Errorf("after %d passes: %w", res.Iterations, err)
		}
	}
	logger.Debug("expansion converged", "passes", res.Iterations)
	return res, nil
}

func (e *Expander) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.New(io.Discard)
}
