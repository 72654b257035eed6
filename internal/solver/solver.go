// Package solver contains the numerical engines a run drives. The rest of
// the application only sees the Solver interface: a solver emits one
// StepResult per reported step and writes free-form diagnostics to out.
package solver

import (
	"context"
	"io"

	"github.com/san-kum/expressfrac/internal/frac"
)

// Solver runs one simulation to completion. emit is called synchronously,
// in time order, from the goroutine that called Solve. A non-nil error
// ends the run as a failure.
type Solver interface {
	Solve(ctx context.Context, req frac.Request, emit func(frac.StepResult), out io.Writer) error
}

// Func adapts an ordinary function to the Solver interface.
type Func func(ctx context.Context, req frac.Request, emit func(frac.StepResult), out io.Writer) error

func (f Func) Solve(ctx context.Context, req frac.Request, emit func(frac.StepResult), out io.Writer) error {
	return f(ctx, req, emit, out)
}
