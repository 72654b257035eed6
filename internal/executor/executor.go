// Package executor runs one solver invocation at a time on a background
// goroutine and reports its progress through an ordered mailbox.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/san-kum/expressfrac/internal/frac"
	"github.com/san-kum/expressfrac/internal/mailbox"
	"github.com/san-kum/expressfrac/internal/solver"
)

var (
	// ErrBusy is returned by Start while a run has not been joined yet.
	ErrBusy = errors.New("executor: a run is already in progress")

	// ErrNoSolver is returned by Start when the executor has nothing to run.
	ErrNoSolver = errors.New("executor: no solver")

	// ErrSolverFault wraps every failure reported by a Failed event.
	ErrSolverFault = errors.New("executor: solver fault")

	errNoSteps = errors.New("solver produced no steps")
)

type EventKind int

const (
	Progress EventKind = iota
	Completed
	Failed
)

func (k EventKind) String() string {
	switch k {
	case Progress:
		return "progress"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is one message from the run goroutine. Seq counts events within a
// run starting at 1.
type Event struct {
	RunID string
	Seq   int
	Kind  EventKind
	Step  frac.StepResult
	Err   error
}

// Terminal reports whether no further events follow for the run.
func (e Event) Terminal() bool { return e.Kind != Progress }

type Executor struct {
	solver solver.Solver
	events *mailbox.Mailbox[Event]
	logger *slog.Logger

	busy atomic.Bool
	mu   sync.Mutex
	done chan struct{}
}

func New(s solver.Solver, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		solver: s,
		events: mailbox.New[Event](),
		logger: logger,
	}
}

// Events is the mailbox the consumer drains. Every run emits zero or more
// Progress events followed by exactly one Completed or Failed.
func (e *Executor) Events() *mailbox.Mailbox[Event] {
	return e.events
}

// Busy reports whether a run is active or awaiting Join.
func (e *Executor) Busy() bool {
	return e.busy.Load()
}

// Start launches the solver for req on a new goroutine, writing its
// diagnostics to out. It returns ErrBusy without side effects if the
// previous run has not been joined.
func (e *Executor) Start(ctx context.Context, runID string, req frac.Request, out io.Writer) error {
	if e.solver == nil {
		return ErrNoSolver
	}
	if !e.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}

	done := make(chan struct{})
	e.mu.Lock()
	e.done = done
	e.mu.Unlock()

	e.logger.Debug("run started", "run_id", runID, "model", req.Model)
	go e.run(ctx, runID, req.Clone(), out, done)
	return nil
}

func (e *Executor) run(ctx context.Context, runID string, req frac.Request, out io.Writer, done chan struct{}) {
	defer close(done)

	seq := 0
	post := func(ev Event) {
		seq++
		ev.RunID = runID
		ev.Seq = seq
		e.events.Post(ev)
	}

	var (
		last    frac.StepResult
		emitted bool
	)
	emit := func(step frac.StepResult) {
		last, emitted = step, true
		post(Event{Kind: Progress, Step: step})
	}

	err := e.solve(ctx, req, emit, out)
	switch {
	case err != nil:
		e.logger.Warn("run failed", "run_id", runID, "err", err)
		post(Event{Kind: Failed, Err: fmt.Errorf("%w: %w", ErrSolverFault, err)})
	case !emitted:
		post(Event{Kind: Failed, Err: fmt.Errorf("%w: %w", ErrSolverFault, errNoSteps)})
	default:
		e.logger.Debug("run completed", "run_id", runID, "time", last.Time)
		post(Event{Kind: Completed, Step: last})
	}
}

// solve converts a solver panic into an error so the run still ends with
// a terminal event.
func (e *Executor) solve(ctx context.Context, req frac.Request, emit func(frac.StepResult), out io.Writer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("solver panic", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.solver.Solve(ctx, req, emit, out)
}

// Join waits for the run goroutine to exit and makes the executor
// available again. The consumer calls it after handling the terminal
// event, at which point the goroutine has already returned or is about to.
func (e *Executor) Join() {
	e.mu.Lock()
	done := e.done
	e.done = nil
	e.mu.Unlock()
	if done == nil {
		return
	}
	<-done
	e.busy.Store(false)
}
