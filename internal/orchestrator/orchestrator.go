// Package orchestrator is the composition root of a run: it owns the run
// state machine and wires the executor, result store, playback controller
// and log capture together.
//
// Every method except Wait must be called from one goroutine, the
// interactive loop. That goroutine is the only one that mutates RunState,
// the store and the playback index, so none of them need locks.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/san-kum/expressfrac/internal/executor"
	"github.com/san-kum/expressfrac/internal/frac"
	"github.com/san-kum/expressfrac/internal/logcapture"
	"github.com/san-kum/expressfrac/internal/playback"
	"github.com/san-kum/expressfrac/internal/results"
	"github.com/san-kum/expressfrac/internal/solver"
)

var (
	// ErrBusy is returned by Start when the run slot is not idle.
	ErrBusy = errors.New("orchestrator: a run is already in progress")

	// ErrNoResult is returned by Run when a run ends without a final step.
	ErrNoResult = errors.New("orchestrator: run produced no result")
)

type Option func(*Orchestrator)

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithContext sets the context handed to every solver invocation.
// Cancelling it is a process shutdown, not a user abort.
func WithContext(ctx context.Context) Option {
	return func(o *Orchestrator) { o.ctx = ctx }
}

// WithStrictTime makes a step whose time does not increase fail the run
// instead of being dropped.
func WithStrictTime(strict bool) Option {
	return func(o *Orchestrator) { o.strict = strict }
}

// WithRunIDs replaces the run ID generator.
func WithRunIDs(fn func() string) Option {
	return func(o *Orchestrator) { o.newID = fn }
}

type Orchestrator struct {
	exec   *executor.Executor
	store  *results.Store
	play   *playback.Controller
	logs   *logcapture.Stream
	logger *slog.Logger
	ctx    context.Context
	strict bool
	newID  func() string

	state     RunState
	runID     string
	req       frac.Request
	capture   *logcapture.Capture
	started   bool
	violation error
	final     *frac.StepResult
	err       error
	observers []func(RunState)
}

func New(s solver.Solver, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:  results.NewStore(),
		logger: slog.Default(),
		ctx:    context.Background(),
		newID:  uuid.NewString,
		logs:   logcapture.NewStream(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.exec = executor.New(s, o.logger)
	o.play = playback.New(o.store, nil)
	return o
}

func (o *Orchestrator) State() RunState { return o.state }
func (o *Orchestrator) CanStart() bool { return o.state == Idle }
func (o *Orchestrator) RunID() string { return o.runID }
func (o *Orchestrator) Request() frac.Request { return o.req }
func (o *Orchestrator) Store() *results.Store { return o.store }
func (o *Orchestrator) Playback() *playback.Controller { return o.play }
func (o *Orchestrator) Logs() *logcapture.Stream { return o.logs }

// Err is the failure of the last finished run, if any.
func (o *Orchestrator) Err() error { return o.err }

// Final is the last step of the last successful run.
func (o *Orchestrator) Final() (frac.StepResult, bool) {
	if o.final == nil {
		return frac.StepResult{}, false
	}
	return *o.final, true
}

// OnStateChange registers fn to be called after every transition.
func (o *Orchestrator) OnStateChange(fn func(RunState)) {
	o.observers = append(o.observers, fn)
}

// SubscribeLog attaches the log panel.
func (o *Orchestrator) SubscribeLog(fn func(logcapture.Line)) {
	o.logs.Subscribe(fn)
}

func (o *Orchestrator) setState(to RunState) {
	if !o.state.canBecome(to) {
		o.logger.Error("illegal run state transition", "from", o.state, "to", to)
		return
	}
	o.state = to
	for _, fn := range o.observers {
		fn(to)
	}
}

// Start begins a run of req. It is rejected with ErrBusy unless the run
// slot is idle.
func (o *Orchestrator) Start(req frac.Request) error {
	if o.state != Idle {
		o.logger.Warn("start rejected", "state", o.state, "run_id", o.runID)
		o.logs.Announce("start ignored: a run is already in progress")
		return ErrBusy
	}

	o.store.Reset()
	o.play.Reset()
	o.violation, o.final, o.err = nil, nil, nil
	o.runID = o.newID()
	o.req = req.Clone()
	o.capture = o.logs.Begin()
	o.setState(Running)

	o.logger.Info("run starting", "run_id", o.runID, "model", o.req.Model)
	o.logs.Announce(fmt.Sprintf("start calculation: model %s, run %s", o.req.Model, o.runID))

	if err := o.exec.Start(o.ctx, o.runID, o.req, o.capture); err != nil {
		o.finish(executor.Event{RunID: o.runID, Kind: executor.Failed, Err: err})
		return err
	}
	o.started = true
	return nil
}

// Seek moves the playback selection, reporting a rejected index to the
// log panel.
func (o *Orchestrator) Seek(index int) error {
	if err := o.play.SetIndex(index); err != nil {
		o.logger.Warn("seek rejected", "index", index, "err", err)
		o.logs.Announce(err.Error())
		return err
	}
	return nil
}

// Pump handles everything that arrived since the last call and returns
// the number of events and log lines processed. It never blocks.
func (o *Orchestrator) Pump() int {
	events, _ := o.exec.Events().Drain()
	n := o.logs.Pump()
	for _, ev := range events {
		o.handle(ev)
	}
	return n + len(events)
}

// Wait blocks until Pump has work. It only touches the mailboxes, so it is
// the one method that may run off the interactive loop.
func (o *Orchestrator) Wait(ctx context.Context) error {
	events := o.exec.Events()
	for {
		if events.Len() > 0 || o.logs.Pending() > 0 {
			return nil
		}
		select {
		case <-events.Ready():
		case <-o.logs.Ready():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Run starts req and drives the loop on the calling goroutine until the run
// is idle again. If ctx ends first, Run stops collecting output and returns
// ctx's error; the run stays Running until a later Pump sees it finish.
func (o *Orchestrator) Run(ctx context.Context, req frac.Request) (frac.StepResult, error) {
	if err := o.Start(req); err != nil {
		return frac.StepResult{}, err
	}
	for o.state != Idle {
		if err := o.Wait(ctx); err != nil {
			o.logger.Warn("stopped waiting for run", "run_id", o.runID, "err", err)
			o.endCapture()
			return frac.StepResult{}, err
		}
		o.Pump()
	}
	if o.err != nil {
		return frac.StepResult{}, o.err
	}
	final, ok := o.Final()
	if !ok {
		return frac.StepResult{}, ErrNoResult
	}
	return final, nil
}

func (o *Orchestrator) handle(ev executor.Event) {
	if ev.RunID != o.runID || o.state != Running {
		o.logger.Debug("stale event dropped", "run_id", ev.RunID, "kind", ev.Kind)
		return
	}
	switch ev.Kind {
	case executor.Progress:
		o.progress(ev.Step)
	default:
		o.finish(ev)
	}
}

func (o *Orchestrator) progress(step frac.StepResult) {
	if o.violation != nil {
		return
	}
	if err := o.store.Append(step); err != nil {
		o.logger.Warn("step dropped", "run_id", o.runID, "time", step.Time, "err", err)
		if o.strict {
			o.violation = err
			o.logs.Announce("run will fail: " + err.Error())
			return
		}
		o.logs.Announce("dropped step: " + err.Error())
		return
	}
	o.play.AppendAdvance()
	o.logs.Announce(fmt.Sprintf("results obtained, time: %g", step.Time))
}

// finish tears the run down. Capture release and the return to Idle happen
// on every path; the join only when the executor took the run.
func (o *Orchestrator) finish(ev executor.Event) {
	o.endCapture()
	defer o.teardown()

	err := ev.Err
	if err == nil && o.violation != nil {
		err = o.violation
	}
	if ev.Kind == executor.Failed || err != nil {
		o.fail(err)
		return
	}

	// The executor reports the solver's last emitted step, which may be
	// one the store dropped.
	final, ok := o.store.Last()
	if !ok {
		o.fail(ErrNoResult)
		return
	}
	o.final = &final
	o.logger.Info("run completed", "run_id", o.runID, "time", final.Time, "steps", o.store.Len())
	o.logs.Announce(fmt.Sprintf("calculation completed, final time: %g", final.Time))
}

func (o *Orchestrator) fail(err error) {
	if err == nil {
		err = ErrNoResult
	}
	o.err = err
	o.logger.Error("run failed", "run_id", o.runID, "err", err)
	o.logs.Announce("run failed: " + err.Error())
}

func (o *Orchestrator) teardown() {
	if o.started {
		o.exec.Join()
		o.started = false
	}
	o.setState(Completed)
	o.setState(Idle)
}

func (o *Orchestrator) endCapture() {
	if o.capture == nil {
		return
	}
	o.capture.End()
	o.capture = nil
}
