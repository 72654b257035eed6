package tui

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/san-kum/expressfrac/internal/frac"
	"github.com/san-kum/expressfrac/internal/orchestrator"
	"github.com/san-kum/expressfrac/internal/solver"
)

const waitDuration = 3 * time.Second

func fakeStep(t float64) frac.StepResult {
	return frac.StepResult{
		Time: t,
		Summary: frac.Summary{
			Time:          t,
			FrontLocation: 10 * t,
			MaxWidth:      1e-3,
			NetPressure:   2e6,
		},
		Fields: frac.Fields{
			Xc:       []float64{0.5, 1.5, 2.5},
			Width:    []float64{1e-3, 8e-4, 0},
			Pressure: []float64{2e6, 1.6e6, 0},
		},
	}
}

func threeSteps() solver.Func {
	return func(ctx context.Context, req frac.Request, emit func(frac.StepResult), out io.Writer) error {
		for _, t := range []float64{0.1, 0.2, 0.3} {
			fmt.Fprintf(out, "solving t=%g\n", t)
			emit(fakeStep(t))
		}
		return nil
	}
}

func newTestModel(t *testing.T, s solver.Solver) (*Model, *teatest.TestModel) {
	t.Helper()
	o := orchestrator.New(s, orchestrator.WithRunIDs(func() string { return "run-1" }))
	m := New(o, frac.Request{Model: "pkn"})
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 40))
	return m, tm
}

// waitForContains waits until the output read so far holds every substring.
// Output is consumed, so text seen by an earlier wait is not seen again.
func waitForContains(tb testing.TB, tm *teatest.TestModel, substrs ...string) {
	tb.Helper()
	teatest.WaitFor(
		tb,
		tm.Output(),
		func(bts []byte) bool {
			for _, s := range substrs {
				if !bytes.Contains(bts, []byte(s)) {
					return false
				}
			}
			return true
		},
		teatest.WithDuration(waitDuration),
	)
}

func press(tm *teatest.TestModel, k string) {
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
}

func TestRunToCompletion(t *testing.T) {
	m, tm := newTestModel(t, threeSteps())
	waitForContains(t, tm, "no step selected")

	press(tm, "s")
	waitForContains(t, tm, "calculation completed", "step 3/3")

	press(tm, "q")
	tm.FinalModel(t, teatest.WithFinalTimeout(waitDuration))

	if got := m.orch.Store().Len(); got != 3 {
		t.Errorf("expected 3 stored steps, got %d", got)
	}
	if got := m.orch.Playback().Index(); got != 2 {
		t.Errorf("expected playback index 2, got %d", got)
	}
	if m.orch.State() != orchestrator.Idle {
		t.Errorf("expected idle, got %s", m.orch.State())
	}
}

func TestScrubThroughResults(t *testing.T) {
	m, tm := newTestModel(t, threeSteps())

	press(tm, "s")
	waitForContains(t, tm, "step 3/3")

	press(tm, "g")
	waitForContains(t, tm, "step 1/3")
	press(tm, "]")
	waitForContains(t, tm, "step 2/3")

	press(tm, "q")
	tm.FinalModel(t, teatest.WithFinalTimeout(waitDuration))

	if got := m.orch.Playback().Index(); got != 1 {
		t.Errorf("expected playback index 1, got %d", got)
	}
}

func TestStartWhileRunningIsRejected(t *testing.T) {
	release := make(chan struct{})
	gated := solver.Func(func(ctx context.Context, req frac.Request, emit func(frac.StepResult), out io.Writer) error {
		emit(fakeStep(0.1))
		<-release
		emit(fakeStep(0.2))
		return nil
	})
	m, tm := newTestModel(t, gated)

	press(tm, "s")
	waitForContains(t, tm, "RUNNING")
	press(tm, "s")
	waitForContains(t, tm, "start ignored")

	close(release)
	waitForContains(t, tm, "calculation completed")

	press(tm, "q")
	tm.FinalModel(t, teatest.WithFinalTimeout(waitDuration))

	if got := m.orch.Store().Len(); got != 2 {
		t.Errorf("expected 2 stored steps, got %d", got)
	}
}

func TestSolverFailureShownInLog(t *testing.T) {
	failing := solver.Func(func(ctx context.Context, req frac.Request, emit func(frac.StepResult), out io.Writer) error {
		emit(fakeStep(0.1))
		emit(fakeStep(0.2))
		return fmt.Errorf("mesh exhausted")
	})
	m, tm := newTestModel(t, failing)

	press(tm, "s")
	waitForContains(t, tm, "mesh exhausted", "FAILED")

	press(tm, "q")
	tm.FinalModel(t, teatest.WithFinalTimeout(waitDuration))

	if got := m.orch.Store().Len(); got != 2 {
		t.Errorf("expected 2 stored steps, got %d", got)
	}
	if m.orch.Err() == nil {
		t.Error("expected the run error to be kept")
	}
}
