package orchestrator_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/expressfrac/internal/executor"
	"github.com/san-kum/expressfrac/internal/frac"
	"github.com/san-kum/expressfrac/internal/logcapture"
	"github.com/san-kum/expressfrac/internal/orchestrator"
	"github.com/san-kum/expressfrac/internal/playback"
	"github.com/san-kum/expressfrac/internal/results"
	"github.com/san-kum/expressfrac/internal/solver"
)

func step(t float64) frac.StepResult {
	return frac.StepResult{Time: t, Summary: frac.Summary{Time: t}}
}

// scripted prints a line and emits a step for each time, then returns fail.
func scripted(times []float64, fail error) solver.Func {
	return func(ctx context.Context, req frac.Request, emit func(frac.StepResult), out io.Writer) error {
		for _, t := range times {
			fmt.Fprintf(out, "solving t=%g\n", t)
			emit(step(t))
		}
		return fail
	}
}

// gated blocks until release is closed.
func gated(release <-chan struct{}) solver.Func {
	return func(ctx context.Context, req frac.Request, emit func(frac.StepResult), out io.Writer) error {
		emit(step(0.1))
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
		emit(step(0.2))
		return nil
	}
}

// pumpUntilIdle drives the loop the way the interactive thread would.
func pumpUntilIdle(o *orchestrator.Orchestrator) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for o.State() != orchestrator.Idle {
		Expect(o.Wait(ctx)).To(Succeed())
		o.Pump()
	}
}

func texts(lines []logcapture.Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

var _ = Describe("Orchestrator", func() {
	var (
		o      *orchestrator.Orchestrator
		lines  []logcapture.Line
		states []orchestrator.RunState
		req    frac.Request
	)

	build := func(s solver.Solver, opts ...orchestrator.Option) {
		lines, states = nil, nil
		n := 0
		opts = append(opts, orchestrator.WithRunIDs(func() string {
			n++
			return fmt.Sprintf("run-%d", n)
		}))
		o = orchestrator.New(s, opts...)
		o.SubscribeLog(func(l logcapture.Line) { lines = append(lines, l) })
		o.OnStateChange(func(s orchestrator.RunState) { states = append(states, s) })
	}

	BeforeEach(func() {
		req = frac.Request{Model: "pkn"}
	})

	Context("when the solver yields three steps", func() {
		BeforeEach(func() {
			build(scripted([]float64{0.1, 0.2, 0.3}, nil))
		})

		It("stores every step and follows the newest", func() {
			Expect(o.Start(req)).To(Succeed())
			Expect(o.State()).To(Equal(orchestrator.Running))
			Expect(o.CanStart()).To(BeFalse())

			pumpUntilIdle(o)

			Expect(o.Store().Len()).To(Equal(3))
			Expect(o.Store().Times()).To(Equal([]float64{0.1, 0.2, 0.3}))
			Expect(o.Playback().Index()).To(Equal(2))
			final, ok := o.Final()
			Expect(ok).To(BeTrue())
			Expect(final.Time).To(Equal(0.3))
			Expect(o.Err()).NotTo(HaveOccurred())
			Expect(o.CanStart()).To(BeTrue())
			Expect(states).To(Equal([]orchestrator.RunState{
				orchestrator.Running, orchestrator.Completed, orchestrator.Idle,
			}))
		})

		It("delivers captured output in order around its own notes", func() {
			Expect(o.Start(req)).To(Succeed())
			pumpUntilIdle(o)

			got := texts(lines)
			Expect(got[0]).To(HavePrefix("start calculation"))
			Expect(got[len(got)-1]).To(Equal("calculation completed, final time: 0.3"))
			Expect(got).To(ContainElements(
				"solving t=0.1", "results obtained, time: 0.1",
				"solving t=0.3", "results obtained, time: 0.3",
			))

			idx := func(s string) int {
				for i, g := range got {
					if g == s {
						return i
					}
				}
				return -1
			}
			Expect(idx("solving t=0.1")).To(BeNumerically("<", idx("solving t=0.2")))
			Expect(idx("solving t=0.2")).To(BeNumerically("<", idx("solving t=0.3")))
			Expect(idx("results obtained, time: 0.1")).To(BeNumerically("<", idx("results obtained, time: 0.3")))

			for i := 1; i < len(lines); i++ {
				Expect(lines[i].Seq).To(BeNumerically(">", lines[i-1].Seq))
			}
		})

		It("releases the capture when the run ends", func() {
			Expect(o.Start(req)).To(Succeed())
			pumpUntilIdle(o)
			Expect(o.Logs().Active()).To(BeFalse())
		})

		It("accepts a second run and clears the first one's results", func() {
			Expect(o.Start(req)).To(Succeed())
			pumpUntilIdle(o)
			Expect(o.RunID()).To(Equal("run-1"))

			Expect(o.Start(req)).To(Succeed())
			Expect(o.Store().Len()).To(BeZero())
			pumpUntilIdle(o)
			Expect(o.RunID()).To(Equal("run-2"))
			Expect(o.Store().Len()).To(Equal(3))
		})

		It("runs to completion headless", func() {
			final, err := o.Run(context.Background(), req)
			Expect(err).NotTo(HaveOccurred())
			Expect(final.Time).To(Equal(0.3))
			Expect(o.State()).To(Equal(orchestrator.Idle))
		})
	})

	Context("when the solver fails after two steps", func() {
		boom := errors.New("front reached the domain boundary")

		BeforeEach(func() {
			build(scripted([]float64{0.1, 0.2}, boom))
		})

		It("keeps the partial results and reports the reason once", func() {
			Expect(o.Start(req)).To(Succeed())
			pumpUntilIdle(o)

			Expect(o.Store().Len()).To(Equal(2))
			Expect(o.Err()).To(MatchError(boom))
			Expect(o.Err()).To(MatchError(executor.ErrSolverFault))
			_, ok := o.Final()
			Expect(ok).To(BeFalse())

			var failures int
			for _, l := range lines {
				if strings.HasPrefix(l.Text, "run failed:") {
					failures++
					Expect(l.Text).To(ContainSubstring(boom.Error()))
				}
			}
			Expect(failures).To(Equal(1))
			Expect(o.State()).To(Equal(orchestrator.Idle))
			Expect(o.CanStart()).To(BeTrue())
		})

		It("returns the failure from Run", func() {
			_, err := o.Run(context.Background(), req)
			Expect(err).To(MatchError(boom))
		})
	})

	Context("when the solver panics", func() {
		BeforeEach(func() {
			build(solver.Func(func(ctx context.Context, req frac.Request, emit func(frac.StepResult), out io.Writer) error {
				emit(step(0.1))
				panic("matrix is singular")
			}))
		})

		It("fails the run and returns to idle", func() {
			Expect(o.Start(req)).To(Succeed())
			pumpUntilIdle(o)
			Expect(o.Err()).To(MatchError(ContainSubstring("matrix is singular")))
			Expect(o.Store().Len()).To(Equal(1))
		})
	})

	Context("when the solver yields nothing", func() {
		BeforeEach(func() {
			build(scripted(nil, nil))
		})

		It("reports a failure", func() {
			_, err := o.Run(context.Background(), req)
			Expect(err).To(MatchError(executor.ErrSolverFault))
			Expect(o.Store().Len()).To(BeZero())
		})
	})

	Context("while a run is in progress", func() {
		var release chan struct{}

		BeforeEach(func() {
			release = make(chan struct{})
			build(gated(release))
		})

		AfterEach(func() {
			select {
			case <-release:
			default:
				close(release)
			}
		})

		It("rejects another start", func() {
			Expect(o.Start(req)).To(Succeed())
			Expect(o.Start(req)).To(MatchError(orchestrator.ErrBusy))
			Expect(o.RunID()).To(Equal("run-1"))
			Expect(texts(lines)).To(ContainElement("start ignored: a run is already in progress"))

			close(release)
			pumpUntilIdle(o)
			Expect(o.Store().Len()).To(Equal(2))
		})

		It("lets the user scrub while results arrive", func() {
			Expect(o.Start(req)).To(Succeed())
			Eventually(func() int {
				o.Pump()
				return o.Store().Len()
			}).Should(Equal(1))
			Expect(o.Playback().Index()).To(Equal(0))
			Expect(o.Seek(playback.None)).To(Succeed())
			Expect(o.Seek(5)).To(MatchError(playback.ErrOutOfRange))
			Expect(o.Playback().Index()).To(Equal(playback.None))

			close(release)
			pumpUntilIdle(o)
			Expect(o.Playback().Index()).To(Equal(1))
		})

		It("releases the capture when Run stops waiting", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := o.Run(ctx, req)
			Expect(err).To(MatchError(context.Canceled))
			Expect(o.Logs().Active()).To(BeFalse())
			Expect(o.State()).To(Equal(orchestrator.Running))

			close(release)
			pumpUntilIdle(o)
			Expect(o.Err()).NotTo(HaveOccurred())
			Expect(o.Store().Len()).To(Equal(2))
			Expect(o.CanStart()).To(BeTrue())
		})
	})

	Context("when the executor cannot take the run", func() {
		BeforeEach(func() {
			build(nil)
		})

		It("returns to idle without waiting on a run", func() {
			done := make(chan error, 1)
			go func() { done <- o.Start(req) }()
			Eventually(done).Should(Receive(MatchError(executor.ErrNoSolver)))

			Expect(o.State()).To(Equal(orchestrator.Idle))
			Expect(states).To(Equal([]orchestrator.RunState{
				orchestrator.Running, orchestrator.Completed, orchestrator.Idle,
			}))
			Expect(o.Logs().Active()).To(BeFalse())
			Expect(o.Err()).To(MatchError(executor.ErrNoSolver))
			Expect(texts(lines)).To(ContainElement("run failed: " + executor.ErrNoSolver.Error()))

			Expect(o.Start(req)).To(MatchError(executor.ErrNoSolver))
		})
	})

	Context("when step times go backwards", func() {
		times := []float64{0.1, 0.3, 0.2, 0.4}

		It("drops the offending step by default", func() {
			build(scripted(times, nil))
			final, err := o.Run(context.Background(), req)
			Expect(err).NotTo(HaveOccurred())
			Expect(final.Time).To(Equal(0.4))
			Expect(o.Store().Times()).To(Equal([]float64{0.1, 0.3, 0.4}))
			Expect(texts(lines)).To(ContainElement(HavePrefix("dropped step:")))
		})

		It("reports the newest stored step as final when the last one is dropped", func() {
			build(scripted([]float64{0.1, 0.3, 0.2}, nil))
			final, err := o.Run(context.Background(), req)
			Expect(err).NotTo(HaveOccurred())
			Expect(final.Time).To(Equal(0.3))

			last, ok := o.Store().Last()
			Expect(ok).To(BeTrue())
			Expect(final.Time).To(Equal(last.Time))
			Expect(o.Playback().Index()).To(Equal(o.Store().LatestIndex()))
			Expect(texts(lines)).To(ContainElement("calculation completed, final time: 0.3"))
		})

		It("fails the run in strict mode", func() {
			build(scripted(times, nil), orchestrator.WithStrictTime(true))
			_, err := o.Run(context.Background(), req)
			Expect(err).To(MatchError(results.ErrNotMonotonic))
			Expect(o.Store().Times()).To(Equal([]float64{0.1, 0.3}))
			Expect(o.State()).To(Equal(orchestrator.Idle))
		})
	})
})
