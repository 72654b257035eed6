package solver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/san-kum/expressfrac/internal/dynamo"
	"github.com/san-kum/expressfrac/internal/frac"
	"github.com/san-kum/expressfrac/internal/integrators"
)

const (
	// adaptiveTolerance is the relative local error allowed per sub-step
	// when the integrator controls its own step size.
	adaptiveTolerance = 1e-6
	minSubstep        = 1e-9
)

// PKN steps a PKNSystem through the request's schedule.
type PKN struct{}

func NewPKN() *PKN {
	return &PKN{}
}

func (s *PKN) Solve(ctx context.Context, req frac.Request, emit func(frac.StepResult), out io.Writer) error {
	name := req.Integrator
	if name == "" {
		name = "rk4"
	}
	integ, err := integrators.ByName(name)
	if err != nil {
		return err
	}

	if err := checkBounds(req); err != nil {
		return &dynamo.SimError{Wrapped: err}
	}

	sys := NewPKNSystem(req)
	ctrl := pumpSchedule{schedule: req.Schedule}

	steps := req.Schedule.Steps()
	every := req.Schedule.ReportEvery
	if every <= 0 {
		every = 1
	}

	fmt.Fprintf(out, "pkn: E'=%.3e Pa, H=%.1f m, mu=%.3g Pa*s, %s, %d steps\n",
		req.Reservoir.PlaneStrainModulus(), req.Geometry.PayZoneHeight, req.Fluid.Viscosity, name, steps)

	x := dynamo.State{sys.Volume(req.Geometry.InitialLength), 0}
	bal := newVolumeBalance(x[0])
	h := req.Schedule.TimeStep
	t := 0.0

	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		dt := math.Min(req.Schedule.TimeStep, req.Schedule.TimeEnd-t)
		u := ctrl.Compute(x, t)
		bal.Observe(u[0], dt)

		x, err = advance(integ, sys, x, u, t, dt, &h)
		if err != nil {
			return &dynamo.SimError{Time: t, Step: i, Wrapped: err}
		}
		t = math.Min(float64(i)*req.Schedule.TimeStep, req.Schedule.TimeEnd)
		if x[0] < minVolume {
			x[0] = minVolume
		}

		length := sys.FrontLength(x[0])
		if length > req.Geometry.DomainLength {
			return &dynamo.SimError{
				Time:    t,
				Step:    i,
				Message: fmt.Sprintf("front at %.2f m is past the %.2f m mesh", length, req.Geometry.DomainLength),
				Wrapped: dynamo.ErrFrontEscaped,
			}
		}

		if i%every != 0 && i != steps {
			continue
		}

		step := s.snapshot(sys, req, x, t, &bal)
		fmt.Fprintf(out, "t=%.3f s  front=%.3f m  w0=%.4e m  eff=%.3f\n",
			t, step.Summary.FrontLocation, step.Summary.MaxWidth, step.Summary.Efficiency)
		emit(step)
	}

	return nil
}

// advance moves x across [t, t+dt]. Integrators with error control take as
// many sub-steps as the tolerance needs; h carries their step size from one
// call to the next.
func advance(integ dynamo.Integrator, sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64, h *float64) (dynamo.State, error) {
	adaptive, ok := integ.(dynamo.AdaptiveIntegrator)
	if !ok {
		x = integ.Step(sys, x, u, t, dt)
		if !x.IsValid() {
			return x, dynamo.ErrInvalidState
		}
		return x, nil
	}

	remaining := dt
	for remaining > 0 {
		if *h < minSubstep {
			return x, fmt.Errorf("%w: %.3e s", dynamo.ErrStepTooSmall, *h)
		}
		sub := math.Min(*h, remaining)
		next, suggested, err := adaptive.StepAdaptive(sys, x, u, t, sub, adaptiveTolerance)
		*h = suggested
		if errors.Is(err, dynamo.ErrStepRejected) {
			continue
		}
		if err != nil {
			return next, err
		}
		x = next
		if sub == remaining {
			break
		}
		t += sub
		remaining -= sub
	}
	return x, nil
}

// checkBounds rejects inputs the PKN relations are undefined for.
func checkBounds(req frac.Request) error {
	var errs []error
	out := func(name string, v float64) {
		errs = append(errs, fmt.Errorf("%w: %s = %g", dynamo.ErrParameterBounds, name, v))
	}
	if h := req.Geometry.PayZoneHeight; !(h > 0) {
		out("pay zone height", h)
	}
	if l := req.Geometry.InitialLength; !(l > 0) {
		out("initial length", l)
	}
	if d := req.Geometry.DomainLength; !(d > 0) {
		out("domain length", d)
	}
	if e := req.Reservoir.PlaneStrainModulus(); !(e > 0) || math.IsInf(e, 0) {
		out("plane strain modulus", e)
	}
	if c := req.Reservoir.LeakOff; !(c >= 0) {
		out("leak-off coefficient", c)
	}
	if mu := req.Fluid.Viscosity; !(mu > 0) {
		out("viscosity", mu)
	}
	if dt := req.Schedule.TimeStep; !(dt > 0) {
		out("time step", dt)
	}
	return errors.Join(errs...)
}

func (s *PKN) snapshot(sys *PKNSystem, req frac.Request, x dynamo.State, t float64, bal *volumeBalance) frac.StepResult {
	length := sys.FrontLength(x[0])
	w0 := sys.WellboreWidth(length)
	return frac.StepResult{
		Time: t,
		Summary: frac.Summary{
			Time:           t,
			FrontLocation:  length,
			MaxWidth:       w0,
			NetPressure:    sys.NetPressure(w0),
			InjectedVolume: bal.injected,
			FractureVolume: x[0],
			LeakedVolume:   x[1],
			Efficiency:     bal.Efficiency(x[0]),
			ToughnessWidth: sys.ToughnessWidth(req.Reservoir.Toughness),
		},
		Fields: sys.Profile(length, req.Geometry.DomainLength, req.Geometry.Cells),
	}
}
