// Package frac holds the values exchanged between the solver and the rest of
// the application: the run request and the per-step snapshot.
package frac

import "math"

// Request is the complete, validated input of one run. It is built once by
// the config layer and never mutated after it is handed to Start.
type Request struct {
	Model      string
	Integrator string
	Geometry   Geometry
	Reservoir  Reservoir
	Fluid      Fluid
	Schedule   Schedule
}

type Geometry struct {
	PayZoneHeight float64 // m
	DomainLength  float64 // m, one wing
	Cells         int
	InitialLength float64 // m
}

type Reservoir struct {
	YoungModulus float64 // Pa
	PoissonRatio float64
	Toughness    float64 // Pa*m^0.5
	LeakOff      float64 // Carter coefficient, m/s^0.5
}

type Fluid struct {
	Viscosity float64 // Pa*s
}

// Stage pumps at Rate (m^3/s, both wings) until the time Until.
type Stage struct {
	Until float64
	Rate  float64
}

type Schedule struct {
	Stages      []Stage
	TimeEnd     float64
	TimeStep    float64
	ReportEvery int
}

// PlaneStrainModulus is E' = E / (1 - nu^2).
func (r Reservoir) PlaneStrainModulus() float64 {
	return r.YoungModulus / (1 - r.PoissonRatio*r.PoissonRatio)
}

// RateAt returns the injection rate active at time t. Past the last stage
// the well is shut in.
func (s Schedule) RateAt(t float64) float64 {
	for _, st := range s.Stages {
		if t < st.Until {
			return st.Rate
		}
	}
	return 0
}

// Steps is the number of solver steps needed to reach TimeEnd.
func (s Schedule) Steps() int {
	if s.TimeStep <= 0 {
		return 0
	}
	return int(math.Ceil(s.TimeEnd/s.TimeStep - 1e-9))
}

// Clone returns a deep copy so the caller's stage slice cannot alias the
// request held by a running solver.
func (r Request) Clone() Request {
	c := r
	c.Schedule.Stages = append([]Stage(nil), r.Schedule.Stages...)
	return c
}
