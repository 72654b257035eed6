// Package metrics reduces a finished run to scalar figures of merit.
package metrics

import (
	"math"

	"github.com/san-kum/expressfrac/internal/frac"
)

// Metric observes the steps of a run in time order.
type Metric interface {
	Name() string
	Observe(step frac.StepResult)
	Value() float64
	Reset()
}

// Defaults returns the metrics reported after a run.
func Defaults() []Metric {
	return []Metric{NewMassBalance(), NewGrowthRate(), NewPeakPressure()}
}

// Evaluate feeds steps to every metric and returns the values by name.
func Evaluate(steps []frac.StepResult, ms ...Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		m.Reset()
		for _, st := range steps {
			m.Observe(st)
		}
		out[m.Name()] = m.Value()
	}
	return out
}

// MassBalance is the largest relative error between injected volume and
// the stored plus leaked volume, measured from the first step.
type MassBalance struct {
	baseline float64
	maxError float64
	samples  int
}

func NewMassBalance() *MassBalance { return &MassBalance{} }

func (m *MassBalance) Name() string { return "mass_balance_error" }

func (m *MassBalance) Observe(step frac.StepResult) {
	s := step.Summary
	residual := s.FractureVolume + s.LeakedVolume - s.InjectedVolume
	if m.samples == 0 {
		m.baseline = residual
	}
	m.samples++
	if s.InjectedVolume > 0 {
		m.maxError = math.Max(m.maxError, math.Abs(residual-m.baseline)/s.InjectedVolume)
	}
}

func (m *MassBalance) Value() float64 { return m.maxError }

func (m *MassBalance) Reset() { *m = MassBalance{} }

// GrowthRate is the mean front velocity in m/s over the observed steps.
type GrowthRate struct {
	first, last frac.StepResult
	samples     int
}

func NewGrowthRate() *GrowthRate { return &GrowthRate{} }

func (g *GrowthRate) Name() string { return "growth_rate" }

func (g *GrowthRate) Observe(step frac.StepResult) {
	if g.samples == 0 {
		g.first = step
	}
	g.last = step
	g.samples++
}

func (g *GrowthRate) Value() float64 {
	dt := g.last.Time - g.first.Time
	if g.samples < 2 || dt <= 0 {
		return 0
	}
	return (g.last.Summary.FrontLocation - g.first.Summary.FrontLocation) / dt
}

func (g *GrowthRate) Reset() { *g = GrowthRate{} }

type PeakPressure struct {
	peak float64
}

func NewPeakPressure() *PeakPressure { return &PeakPressure{} }

func (p *PeakPressure) Name() string { return "peak_net_pressure" }

func (p *PeakPressure) Observe(step frac.StepResult) {
	p.peak = math.Max(p.peak, step.Summary.NetPressure)
}

func (p *PeakPressure) Value() float64 { return p.peak }

func (p *PeakPressure) Reset() { p.peak = 0 }
