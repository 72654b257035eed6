package solver

import (
	"math"

	"github.com/san-kum/expressfrac/internal/dynamo"
	"github.com/san-kum/expressfrac/internal/frac"
)

const (
	// pknWidthCoeff scales the PKN wellbore width w0 = c*(mu*Q*L/E')^(1/4).
	pknWidthCoeff = 2.5
	leakOffShift  = 1.0
	minVolume     = 1e-9
)

// PKNSystem is a lumped Perkins-Kern-Nordgren fracture. The state is
// [fracture volume, leaked volume] of one wing; the control is the
// wellhead rate for both wings. The front is recovered from the volume.
type PKNSystem struct {
	height  float64
	ePrime  float64
	leakOff float64
	// a relates front length to wellbore width: w0 = a * L^(1/4).
	a float64
}

func NewPKNSystem(req frac.Request) *PKNSystem {
	ePrime := req.Reservoir.PlaneStrainModulus()
	return &PKNSystem{
		height:  req.Geometry.PayZoneHeight,
		ePrime:  ePrime,
		leakOff: req.Reservoir.LeakOff,
		a:       pknWidthCoeff * math.Pow(req.Fluid.Viscosity*peakRate(req.Schedule)/ePrime, 0.25),
	}
}

func peakRate(s frac.Schedule) float64 {
	peak := 0.0
	for _, st := range s.Stages {
		peak = math.Max(peak, st.Rate)
	}
	return peak
}

func (p *PKNSystem) StateDim() int   { return 2 }
func (p *PKNSystem) ControlDim() int { return 1 }

func (p *PKNSystem) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	q := 0.0
	if len(u) > 0 {
		q = u[0] / 2
	}
	leak := p.leakRate(p.FrontLength(x[0]), t)
	return dynamo.State{q - leak, leak}
}

// leakRate is Carter leak-off through both faces, lumped over the open length.
func (p *PKNSystem) leakRate(length, t float64) float64 {
	if p.leakOff <= 0 {
		return 0
	}
	return 2 * p.height * p.leakOff * length / math.Sqrt(t+leakOffShift)
}

// Volume of one wing with an elliptic cross-section and a (1-x/L)^(1/4)
// width profile: V = pi/5 * H * w0 * L.
func (p *PKNSystem) Volume(length float64) float64 {
	return math.Pi / 5 * p.height * p.a * math.Pow(length, 1.25)
}

func (p *PKNSystem) FrontLength(volume float64) float64 {
	if volume <= 0 || p.a == 0 {
		return 0
	}
	return math.Pow(5*volume/(math.Pi*p.height*p.a), 0.8)
}

func (p *PKNSystem) WellboreWidth(length float64) float64 {
	return p.a * math.Pow(length, 0.25)
}

// NetPressure for an elliptic PKN section: p = E' * w / (2H).
func (p *PKNSystem) NetPressure(width float64) float64 {
	return p.ePrime * width / (2 * p.height)
}

// ToughnessWidth is the reference width K*sqrt(pi*H)/E' of a
// toughness-dominated fracture.
func (p *PKNSystem) ToughnessWidth(toughness float64) float64 {
	return toughness * math.Sqrt(math.Pi*p.height) / p.ePrime
}

// Profile fills cell-centred width and pressure over [0, domain].
func (p *PKNSystem) Profile(length, domain float64, cells int) frac.Fields {
	f := frac.Fields{
		Xc:       make([]float64, cells),
		Width:    make([]float64, cells),
		Pressure: make([]float64, cells),
	}
	if cells == 0 {
		return f
	}
	dx := domain / float64(cells)
	w0 := p.WellboreWidth(length)
	for i := range f.Xc {
		xc := (float64(i) + 0.5) * dx
		f.Xc[i] = xc
		if xc >= length {
			continue
		}
		w := w0 * math.Pow(1-xc/length, 0.25)
		f.Width[i] = w
		f.Pressure[i] = p.NetPressure(w)
	}
	return f
}

// pumpSchedule is the controller: it injects the scheduled rate.
type pumpSchedule struct {
	schedule frac.Schedule
}

func (s pumpSchedule) Compute(x dynamo.State, t float64) dynamo.Control {
	return dynamo.Control{s.schedule.RateAt(t)}
}
