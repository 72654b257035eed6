package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/san-kum/expressfrac/internal/frac"
	"gopkg.in/yaml.v3"
)

const (
	DefaultModel         = "pkn"
	DefaultIntegrator    = "rk4"
	DefaultHeight        = 20.0
	DefaultDomain        = 500.0
	DefaultCells         = 50
	DefaultInitialLength = 1.0
	DefaultYoung         = 20e9
	DefaultPoisson       = 0.25
	DefaultToughness     = 1e6
	DefaultLeakOff       = 5e-6
	DefaultViscosity     = 0.1
	DefaultRate          = 0.05
	DefaultTime          = 600.0
	DefaultDt            = 1.0
	DefaultReportEvery   = 10
)

var (
	ErrInvalid     = errors.New("config: invalid value")
	ErrUnsupported = errors.New("config: unsupported file extension")
)

type Config struct {
	Model      string          `yaml:"model" toml:"model"`
	Integrator string          `yaml:"integrator" toml:"integrator"`
	Geometry   GeometryConfig  `yaml:"geometry" toml:"geometry"`
	Reservoir  ReservoirConfig `yaml:"reservoir" toml:"reservoir"`
	Fluid      FluidConfig     `yaml:"fluid" toml:"fluid"`
	Schedule   ScheduleConfig  `yaml:"schedule" toml:"schedule"`
}

type GeometryConfig struct {
	Height        float64 `yaml:"height" toml:"height"`
	Domain        float64 `yaml:"domain" toml:"domain"`
	Cells         int     `yaml:"cells" toml:"cells"`
	InitialLength float64 `yaml:"initial_length" toml:"initial_length"`
}

type ReservoirConfig struct {
	Young     float64 `yaml:"young" toml:"young"`
	Poisson   float64 `yaml:"poisson" toml:"poisson"`
	Toughness float64 `yaml:"toughness" toml:"toughness"`
	LeakOff   float64 `yaml:"leak_off" toml:"leak_off"`
}

type FluidConfig struct {
	Viscosity float64 `yaml:"viscosity" toml:"viscosity"`
}

type StageConfig struct {
	Until float64 `yaml:"until" toml:"until"`
	Rate  float64 `yaml:"rate" toml:"rate"`
}

type ScheduleConfig struct {
	Stages      []StageConfig `yaml:"stages" toml:"stages"`
	Time        float64       `yaml:"time" toml:"time"`
	Dt          float64       `yaml:"dt" toml:"dt"`
	ReportEvery int           `yaml:"report_every" toml:"report_every"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:      DefaultModel,
		Integrator: DefaultIntegrator,
		Geometry: GeometryConfig{
			Height:        DefaultHeight,
			Domain:        DefaultDomain,
			Cells:         DefaultCells,
			InitialLength: DefaultInitialLength,
		},
		Reservoir: ReservoirConfig{
			Young:     DefaultYoung,
			Poisson:   DefaultPoisson,
			Toughness: DefaultToughness,
			LeakOff:   DefaultLeakOff,
		},
		Fluid: FluidConfig{Viscosity: DefaultViscosity},
		Schedule: ScheduleConfig{
			Stages:      []StageConfig{{Until: DefaultTime, Rate: DefaultRate}},
			Time:        DefaultTime,
			Dt:          DefaultDt,
			ReportEvery: DefaultReportEvery,
		},
	}
}

// Load reads path over the defaults, picking the codec from the extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	// a file that lists stages replaces the default schedule
	cfg.Schedule.Stages = nil

	switch ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(cfg.Schedule.Stages) == 0 {
		cfg.Schedule.Stages = []StageConfig{{Until: cfg.Schedule.Time, Rate: DefaultRate}}
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	switch ext(path) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	case ".toml":
		var b strings.Builder
		err = toml.NewEncoder(&b).Encode(cfg)
		data = []byte(b.String())
	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// SetRate replaces the schedule with a single stage pumping rate until the
// end time.
func (c *Config) SetRate(rate float64) {
	c.Schedule.Stages = []StageConfig{{Until: c.Schedule.Time, Rate: rate}}
}

// SetTime moves the end time, stretching a single-stage schedule with it.
func (c *Config) SetTime(t float64) {
	if len(c.Schedule.Stages) == 1 && c.Schedule.Stages[0].Until == c.Schedule.Time {
		c.Schedule.Stages[0].Until = t
	}
	c.Schedule.Time = t
}

func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.Model != "", "model is empty")
	g, r, s := c.Geometry, c.Reservoir, c.Schedule
	check(g.Height > 0, "geometry.height %g must be positive", g.Height)
	check(g.Domain > 0, "geometry.domain %g must be positive", g.Domain)
	check(g.Cells >= 2, "geometry.cells %d must be at least 2", g.Cells)
	check(g.InitialLength > 0 && g.InitialLength < g.Domain,
		"geometry.initial_length %g must be in (0, %g)", g.InitialLength, g.Domain)
	check(r.Young > 0, "reservoir.young %g must be positive", r.Young)
	check(r.Poisson >= 0 && r.Poisson < 0.5, "reservoir.poisson %g must be in [0, 0.5)", r.Poisson)
	check(r.Toughness >= 0, "reservoir.toughness %g must not be negative", r.Toughness)
	check(r.LeakOff >= 0, "reservoir.leak_off %g must not be negative", r.LeakOff)
	check(c.Fluid.Viscosity > 0, "fluid.viscosity %g must be positive", c.Fluid.Viscosity)
	check(s.Time > 0, "schedule.time %g must be positive", s.Time)
	check(s.Dt > 0 && s.Dt <= s.Time, "schedule.dt %g must be in (0, %g]", s.Dt, s.Time)
	check(s.ReportEvery >= 0, "schedule.report_every %d must not be negative", s.ReportEvery)
	check(len(s.Stages) > 0, "schedule has no stages")

	prev := 0.0
	for i, st := range s.Stages {
		check(st.Until > prev, "schedule.stages[%d].until %g must follow %g", i, st.Until, prev)
		check(st.Rate >= 0, "schedule.stages[%d].rate %g must not be negative", i, st.Rate)
		prev = st.Until
	}
	return errors.Join(errs...)
}

// Request validates c and converts it into the immutable run input.
func (c *Config) Request() (frac.Request, error) {
	if err := c.Validate(); err != nil {
		return frac.Request{}, err
	}
	stages := make([]frac.Stage, len(c.Schedule.Stages))
	for i, st := range c.Schedule.Stages {
		stages[i] = frac.Stage{Until: st.Until, Rate: st.Rate}
	}
	return frac.Request{
		Model:      c.Model,
		Integrator: c.Integrator,
		Geometry: frac.Geometry{
			PayZoneHeight: c.Geometry.Height,
			DomainLength:  c.Geometry.Domain,
			Cells:         c.Geometry.Cells,
			InitialLength: c.Geometry.InitialLength,
		},
		Reservoir: frac.Reservoir{
			YoungModulus: c.Reservoir.Young,
			PoissonRatio: c.Reservoir.Poisson,
			Toughness:    c.Reservoir.Toughness,
			LeakOff:      c.Reservoir.LeakOff,
		},
		Fluid: frac.Fluid{Viscosity: c.Fluid.Viscosity},
		Schedule: frac.Schedule{
			Stages:      stages,
			TimeEnd:     c.Schedule.Time,
			TimeStep:    c.Schedule.Dt,
			ReportEvery: c.Schedule.ReportEvery,
		},
	}, nil
}
