package config

import "sort"

func preset(mut func(*Config)) *Config {
	cfg := DefaultConfig()
	mut(cfg)
	return cfg
}

var Presets = map[string]map[string]*Config{
	"pkn": {
		"default": DefaultConfig(),
		"slickwater": preset(func(c *Config) {
			c.Fluid.Viscosity = 0.001
			c.Schedule.Stages = []StageConfig{{Until: 600, Rate: 0.1}}
			c.Geometry.Domain = 2500
		}),
		"gel": preset(func(c *Config) {
			c.Fluid.Viscosity = 0.5
			c.Schedule.Stages = []StageConfig{{Until: 600, Rate: 0.04}}
		}),
		"stepped": preset(func(c *Config) {
			c.Schedule.Time = 900
			c.Schedule.Stages = []StageConfig{
				{Until: 300, Rate: 0.02},
				{Until: 600, Rate: 0.05},
				{Until: 900, Rate: 0.08},
			}
			c.Geometry.Domain = 800
		}),
		"shut-in": preset(func(c *Config) {
			c.Schedule.Time = 1200
			c.Reservoir.LeakOff = 2e-5
			c.Schedule.Stages = []StageConfig{{Until: 600, Rate: 0.05}}
		}),
		"quick": preset(func(c *Config) {
			c.Schedule.Time = 60
			c.Schedule.Dt = 0.5
			c.Schedule.ReportEvery = 4
			c.Schedule.Stages = []StageConfig{{Until: 60, Rate: 0.05}}
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, name string) *Config {
	if m, ok := Presets[model]; ok {
		if p, ok := m[name]; ok {
			cfg := *p
			cfg.Schedule.Stages = append([]StageConfig(nil), p.Schedule.Stages...)
			return &cfg
		}
	}
	return nil
}

func ListPresets(model string) []string {
	m, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Models() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
