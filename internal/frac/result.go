package frac

// StepResult is one snapshot produced by the solver. Time is strictly
// increasing within a run.
type StepResult struct {
	Time    float64
	Summary Summary
	Fields  Fields
}

type Summary struct {
	Time           float64 `json:"time"`
	FrontLocation  float64 `json:"front_location"`
	MaxWidth       float64 `json:"max_width"`
	NetPressure    float64 `json:"net_pressure"`
	InjectedVolume float64 `json:"injected_volume"`
	FractureVolume float64 `json:"fracture_volume"`
	LeakedVolume   float64 `json:"leaked_volume"`
	Efficiency     float64 `json:"efficiency"`
	ToughnessWidth float64 `json:"toughness_width"`
}

// Fields are cell-centred profiles along one wing.
type Fields struct {
	Xc       []float64
	Width    []float64
	Pressure []float64
}

// Clone deep-copies the field arrays.
func (s StepResult) Clone() StepResult {
	c := s
	c.Fields = Fields{
		Xc:       append([]float64(nil), s.Fields.Xc...),
		Width:    append([]float64(nil), s.Fields.Width...),
		Pressure: append([]float64(nil), s.Fields.Pressure...),
	}
	return c
}
