package frac

import (
	"math"
	"testing"
)

func TestScheduleRateAt(t *testing.T) {
	s := Schedule{Stages: []Stage{{Until: 100, Rate: 0.05}, {Until: 200, Rate: 0.02}}}

	tests := []struct {
		t    float64
		want float64
	}{
		{0, 0.05},
		{99.9, 0.05},
		{100, 0.02},
		{199, 0.02},
		{200, 0},
		{1e6, 0},
	}
	for _, tt := range tests {
		if got := s.RateAt(tt.t); got != tt.want {
			t.Errorf("RateAt(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestScheduleSteps(t *testing.T) {
	tests := []struct {
		end, dt float64
		want    int
	}{
		{10, 1, 10},
		{10, 3, 4},
		{0.3, 0.1, 3},
		{10, 0, 0},
	}
	for _, tt := range tests {
		s := Schedule{TimeEnd: tt.end, TimeStep: tt.dt}
		if got := s.Steps(); got != tt.want {
			t.Errorf("Steps(%v/%v) = %d, want %d", tt.end, tt.dt, got, tt.want)
		}
	}
}

func TestPlaneStrainModulus(t *testing.T) {
	r := Reservoir{YoungModulus: 20e9, PoissonRatio: 0.25}
	want := 20e9 / 0.9375
	if got := r.PlaneStrainModulus(); math.Abs(got-want) > 1 {
		t.Errorf("E' = %v, want %v", got, want)
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	req := Request{Schedule: Schedule{Stages: []Stage{{Until: 1, Rate: 1}}}}
	c := req.Clone()
	c.Schedule.Stages[0].Rate = 5
	if req.Schedule.Stages[0].Rate != 1 {
		t.Error("Request.Clone aliases stages")
	}

	step := StepResult{Fields: Fields{Width: []float64{1}}}
	sc := step.Clone()
	sc.Fields.Width[0] = 2
	if step.Fields.Width[0] != 1 {
		t.Error("StepResult.Clone aliases fields")
	}
}
