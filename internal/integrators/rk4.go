package integrators

import "github.com/san-kum/expressfrac/internal/dynamo"

// RK4 is the classic fourth-order Runge-Kutta stepper. Stage buffers are
// reused between steps, so an RK4 value must not be shared across runs
// executing concurrently.
type RK4 struct {
	k     [4]dynamo.State
	stage  dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) grow(n int) {
	if len(r.stage) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.stage = make(dynamo.State, n)
}

func (r *RK4) Step(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	r.grow(n)

	copy(r.k[0], sys.Derive(x, u, t))
	offsets := [3]float64{dt / 2, dt / 2, dt}
	for s := 1; s < 4; s++ {
		h := offsets[s-1]
		for i := 0; i < n; i++ {
			r.stage[i] = x[i] + h*r.k[s-1][i]
		}
		copy(r.k[s], sys.Derive(r.stage, u, t+h))
	}

	out := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		out[i] = x[i] + dt/6*(r.k[0][i]+2*r.k[1][i]+2*r.k[2][i]+r.k[3][i])
	}
	return out
}
