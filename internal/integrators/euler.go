package integrators

import "github.com/san-kum/expressfrac/internal/dynamo"

// Euler is the explicit first-order method. It is cheap and mostly useful
// for checking that a higher-order run converges to the same front.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	return axpy(x, dt, sys.Derive(x, u, t))
}

// axpy returns x + a*y as a new state.
func axpy(x dynamo.State, a float64, y dynamo.State) dynamo.State {
	out := make(dynamo.State, len(x))
	for i := range x {
		out[i] = x[i] + a*y[i]
	}
	return out
}
