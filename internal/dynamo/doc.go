// Package dynamo provides the numerical primitives the fracture solvers are
// built on.
//
// The package defines the interfaces and types for stepping an ordinary
// differential equation dX/dt = f(X, u, t):
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems
//   - [Integrator]: numerical stepper interface
//   - [Controller]: supplies the control input (e.g. the pumping rate) at time t
//
// # Example
//
//	sys := solver.NewPKNSystem(req)
//	integ := integrators.NewRK4()
//	x = integ.Step(sys, x, sched.Compute(x, t), t, dt)
//
// # Thread Safety
//
// Integrators keep scratch buffers and are NOT safe for concurrent use. A run
// owns its integrator for the run's lifetime.
package dynamo
