package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with NaN or Inf values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrFrontEscaped indicates the fracture front moved past the end of the mesh.
	ErrFrontEscaped = errors.New("dynamo: fracture front left the mesh")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrStepRejected means an adaptive step missed its tolerance and should
	// be retried with the suggested smaller dt.
	ErrStepRejected = errors.New("dynamo: adaptive step rejected")
)

// SimError locates a failure at a solver step and wraps the underlying cause.
type SimError struct {
	Time    float64
	Step    int
	Message string
	Wrapped error
}

func (e *SimError) Error() string {
	if e.Message == "" && e.Wrapped != nil {
		return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
	}
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}

func (e *SimError) Unwrap() error {
	return e.Wrapped
}
