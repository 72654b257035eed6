package orchestrator

import "fmt"

// RunState is the lifecycle of the single run slot.
type RunState int

const (
	Idle RunState = iota
	Running
	Completed
)

func (s RunState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	}
	return fmt.Sprintf("RunState(%d)", int(s))
}

// next lists the only legal transitions.
var next = map[RunState]RunState{
	Idle:      Running,
	Running:   Completed,
	Completed: Idle,
}

func (s RunState) canBecome(to RunState) bool {
	n, ok := next[s]
	return ok && n == to
}
