package process

import "time"

// State represents the lifecycle state of the supervised child.
type State string

// Supervisor states. Transitions only go forward.
const (
	StateNotStarted State = "not_started"
	StateRunning    State = "running"
	StateExited     State = "exited"
)

// Info contains information about the supervised child.
type Info struct {
	State     State
	PID       int
	StartedAt time.Time
	ExitedAt  time.Time
	ExitCode  int
	Exited    bool
}
