package agent

import "sync/atomic"

type State int32

const (
	StateInit State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateRunning:
		return "RUNNING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Lifecycle tracks INIT -> RUNNING -> STOPPED. Transitions only move forward.
type Lifecycle struct {
	state atomic.Int32
}

func (l *Lifecycle) State() State {
	return State(l.state.Load())
}

// Start moves INIT to RUNNING and reports whether it did.
func (l *Lifecycle) Start() bool {
	return l.state.CompareAndSwap(int32(StateInit), int32(StateRunning))
}

func (l *Lifecycle) Stop() {
	l.state.Store(int32(StateStopped))
}
