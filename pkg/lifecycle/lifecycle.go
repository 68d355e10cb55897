package lifecycle

import (
	"context"
	"time"
)

// State is where a batching instance is in its run.
type State int

const (
	// StateStopped: no batching goroutine. Initial state.
	StateStopped State = iota
	// StateStarting: plugins are initializing.
	StateStarting
	// StateRunning: the agent loop is batching.
	StateRunning
	// StateStopping: the loop was asked to end and the in-flight call is finishing.
	StateStopping
	// StateCrashed: a plugin failed to start, the loop failed or shutdown timed out.
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// transitions lists the states reachable from each state. Starting may go
// straight to Stopping when Stop wins the race against the worker.
var transitions = map[State][]State{
	StateStopped:  {StateStarting},
	StateStarting: {StateRunning, StateStopping, StateCrashed},
	StateRunning:  {StateStopping, StateCrashed},
	StateStopping: {StateStopped, StateCrashed},
	StateCrashed:  {StateStarting},
}

// CanTransitionTo reports whether s may move to next.
func (s State) CanTransitionTo(next State) bool {
	for _, to := range transitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// EventEmitter is called when lifecycle state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// Manager drives the state machine of one batching instance.
//
// A run goes Stopped -> Starting -> Running -> Stopping -> Stopped. It ends
// in Stopped when the configured iterations complete or Stop is called, and
// in Crashed otherwise. Both end states may be started again.
type Manager interface {
	// State returns the current lifecycle state.
	State() State

	// CanStart reports whether a new run may begin (Stopped or Crashed).
	CanStart() bool

	// CanStop reports whether a run is in progress (Starting or Running).
	CanStop() bool

	// TransitionTo moves to newState. It returns ErrAlreadyRunning or
	// ErrNotRunning when the transition is not allowed, leaving the state
	// unchanged.
	TransitionTo(newState State, reason string) error

	// SetCancel stores the function that cancels the current run.
	SetCancel(cancel context.CancelFunc)

	// Cancel cancels the current run, if any. The batching call in
	// progress completes before the loop observes it.
	Cancel()

	// AddWorker and WorkerDone track the batching goroutine.
	AddWorker()
	WorkerDone()

	// WaitWithTimeout waits for the batching goroutine to exit.
	// Returns ErrShutdownTimeout if the timeout expires.
	WaitWithTimeout(timeout time.Duration) error
}

var _ Manager = (*DefaultManager)(nil)
