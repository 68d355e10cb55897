package msgbatch

import "github.com/bft-labs/msgbatch/pkg/lifecycle"

// State is the lifecycle state of a Msgbatch instance.
type State = lifecycle.State

// Lifecycle states.
const (
	StateStopped  = lifecycle.StateStopped
	StateStarting = lifecycle.StateStarting
	StateRunning  = lifecycle.StateRunning
	StateStopping = lifecycle.StateStopping
	StateCrashed  = lifecycle.StateCrashed
)

// StateChangeEvent is emitted on every lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// BatchEvent is emitted after every batching call.
type BatchEvent struct {
	// Payloads is the number of payloads drawn for the call.
	Payloads int

	// Messages is the number of messages sent by the call.
	Messages int

	// Err joins the rejections of the call (OversizeReject only).
	Err error
}

// EventHandler receives msgbatch events.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnBatch(event BatchEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to handle
// only some events.
type BaseEventHandler struct{}

// OnStateChange does nothing.
func (BaseEventHandler) OnStateChange(StateChangeEvent) {}

// OnBatch does nothing.
func (BaseEventHandler) OnBatch(BatchEvent) {}

// eventEmitterWrapper adapts EventHandler to the lifecycle emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current lifecycle.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: previous,
		Current:  current,
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnBatch(payloads, messages int, err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnBatch(BatchEvent{
		Payloads: payloads,
		Messages: messages,
		Err:      err,
	})
}
