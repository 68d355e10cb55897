// Package lifecycle provides orchestration and state machine functionality.
//
// This package runs the batching loop ([Agent]) and manages its lifecycle:
// state transitions (Stopped, Starting, Running, Stopping, Crashed),
// graceful shutdown with timeout, and worker coordination.
//
// The agent repeatedly draws a random number of payloads from a pool,
// batches them into messages and hands those to a sink, sleeping for the
// configured throttle between calls.
//
// # Usage
//
// Create a lifecycle manager:
//
//	manager := lifecycle.NewManager(logger, eventEmitter)
//
//	if !manager.CanStart() {
//	    return ErrAlreadyRunning
//	}
//
//	if err := manager.TransitionTo(lifecycle.StateStarting, "starting"); err != nil {
//	    return err
//	}
//
//	// ... do work in goroutines ...
//
//	// Graceful shutdown
//	if err := manager.WaitWithTimeout(30 * time.Second); err != nil {
//	    return ErrShutdownTimeout
//	}
//
// # State Machine
//
// Valid state transitions:
//   - Stopped -> Starting
//   - Starting -> Running, Stopping, Crashed
//   - Running -> Stopping, Crashed
//   - Stopping -> Stopped, Crashed
//   - Crashed -> Starting
//
// # Version
//
// Current version: 2.0.0
// Minimum compatible version: 2.0.0
//
// See version.go for version constants that can be used programmatically.
package lifecycle
