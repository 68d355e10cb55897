package msgbatch

import (
	"github.com/bft-labs/msgbatch/pkg/batch"
	"github.com/bft-labs/msgbatch/pkg/log"
)

// Re-export types from sub-packages for convenient access.
type (
	// Logger is the Logger interface from pkg/log.
	Logger = log.Logger

	// LogField is the Field type from pkg/log.
	LogField = log.Field

	// Sender is the sink interface from pkg/batch.
	Sender = batch.Sender

	// Message is the message type handed to a Sender.
	Message = batch.Message
)

// Option configures optional behavior of Msgbatch.
type Option func(*options)

// options holds the optional configuration for a Msgbatch instance.
type options struct {
	logger       log.Logger
	sender       batch.Sender
	eventHandler EventHandler
	plugins      []Plugin
	seed         *[2]uint64
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = log.OrNoop(logger)
	}
}

// WithSender replaces the sink named by Config.Sink. The sender is called
// from the batching goroutine only and must not retain messages.
func WithSender(s Sender) Option {
	return func(o *options) {
		o.sender = s
	}
}

// WithEventHandler sets a handler for msgbatch events.
// Events are called synchronously from the batching goroutine.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when Msgbatch starts.
// Plugins are initialized in registration order and shutdown in reverse order.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithSeed makes payload generation and sampling deterministic.
func WithSeed(seed1, seed2 uint64) Option {
	return func(o *options) {
		o.seed = &[2]uint64{seed1, seed2}
	}
}
