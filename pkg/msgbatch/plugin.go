package msgbatch

import (
	"context"

	"github.com/bft-labs/msgbatch/pkg/lifecycle"
)

// Plugin extends a Msgbatch instance with optional behavior.
type Plugin interface {
	// Name returns the plugin identifier used in logs.
	Name() string

	// Initialize is called from Start. The context is canceled on Stop.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown is called from Stop, in reverse registration order.
	Shutdown(ctx context.Context) error
}

// Tuner reads and replaces the runtime tuning of a running instance.
type Tuner interface {
	Tuning() lifecycle.Tuning
	UpdateTuning(t lifecycle.Tuning) error
}

// PluginConfig is what a plugin receives on initialization.
type PluginConfig struct {
	// ConfigPath is Config.ConfigPath; empty when not configured from a file.
	ConfigPath string

	Logger Logger
	Tuner  Tuner
}
