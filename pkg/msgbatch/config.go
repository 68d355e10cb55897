package msgbatch

import (
	"errors"
	"fmt"
	"time"

	"github.com/bft-labs/msgbatch/pkg/batch"
	"github.com/bft-labs/msgbatch/pkg/lifecycle"
	"github.com/bft-labs/msgbatch/pkg/payload"
	"github.com/bft-labs/msgbatch/pkg/sender"
)

// ErrInvalidConfig is returned when configuration validation fails.
var ErrInvalidConfig = errors.New("msgbatch: invalid configuration")

// Defaults used by DefaultConfig and SetDefaults.
const (
	DefaultPoolSize   = 100
	DefaultMinPayload = 10
	DefaultMaxPayload = 500
	DefaultMinCount   = 5
	DefaultMaxCount   = 10
	DefaultThrottle   = 100 * time.Nanosecond
)

// Config holds the configuration of a Msgbatch instance.
type Config struct {
	// MaxMsgSize is the exclusive upper bound of a message's byte size.
	MaxMsgSize int

	// OversizePolicy decides what happens to payloads that reach MaxMsgSize.
	OversizePolicy batch.OversizePolicy

	// PoolSize is the number of pre-generated payloads.
	PoolSize int

	// MinPayload and MaxPayload bound payload lengths (inclusive).
	MinPayload int
	MaxPayload int

	// MinCount and MaxCount bound the payloads drawn per call: [Min, Max).
	MinCount int
	MaxCount int

	// Throttle is the pause between batching calls.
	Throttle time.Duration

	// Iterations bounds the number of batching calls. Zero is unbounded.
	Iterations uint64

	// ReportInterval is how often stats are logged. Zero logs only at exit.
	ReportInterval time.Duration

	// SenderID tags log lines of this instance.
	SenderID int

	// Sink names the built-in sink ("noop", "discard", "stdout").
	// Ignored when WithSender is used.
	Sink string

	// DisableRecycling allocates a new group buffer for every message.
	DisableRecycling bool

	// ConfigPath is the file the instance was configured from, if any.
	// Passed to plugins.
	ConfigPath string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		MaxMsgSize:     batch.DefaultMaxMsgSize,
		OversizePolicy: batch.OversizeEmit,
		PoolSize:       DefaultPoolSize,
		MinPayload:     DefaultMinPayload,
		MaxPayload:     DefaultMaxPayload,
		MinCount:       DefaultMinCount,
		MaxCount:       DefaultMaxCount,
		Throttle:       DefaultThrottle,
		ReportInterval: 10 * time.Second,
		SenderID:       1,
		Sink:           sender.KindNoop,
	}
}

// SetDefaults fills zero-valued fields with defaults.
func (c *Config) SetDefaults() {
	if c.MaxMsgSize == 0 {
		c.MaxMsgSize = batch.DefaultMaxMsgSize
	}
	if c.PoolSize == 0 {
		c.PoolSize = DefaultPoolSize
	}
	if c.MinPayload == 0 && c.MaxPayload == 0 {
		c.MinPayload = DefaultMinPayload
		c.MaxPayload = DefaultMaxPayload
	}
	if c.MinCount == 0 && c.MaxCount == 0 {
		c.MinCount = DefaultMinCount
		c.MaxCount = DefaultMaxCount
	}
	if c.Sink == "" {
		c.Sink = sender.KindNoop
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.MaxMsgSize <= 0 {
		return fmt.Errorf("%w: max message size must be positive", ErrInvalidConfig)
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("%w: pool size must be positive", ErrInvalidConfig)
	}
	if c.MinPayload < 0 || c.MaxPayload < c.MinPayload {
		return fmt.Errorf("%w: payload length range [%d, %d]", ErrInvalidConfig, c.MinPayload, c.MaxPayload)
	}
	if err := c.Tuning().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.ReportInterval < 0 {
		return fmt.Errorf("%w: report interval must not be negative", ErrInvalidConfig)
	}
	if c.OversizePolicy.String() == "unknown" {
		return fmt.Errorf("%w: oversize policy %d", ErrInvalidConfig, c.OversizePolicy)
	}
	return nil
}

// Tuning returns the runtime-adjustable part of the configuration.
func (c Config) Tuning() lifecycle.Tuning {
	return lifecycle.Tuning{
		Throttle: c.Throttle,
		Count:    payload.CountRange{Min: c.MinCount, Max: c.MaxCount},
	}
}
