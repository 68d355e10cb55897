package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/msgbatch/pkg/batch"
	"github.com/bft-labs/msgbatch/pkg/msgbatch"
	"github.com/bft-labs/msgbatch/pkg/sender"
)

// Config holds CLI configuration for msgbatch.
type Config struct {
	MaxMsgSize     int
	OversizePolicy string

	PoolSize   int
	MinPayload int
	MaxPayload int
	MinCount   int
	MaxCount   int

	Throttle       time.Duration
	ReportInterval time.Duration
	Iterations     int

	SenderID  int
	Sink      string
	LogLevel  string
	NoRecycle bool
	Watch     bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		MaxMsgSize:     batch.DefaultMaxMsgSize,
		OversizePolicy: batch.OversizeEmit.String(),
		PoolSize:       msgbatch.DefaultPoolSize,
		MinPayload:     msgbatch.DefaultMinPayload,
		MaxPayload:     msgbatch.DefaultMaxPayload,
		MinCount:       msgbatch.DefaultMinCount,
		MaxCount:       msgbatch.DefaultMaxCount,
		Throttle:       msgbatch.DefaultThrottle,
		ReportInterval: 10 * time.Second,
		SenderID:       1,
		Sink:           sender.KindNoop,
		LogLevel:       zerolog.InfoLevel.String(),
		Watch:          true,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.MaxMsgSize <= 0 {
		return fmt.Errorf("max-msg-size must be positive")
	}
	if _, err := batch.ParseOversizePolicy(c.OversizePolicy); err != nil {
		return fmt.Errorf("oversize-policy: %w", err)
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("pool-size must be positive")
	}
	if c.MinPayload < 0 || c.MaxPayload < c.MinPayload {
		return fmt.Errorf("payload length range [%d, %d] is invalid", c.MinPayload, c.MaxPayload)
	}
	if c.MinCount < 0 || c.MaxCount <= c.MinCount {
		return fmt.Errorf("payload count range [%d, %d) is invalid", c.MinCount, c.MaxCount)
	}
	if c.Throttle < 0 {
		return fmt.Errorf("throttle must not be negative")
	}
	if c.ReportInterval < 0 {
		return fmt.Errorf("report interval must not be negative")
	}
	if c.Iterations < 0 {
		return fmt.Errorf("iterations must not be negative")
	}
	if _, err := sender.New(c.Sink, nil); err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log-level: %w", err)
	}
	return nil
}

// Library converts the CLI configuration to the msgbatch library Config.
// Validate must have succeeded.
func (c *Config) Library(configPath string) msgbatch.Config {
	policy, _ := batch.ParseOversizePolicy(c.OversizePolicy)
	return msgbatch.Config{
		MaxMsgSize:       c.MaxMsgSize,
		OversizePolicy:   policy,
		PoolSize:         c.PoolSize,
		MinPayload:       c.MinPayload,
		MaxPayload:       c.MaxPayload,
		MinCount:         c.MinCount,
		MaxCount:         c.MaxCount,
		Throttle:         c.Throttle,
		Iterations:       uint64(c.Iterations),
		ReportInterval:   c.ReportInterval,
		SenderID:         c.SenderID,
		Sink:             c.Sink,
		DisableRecycling: c.NoRecycle,
		ConfigPath:       configPath,
	}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value from a pointer if not nil and flag not changed.
// Zero is a meaningful value (e.g. empty payloads), hence the pointer.
func (s *configSetter) setInt(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
