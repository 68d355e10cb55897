package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/bft-labs/msgbatch/pkg/lifecycle"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
// Pointer fields distinguish "absent" from an explicit zero.
type FileConfig struct {
	MaxMsgSize     *int   `toml:"max_msg_size"`
	OversizePolicy string `toml:"oversize_policy"`
	PoolSize       *int   `toml:"pool_size"`
	MinPayload     *int   `toml:"min_payload"`
	MaxPayload     *int   `toml:"max_payload"`
	MinCount       *int   `toml:"min_count"`
	MaxCount       *int   `toml:"max_count"`
	Throttle       string `toml:"throttle"`
	ReportInterval string `toml:"report_interval"`
	Iterations     *int   `toml:"iterations"`
	SenderID       *int   `toml:"sender_id"`
	Sink           string `toml:"sink"`
	LogLevel       string `toml:"log_level"`
	NoRecycle      *bool  `toml:"no_recycle"`
	Watch          *bool  `toml:"watch"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.msgbatch/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".msgbatch", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("oversize-policy", fc.OversizePolicy, &cfg.OversizePolicy)
	s.setString("sink", fc.Sink, &cfg.Sink)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("throttle", fc.Throttle, &cfg.Throttle); err != nil {
		return err
	}
	if err := s.setDuration("report-interval", fc.ReportInterval, &cfg.ReportInterval); err != nil {
		return err
	}

	s.setInt("max-msg-size", fc.MaxMsgSize, &cfg.MaxMsgSize)
	s.setInt("pool-size", fc.PoolSize, &cfg.PoolSize)
	s.setInt("min-payload", fc.MinPayload, &cfg.MinPayload)
	s.setInt("max-payload", fc.MaxPayload, &cfg.MaxPayload)
	s.setInt("min-count", fc.MinCount, &cfg.MinCount)
	s.setInt("max-count", fc.MaxCount, &cfg.MaxCount)
	s.setInt("iterations", fc.Iterations, &cfg.Iterations)
	s.setInt("sender-id", fc.SenderID, &cfg.SenderID)

	s.setBool("no-recycle", fc.NoRecycle, &cfg.NoRecycle)
	s.setBool("watch", fc.Watch, &cfg.Watch)

	return nil
}

// ApplyFileTuning applies the runtime-adjustable fields of a config file
// (throttle, min_count, max_count) on top of base. Flags set on the command
// line keep their value, as at startup.
func ApplyFileTuning(base lifecycle.Tuning, fc FileConfig, changed map[string]bool) (lifecycle.Tuning, error) {
	s := newConfigSetter(changed)
	t := base

	if err := s.setDuration("throttle", fc.Throttle, &t.Throttle); err != nil {
		return base, err
	}
	s.setInt("min-count", fc.MinCount, &t.Count.Min)
	s.setInt("max-count", fc.MaxCount, &t.Count.Max)

	if err := t.Validate(); err != nil {
		return base, err
	}
	return t, nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
