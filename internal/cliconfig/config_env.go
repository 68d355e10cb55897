package cliconfig

import "os"

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "MSGBATCH_"

// ApplyEnvConfig applies configuration from environment variables (MSGBATCH_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(name string) string { return os.Getenv(EnvPrefix + name) }

	s.setString("oversize-policy", env("OVERSIZE_POLICY"), &cfg.OversizePolicy)
	s.setString("sink", env("SINK"), &cfg.Sink)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("throttle", env("THROTTLE"), &cfg.Throttle); err != nil {
		return err
	}
	if err := s.setDuration("report-interval", env("REPORT_INTERVAL"), &cfg.ReportInterval); err != nil {
		return err
	}

	ints := []struct {
		flag, name string
		dst        *int
	}{
		{"max-msg-size", "MAX_MSG_SIZE", &cfg.MaxMsgSize},
		{"pool-size", "POOL_SIZE", &cfg.PoolSize},
		{"min-payload", "MIN_PAYLOAD", &cfg.MinPayload},
		{"max-payload", "MAX_PAYLOAD", &cfg.MaxPayload},
		{"min-count", "MIN_COUNT", &cfg.MinCount},
		{"max-count", "MAX_COUNT", &cfg.MaxCount},
		{"iterations", "ITERATIONS", &cfg.Iterations},
		{"sender-id", "SENDER_ID", &cfg.SenderID},
	}
	for _, v := range ints {
		if err := s.setIntFromString(v.flag, env(v.name), v.dst); err != nil {
			return err
		}
	}

	s.setBoolFromString("no-recycle", env("NO_RECYCLE"), &cfg.NoRecycle)
	s.setBoolFromString("watch", env("WATCH"), &cfg.Watch)

	return nil
}
