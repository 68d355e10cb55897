package configwatcher

import "github.com/bft-labs/msgbatch/pkg/msgbatch"

// WithConfigWatcher returns a msgbatch Option that enables config file watching.
// The watched file is msgbatch.Config.ConfigPath.
//
// Usage:
//
//	m, err := msgbatch.New(cfg,
//	    configwatcher.WithConfigWatcher(configwatcher.Config{
//	        DebounceDelay: 100 * time.Millisecond,
//	    }),
//	)
func WithConfigWatcher(cfg Config) msgbatch.Option {
	return msgbatch.WithPlugin(New(cfg))
}

// WithDefaultConfigWatcher returns a msgbatch Option that enables config
// watching with default settings (debounce 100ms).
func WithDefaultConfigWatcher() msgbatch.Option {
	return WithConfigWatcher(DefaultConfig())
}
