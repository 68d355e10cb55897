// Package log provides a logging abstraction for msgbatch components.
//
// The batcher, the driver loop and the plugins only see the [Logger]
// interface. A zerolog adapter backs the CLI, and the no-op logger is the
// library default so that embedding msgbatch produces no output unless a
// logger is supplied.
//
// # Usage
//
//	logger := log.NewZerologAdapterWithLogger(zerolog.New(os.Stderr))
//	logger = logger.With(log.Int("sender_id", 1))
//	logger.Info("sent message", log.Int("bytes", 1210))
//
// # Version
//
// Current version: 1.1.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package log
