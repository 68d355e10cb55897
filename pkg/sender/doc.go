// Package sender provides the sinks that receive completed messages.
//
// Every sink implements [batch.Sender]. The batcher only lends a message
// for the duration of Send, so sinks never keep the payload views.
//
//   - [Noop] discards messages; it is the default sink.
//   - [Writer] performs a scatter-gather write of the payload views to an
//     io.Writer (writev on network connections).
//   - [Counting] wraps another sink and counts messages and bytes.
//
// # Usage
//
//	snd, err := sender.New("discard", logger)
//	if err != nil {
//	    return err
//	}
//	counting := sender.NewCounting(snd)
//	err = batcher.BatchAndSend(seq, counting)
//
// # Version
//
// Current version: 2.0.0
// Minimum compatible version: 2.0.0
//
// See version.go for version constants that can be used programmatically.
package sender
