// Package msgbatch provides an embeddable message batching agent.
//
// The agent draws random groups of payloads from an in-memory pool, packs
// them greedily into messages below a fixed size bound and hands each
// message to a sink. It can run as the msgbatch CLI or inside another
// program.
//
// # Basic Usage
//
//	cfg := msgbatch.DefaultConfig()
//	cfg.Iterations = 1000
//
//	m, err := msgbatch.New(cfg, msgbatch.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := m.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	<-m.Done()
//	_ = m.Stop()
//
// # Configuration
//
// [Config.SetDefaults] fills unset fields; [Config.Validate] rejects
// settings the batcher or the payload pool cannot work with. MaxMsgSize is
// fixed once the instance is created. Throttle and the payload count range
// can be changed at runtime with [Msgbatch.UpdateTuning].
//
// # Event Handling
//
// Implement [EventHandler] (embedding [BaseEventHandler] for no-op
// defaults) and pass it with [WithEventHandler]. Handlers run on the
// batching goroutine and should return quickly.
//
// # Plugins
//
// Plugins are started with the instance and stopped in reverse order. See
// plugins/configwatcher for tuning reloads from the config file.
package msgbatch
