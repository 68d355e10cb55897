// Package msgbatch groups variable-length payloads into messages whose byte
// size stays below a fixed bound, without copying payload bytes.
//
// Example usage:
//
//	b, err := msgbatch.NewBatcher(msgbatch.DefaultMaxMsgSize)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = b.BatchAndSend(slices.Values(payloads), msgbatch.SendFunc(func(m msgbatch.Message) {
//	    m.Buffers.WriteTo(conn)
//	}))
//
// For a self-driving agent with plugins and lifecycle management, see
// pkg/msgbatch.
package msgbatch

import (
	"github.com/bft-labs/msgbatch/pkg/batch"
	agent "github.com/bft-labs/msgbatch/pkg/msgbatch"
)

// DefaultMaxMsgSize is the default exclusive upper bound of a message.
const DefaultMaxMsgSize = batch.DefaultMaxMsgSize

type (
	// Batcher builds size-bounded messages from a payload sequence.
	Batcher = batch.Batcher

	// Message is a group of payload views handed to a Sender.
	Message = batch.Message

	// Sender receives completed messages.
	Sender = batch.Sender

	// SendFunc adapts a function to Sender.
	SendFunc = batch.SendFunc

	// Config holds the configuration of a batching agent.
	Config = agent.Config
)

// NewBatcher creates a Batcher whose messages stay strictly below maxMsgSize.
func NewBatcher(maxMsgSize int, opts ...batch.Option) (*Batcher, error) {
	return batch.New(maxMsgSize, opts...)
}

// DefaultConfig returns an agent Config with default values.
func DefaultConfig() Config {
	return agent.DefaultConfig()
}

// New creates a batching agent. Call Start on the result to begin.
func New(cfg Config, opts ...agent.Option) (*agent.Msgbatch, error) {
	return agent.New(cfg, opts...)
}
