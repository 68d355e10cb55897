package sender

import (
	"sync/atomic"

	"github.com/bft-labs/msgbatch/pkg/batch"
)

// Counting forwards messages to another sink and counts them. The counters
// may be read from any goroutine.
type Counting struct {
	next      Sender
	messages  atomic.Uint64
	payloads  atomic.Uint64
	bytes     atomic.Uint64
	oversized atomic.Uint64
}

// Counters is a point-in-time copy of the Counting sink's counters.
type Counters struct {
	Messages  uint64
	Payloads  uint64
	Bytes     uint64
	Oversized uint64
}

// NewCounting wraps next. A nil next behaves like Noop.
func NewCounting(next Sender) *Counting {
	if next == nil {
		next = Noop{}
	}
	return &Counting{next: next}
}

// Send counts msg and forwards it.
func (c *Counting) Send(msg batch.Message) {
	c.messages.Add(1)
	c.payloads.Add(uint64(msg.Len()))
	c.bytes.Add(uint64(msg.Size))
	if msg.Oversized {
		c.oversized.Add(1)
	}
	c.next.Send(msg)
}

// Snapshot returns the current counters.
func (c *Counting) Snapshot() Counters {
	return Counters{
		Messages:  c.messages.Load(),
		Payloads:  c.payloads.Load(),
		Bytes:     c.bytes.Load(),
		Oversized: c.oversized.Load(),
	}
}
