package batch

import "net"

// DefaultMaxMsgSize is the message size bound used when none is configured.
const DefaultMaxMsgSize = 1400

// Message is one group of payload views ready for a single send.
// Buffers aliases the Batcher's group buffer and is only valid during Send.
type Message struct {
	// Buffers holds the payloads in input order, as views.
	Buffers net.Buffers

	// Size is the sum of the payload lengths.
	Size int

	// Oversized is set when the message holds a single payload whose
	// length reaches the size bound (OversizeEmit only).
	Oversized bool
}

// Len returns the number of payloads in the message.
func (m Message) Len() int {
	return len(m.Buffers)
}

// Sender receives completed messages. Send must not retain the message or
// its Buffers after returning.
type Sender interface {
	Send(msg Message)
}

// SendFunc adapts an ordinary function to the Sender interface.
type SendFunc func(msg Message)

// Send calls f(msg).
func (f SendFunc) Send(msg Message) {
	f(msg)
}

// Stats holds cumulative counters of a Batcher.
type Stats struct {
	Calls     uint64
	Messages  uint64
	Payloads  uint64
	Bytes     uint64
	Oversized uint64
	Rejected  uint64
}
