package batch

import (
	"errors"
	"iter"
	"net"

	"github.com/bft-labs/msgbatch/pkg/log"
)

// Batcher builds size-bounded messages from a payload sequence.
//
// A Batcher is owned by a single goroutine and is not reentrant: Send must
// not call back into the same Batcher. Independent Batchers share no state.
type Batcher struct {
	maxMsgSize int
	policy     OversizePolicy
	recycle    bool
	logger     log.Logger

	// group is the reusable buffer for the message under construction.
	group   net.Buffers
	msgSize int

	// Per-call state, only set while BatchAndSend runs.
	sender Sender
	errs   []error
	push   func([]byte) bool

	stats Stats
}

// Option configures a Batcher.
type Option func(*Batcher)

// WithOversizePolicy sets the policy for payloads that reach the size bound.
// Default: OversizeEmit.
func WithOversizePolicy(p OversizePolicy) Option {
	return func(b *Batcher) {
		b.policy = p
	}
}

// WithLogger sets the logger used for oversized payload warnings.
func WithLogger(l log.Logger) Option {
	return func(b *Batcher) {
		b.logger = log.OrNoop(l)
	}
}

// WithRecycling controls whether the group buffer allocation is reused
// across messages and calls. Disabling it only costs allocations; the
// produced messages are identical. Default: true.
func WithRecycling(enabled bool) Option {
	return func(b *Batcher) {
		b.recycle = enabled
	}
}

// WithCapacity preallocates room for n payload views in the group buffer.
func WithCapacity(n int) Option {
	return func(b *Batcher) {
		if n > 0 {
			b.group = make(net.Buffers, 0, n)
		}
	}
}

// New creates a Batcher whose messages stay strictly below maxMsgSize bytes.
// The bound is fixed for the lifetime of the Batcher.
func New(maxMsgSize int, opts ...Option) (*Batcher, error) {
	if maxMsgSize <= 0 {
		return nil, ErrInvalidMaxMsgSize
	}

	b := &Batcher{
		maxMsgSize: maxMsgSize,
		policy:     OversizeEmit,
		recycle:    true,
		logger:     log.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}

	// Bound once so BatchAndSend does not allocate a closure per call.
	b.push = b.add
	return b, nil
}

// MaxMsgSize returns the size bound.
func (b *Batcher) MaxMsgSize() int {
	return b.maxMsgSize
}

// Policy returns the oversized payload policy.
func (b *Batcher) Policy() OversizePolicy {
	return b.policy
}

// Stats returns the cumulative counters. It must be called from the
// goroutine that owns the Batcher.
func (b *Batcher) Stats() Stats {
	return b.stats
}

// BatchAndSend partitions payloads, in order, into maximal runs whose total
// length is below the size bound and calls s.Send once per run. The final
// partial run is sent when the sequence ends, including when the source
// stops early. An empty sequence sends nothing.
//
// Payload bytes are never copied. With OversizeReject, the returned error
// joins one *OversizedError per skipped payload; otherwise it is nil.
func (b *Batcher) BatchAndSend(payloads iter.Seq[[]byte], s Sender) error {
	if s == nil {
		return ErrNilSender
	}

	// A previous call that panicked in Send or in the source may have left
	// a partial group and rejections behind.
	b.reset()
	b.dropErrs()
	b.sender = s
	defer func() { b.sender = nil }()
	b.stats.Calls++

	payloads(b.push)
	b.flush(false)

	if len(b.errs) == 0 {
		return nil
	}
	err := errors.Join(b.errs...)
	b.dropErrs()
	return err
}

func (b *Batcher) dropErrs() {
	clear(b.errs)
	b.errs = b.errs[:0]
}

func (b *Batcher) add(p []byte) bool {
	if b.msgSize+len(p) < b.maxMsgSize {
		b.group = append(b.group, p)
		b.msgSize += len(p)
		return true
	}

	if len(p) >= b.maxMsgSize {
		b.oversized(p)
		return true
	}

	// p starts the next message.
	b.flush(false)
	b.group = append(b.group, p)
	b.msgSize = len(p)
	return true
}

func (b *Batcher) oversized(p []byte) {
	if b.policy == OversizeReject {
		b.stats.Rejected++
		b.errs = append(b.errs, &OversizedError{Len: len(p), Max: b.maxMsgSize})
		return
	}

	b.logger.Warn("payload exceeds max message size, sending alone",
		log.Int("len", len(p)),
		log.Int("max_msg_size", b.maxMsgSize),
	)

	// Pending payloads come first to keep input order.
	b.flush(false)
	b.group = append(b.group, p)
	b.msgSize = len(p)
	b.flush(true)
}

func (b *Batcher) flush(oversized bool) {
	if len(b.group) == 0 {
		return
	}

	b.sender.Send(Message{
		Buffers:   b.group,
		Size:      b.msgSize,
		Oversized: oversized,
	})

	b.stats.Messages++
	b.stats.Payloads += uint64(len(b.group))
	b.stats.Bytes += uint64(b.msgSize)
	if oversized {
		b.stats.Oversized++
	}

	b.reset()
}

// reset empties the group buffer. The slots are zeroed so no payload of a
// previous message stays reachable, but the backing array is kept.
func (b *Batcher) reset() {
	b.msgSize = 0
	if !b.recycle {
		b.group = nil
		return
	}
	clear(b.group)
	b.group = b.group[:0]
}
