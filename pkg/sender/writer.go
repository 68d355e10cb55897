package sender

import (
	"io"
	"sync/atomic"

	"github.com/bft-labs/msgbatch/pkg/batch"
	"github.com/bft-labs/msgbatch/pkg/log"
)

// Writer writes each message to an io.Writer in one scatter-gather call.
// Write errors are logged and counted; the batcher is never told about them.
type Writer struct {
	w      io.Writer
	logger log.Logger
	errors atomic.Uint64
}

// NewWriter creates a Writer sink for w.
func NewWriter(w io.Writer, logger log.Logger) *Writer {
	return &Writer{
		w:      w,
		logger: log.OrNoop(logger),
	}
}

// Send writes the payload views of msg without joining them first.
// WriteTo consumes the view slice, which the batcher resets anyway.
func (s *Writer) Send(msg batch.Message) {
	n, err := msg.Buffers.WriteTo(s.w)
	if err != nil {
		s.errors.Add(1)
		s.logger.Error("write message",
			log.Err(err),
			log.Int64("written", n),
			log.Int("size", msg.Size),
		)
	}
}

// Errors returns the number of failed writes.
func (s *Writer) Errors() uint64 {
	return s.errors.Load()
}
