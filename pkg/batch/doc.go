// Package batch groups payloads into size-bounded messages without copying
// payload bytes.
//
// A [Batcher] consumes a lazily produced sequence of payloads and hands
// each completed message to a [Sender]. Messages are built greedily: a
// payload joins the current message while the running total stays strictly
// below the configured maximum; otherwise the message is flushed and the
// payload starts the next one. Input order is preserved.
//
// Messages carry views of the payloads ([net.Buffers]), never copies. The
// view slice is owned by the Batcher and reused for every message and every
// call, so a Sender must not keep a Message after Send returns.
//
// # Usage
//
//	b, err := batch.New(batch.DefaultMaxMsgSize)
//	if err != nil {
//	    return err
//	}
//	err = b.BatchAndSend(slices.Values(payloads), batch.SendFunc(func(m batch.Message) {
//	    _, _ = m.Buffers.WriteTo(conn)
//	}))
//
// # Oversized payloads
//
// A payload whose length alone reaches the maximum can never join a
// message. [OversizeEmit] sends it alone in a message flagged Oversized;
// [OversizeReject] skips it and reports an [*OversizedError].
//
// # Version
//
// Current version: 2.0.0
// Minimum compatible version: 2.0.0
//
// See version.go for version constants that can be used programmatically.
package batch
