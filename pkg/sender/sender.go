package sender

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bft-labs/msgbatch/pkg/batch"
	"github.com/bft-labs/msgbatch/pkg/log"
)

// Sender receives completed messages. It is the same contract as
// batch.Sender: Send must not retain msg after returning.
type Sender = batch.Sender

// Sink names accepted by New.
const (
	KindNoop    = "noop"
	KindDiscard = "discard"
	KindStdout  = "stdout"
)

// ErrUnknownKind is returned by New for an unrecognized sink name.
var ErrUnknownKind = errors.New("sender: unknown sink kind")

// New builds a sink from its configuration name.
func New(kind string, logger log.Logger) (Sender, error) {
	switch strings.ToLower(kind) {
	case KindNoop, "":
		return Noop{}, nil
	case KindDiscard:
		return NewWriter(io.Discard, logger), nil
	case KindStdout:
		return NewWriter(os.Stdout, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Noop discards every message.
type Noop struct{}

// Send does nothing.
func (Noop) Send(batch.Message) {}
