package batch

import (
	"fmt"
	"strings"
)

// OversizePolicy decides what happens to a payload that cannot fit even in
// an empty message.
type OversizePolicy int

const (
	// OversizeEmit sends the payload alone in a message flagged Oversized
	// and logs a warning.
	OversizeEmit OversizePolicy = iota

	// OversizeReject skips the payload and reports an *OversizedError
	// from BatchAndSend once the input is exhausted.
	OversizeReject
)

// String returns the configuration name of the policy.
func (p OversizePolicy) String() string {
	switch p {
	case OversizeEmit:
		return "emit"
	case OversizeReject:
		return "reject"
	default:
		return "unknown"
	}
}

// ParseOversizePolicy parses "emit" or "reject" (case-insensitive).
func ParseOversizePolicy(s string) (OversizePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "emit", "":
		return OversizeEmit, nil
	case "reject":
		return OversizeReject, nil
	default:
		return OversizeEmit, fmt.Errorf("%w: %q", ErrUnknownOversizePolicy, s)
	}
}
