package batch

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMaxMsgSize is returned by New when the size bound is not positive.
	ErrInvalidMaxMsgSize = errors.New("batch: max message size must be positive")

	// ErrOversizedPayload matches every *OversizedError via errors.Is.
	ErrOversizedPayload = errors.New("batch: payload exceeds max message size")

	// ErrUnknownOversizePolicy is returned when parsing an unknown policy name.
	ErrUnknownOversizePolicy = errors.New("batch: unknown oversize policy")

	// ErrNilSender is returned by BatchAndSend when no sender is given.
	ErrNilSender = errors.New("batch: nil sender")
)

// OversizedError reports a payload that was rejected because its length
// alone reaches the message size bound.
type OversizedError struct {
	Len int
	Max int
}

func (e *OversizedError) Error() string {
	return fmt.Sprintf("batch: payload of %d bytes does not fit in a message (max %d)", e.Len, e.Max)
}

func (e *OversizedError) Unwrap() error {
	return ErrOversizedPayload
}
