package payload

import (
	"encoding/binary"
	"errors"
	"fmt"
	"iter"
	"math/rand/v2"
)

var (
	// ErrInvalidPoolSize is returned when a pool would hold no payloads.
	ErrInvalidPoolSize = errors.New("payload: pool size must be positive")

	// ErrInvalidLengthRange is returned for a negative or inverted length range.
	ErrInvalidLengthRange = errors.New("payload: invalid length range")

	// ErrInvalidCountRange is returned for a count range that cannot be sampled.
	ErrInvalidCountRange = errors.New("payload: invalid count range")
)

// Pool holds pre-generated payloads. The payload bytes are never modified
// after NewPool returns.
//
// Sample reuses an internal permutation, so a Pool must not be sampled from
// several goroutines at once.
type Pool struct {
	payloads [][]byte
	perm     []int
}

// NewPool generates size payloads with lengths uniformly drawn from
// [minLen, maxLen] and random contents.
func NewPool(rng *rand.Rand, size, minLen, maxLen int) (*Pool, error) {
	if size <= 0 {
		return nil, ErrInvalidPoolSize
	}
	if minLen < 0 || maxLen < minLen {
		return nil, fmt.Errorf("%w: [%d, %d]", ErrInvalidLengthRange, minLen, maxLen)
	}

	p := &Pool{
		payloads: make([][]byte, size),
		perm:     make([]int, size),
	}
	for i := range p.payloads {
		n := minLen + rng.IntN(maxLen-minLen+1)
		p.payloads[i] = randomBytes(rng, n)
		p.perm[i] = i
	}
	return p, nil
}

// FromPayloads wraps existing payloads in a Pool without copying them.
func FromPayloads(payloads [][]byte) (*Pool, error) {
	if len(payloads) == 0 {
		return nil, ErrInvalidPoolSize
	}
	p := &Pool{
		payloads: payloads,
		perm:     make([]int, len(payloads)),
	}
	for i := range p.perm {
		p.perm[i] = i
	}
	return p, nil
}

// Len returns the number of payloads in the pool.
func (p *Pool) Len() int {
	return len(p.payloads)
}

// Payloads returns the pool's payloads. Callers must not modify them.
func (p *Pool) Payloads() [][]byte {
	return p.payloads
}

// Sample returns a sequence of k distinct payloads chosen uniformly at
// random. Picks happen lazily as the sequence is consumed, so a consumer
// that stops early draws fewer random numbers. k is clamped to [0, Len()].
func (p *Pool) Sample(rng *rand.Rand, k int) iter.Seq[[]byte] {
	k = min(max(k, 0), len(p.payloads))
	return func(yield func([]byte) bool) {
		// Partial Fisher-Yates over the shared permutation; any prior
		// order of perm is an equally valid starting point.
		n := len(p.perm)
		for i := 0; i < k; i++ {
			j := i + rng.IntN(n-i)
			p.perm[i], p.perm[j] = p.perm[j], p.perm[i]
			if !yield(p.payloads[p.perm[i]]) {
				return
			}
		}
	}
}

func randomBytes(rng *rand.Rand, n int) []byte {
	b := make([]byte, n)
	var word [8]byte
	for i := 0; i < n; i += len(word) {
		binary.LittleEndian.PutUint64(word[:], rng.Uint64())
		copy(b[i:], word[:])
	}
	return b
}

// CountRange draws how many payloads go into one batching call.
// Counts are uniform in [Min, Max).
type CountRange struct {
	Min int
	Max int
}

// Validate reports whether the range can be sampled.
func (c CountRange) Validate() error {
	if c.Min < 0 || c.Max <= c.Min {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidCountRange, c.Min, c.Max)
	}
	return nil
}

// Draw returns a count in [Min, Max). The range must be valid.
func (c CountRange) Draw(rng *rand.Rand) int {
	return c.Min + rng.IntN(c.Max-c.Min)
}
