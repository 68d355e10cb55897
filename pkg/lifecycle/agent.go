package lifecycle

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bft-labs/msgbatch/pkg/batch"
	"github.com/bft-labs/msgbatch/pkg/log"
	"github.com/bft-labs/msgbatch/pkg/payload"
)

// Tuning holds the loop settings that may change while the agent runs.
type Tuning struct {
	// Throttle is the pause between two batching calls. Zero disables it.
	Throttle time.Duration

	// Count is the range of payloads drawn per call.
	Count payload.CountRange
}

// Validate checks that the tuning can drive the loop.
func (t Tuning) Validate() error {
	if t.Throttle < 0 {
		return fmt.Errorf("throttle must not be negative")
	}
	return t.Count.Validate()
}

// AgentConfig contains configuration for the agent loop.
type AgentConfig struct {
	// ID identifies the sender in logs. Each agent owns its own batcher.
	ID int

	// Iterations bounds the number of batching calls. Zero runs until the
	// context is canceled.
	Iterations uint64

	// ReportInterval is how often cumulative stats are logged. Zero logs
	// only when the loop ends.
	ReportInterval time.Duration

	Tuning Tuning
}

// BatchEventEmitter is called after every batching call.
type BatchEventEmitter interface {
	OnBatch(payloads, messages int, err error)
}

// Agent orchestrates the batching loop.
type Agent struct {
	config  AgentConfig
	batcher *batch.Batcher
	pool    *payload.Pool
	sender  batch.Sender
	rng     *rand.Rand
	logger  log.Logger
	emitter BatchEventEmitter

	mu     sync.RWMutex
	tuning Tuning

	calls    atomic.Uint64
	rejected atomic.Uint64
}

// NewAgent creates a new agent with the given dependencies. The batcher,
// pool and rng become owned by the agent's goroutine.
func NewAgent(
	config AgentConfig,
	batcher *batch.Batcher,
	pool *payload.Pool,
	snd batch.Sender,
	rng *rand.Rand,
	logger log.Logger,
	emitter BatchEventEmitter,
) (*Agent, error) {
	if err := config.Tuning.Validate(); err != nil {
		return nil, fmt.Errorf("agent tuning: %w", err)
	}
	logger = log.OrNoop(logger).With(log.Int("sender_id", config.ID))
	return &Agent{
		config:  config,
		batcher: batcher,
		pool:    pool,
		sender:  snd,
		rng:     rng,
		logger:  logger,
		emitter: emitter,
		tuning:  config.Tuning,
	}, nil
}

// Tuning returns the tuning currently in effect.
func (a *Agent) Tuning() Tuning {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.tuning
}

// UpdateTuning replaces the tuning used from the next batching call on.
// Invalid tuning is rejected and the previous one stays in effect.
func (a *Agent) UpdateTuning(t Tuning) error {
	if err := t.Validate(); err != nil {
		return err
	}
	a.mu.Lock()
	a.tuning = t
	a.mu.Unlock()

	a.logger.Info("tuning updated",
		log.Duration("throttle", t.Throttle),
		log.Int("min_count", t.Count.Min),
		log.Int("max_count", t.Count.Max),
	)
	return nil
}

// Calls returns the number of completed batching calls.
func (a *Agent) Calls() uint64 {
	return a.calls.Load()
}

// Rejected returns the number of payloads skipped under OversizeReject.
func (a *Agent) Rejected() uint64 {
	return a.rejected.Load()
}

// Run executes the batching loop until the context is canceled or the
// configured number of iterations has completed. It returns ctx.Err() on
// cancellation and nil on completion.
func (a *Agent) Run(ctx context.Context) error {
	throttle := time.NewTimer(time.Hour)
	throttle.Stop()
	defer throttle.Stop()

	lastReport := time.Now()
	defer a.report()

	for a.config.Iterations == 0 || a.calls.Load() < a.config.Iterations {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		t := a.Tuning()
		a.runOnce(t)

		if a.config.ReportInterval > 0 && time.Since(lastReport) >= a.config.ReportInterval {
			a.report()
			lastReport = time.Now()
		}

		if t.Throttle > 0 {
			throttle.Reset(t.Throttle)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-throttle.C:
			}
		}
	}

	return nil
}

// runOnce performs a single batching call.
func (a *Agent) runOnce(t Tuning) {
	before := a.batcher.Stats()
	k := t.Count.Draw(a.rng)

	err := a.batcher.BatchAndSend(a.pool.Sample(a.rng, k), a.sender)
	if err != nil {
		a.logger.Warn("payloads rejected",
			log.Err(err),
			log.Int("drawn", k),
		)
	}
	after := a.batcher.Stats()
	a.rejected.Add(after.Rejected - before.Rejected)
	a.calls.Add(1)

	if a.emitter != nil {
		a.emitter.OnBatch(k, int(after.Messages-before.Messages), err)
	}
}

func (a *Agent) report() {
	st := a.batcher.Stats()
	a.logger.Info("batcher stats",
		log.Uint64("calls", st.Calls),
		log.Uint64("messages", st.Messages),
		log.Uint64("payloads", st.Payloads),
		log.Uint64("bytes", st.Bytes),
		log.Uint64("oversized", st.Oversized),
		log.Uint64("rejected", st.Rejected),
	)
}
