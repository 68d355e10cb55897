package msgbatch

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/bft-labs/msgbatch/pkg/batch"
	"github.com/bft-labs/msgbatch/pkg/lifecycle"
	"github.com/bft-labs/msgbatch/pkg/log"
	"github.com/bft-labs/msgbatch/pkg/payload"
	"github.com/bft-labs/msgbatch/pkg/sender"
)

// Errors returned by Start and Stop.
var (
	ErrAlreadyRunning  = lifecycle.ErrAlreadyRunning
	ErrNotRunning      = lifecycle.ErrNotRunning
	ErrShutdownTimeout = lifecycle.ErrShutdownTimeout
)

// Stats is a snapshot of what an instance has sent so far.
type Stats struct {
	Calls     uint64
	Messages  uint64
	Payloads  uint64
	Bytes     uint64
	Oversized uint64

	// Rejected counts payloads skipped under OversizeReject.
	Rejected uint64
}

// Msgbatch is a batching agent that can be embedded in other applications.
// Use New() to create an instance, then Start() to begin batching.
type Msgbatch struct {
	config    Config
	opts      options
	lifecycle lifecycle.Manager
	agent     *lifecycle.Agent
	counting  *sender.Counting
	logger    log.Logger

	plugins []Plugin

	mu   sync.Mutex
	done chan struct{}

	// active holds the initialized plugins still awaiting shutdown.
	pluginMu sync.Mutex
	active   []Plugin
}

// New creates a new Msgbatch instance with the given configuration.
// The instance is created in StateStopped; call Start() to begin batching.
// Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Msgbatch, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger

	var rng *rand.Rand
	if o.seed != nil {
		rng = rand.New(rand.NewPCG(o.seed[0], o.seed[1]))
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	pool, err := payload.NewPool(rng, cfg.PoolSize, cfg.MinPayload, cfg.MaxPayload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	snd := o.sender
	if snd == nil {
		if snd, err = sender.New(cfg.Sink, logger); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	counting := sender.NewCounting(snd)

	b, err := batch.New(cfg.MaxMsgSize,
		batch.WithOversizePolicy(cfg.OversizePolicy),
		batch.WithRecycling(!cfg.DisableRecycling),
		batch.WithCapacity(cfg.MaxCount),
		batch.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler}

	agent, err := lifecycle.NewAgent(lifecycle.AgentConfig{
		ID:             cfg.SenderID,
		Iterations:     cfg.Iterations,
		ReportInterval: cfg.ReportInterval,
		Tuning:         cfg.Tuning(),
	}, b, pool, counting, rng, logger, emitter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &Msgbatch{
		config:    cfg,
		opts:      o,
		lifecycle: lifecycle.NewManager(logger, emitter),
		agent:     agent,
		counting:  counting,
		logger:    logger,
		plugins:   o.plugins,
	}, nil
}

// Start begins batching in the background.
// Returns immediately after starting the batching goroutine.
// Returns an error if already running or if a plugin fails to initialize.
func (m *Msgbatch) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.lifecycle.CanStart() {
		return ErrAlreadyRunning
	}

	if err := m.lifecycle.TransitionTo(lifecycle.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.lifecycle.SetCancel(cancel)
	done := make(chan struct{})
	m.done = done

	pluginCfg := PluginConfig{
		ConfigPath: m.config.ConfigPath,
		Logger:     m.logger,
		Tuner:      m.agent,
	}
	for _, p := range m.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			m.logger.Error("plugin initialization failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			cancel()
			m.shutdownPlugins()
			close(done)
			_ = m.lifecycle.TransitionTo(lifecycle.StateCrashed, "plugin init failed: "+p.Name())
			return err
		}
		m.pluginMu.Lock()
		m.active = append(m.active, p)
		m.pluginMu.Unlock()
		m.logger.Info("plugin initialized", log.String("plugin", p.Name()))
	}

	m.lifecycle.AddWorker()
	go func() {
		defer close(done)
		defer m.lifecycle.WorkerDone()

		if err := m.lifecycle.TransitionTo(lifecycle.StateRunning, "agent starting"); err != nil {
			// Stop() won the race during startup.
			return
		}

		err := m.agent.Run(runCtx)
		switch {
		case err == nil:
			m.complete()
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			// Stop() or the parent context; Stop() finishes the transition.
		default:
			m.logger.Error("agent error", log.Err(err))
			m.shutdownPlugins()
			_ = m.lifecycle.TransitionTo(lifecycle.StateCrashed, err.Error())
		}
	}()

	return nil
}

// complete finishes a run that ended because all iterations were done.
func (m *Msgbatch) complete() {
	if err := m.lifecycle.TransitionTo(lifecycle.StateStopping, "iterations complete"); err != nil {
		return
	}
	m.shutdownPlugins()
	_ = m.lifecycle.TransitionTo(lifecycle.StateStopped, "iterations complete")
}

// Stop gracefully shuts down the agent.
// The batching call in progress completes, including its final flush.
// Returns nil on graceful shutdown, ErrShutdownTimeout if forced.
func (m *Msgbatch) Stop() error {
	m.mu.Lock()

	if !m.lifecycle.CanStop() {
		m.mu.Unlock()
		return ErrNotRunning
	}

	if err := m.lifecycle.TransitionTo(lifecycle.StateStopping, "Stop() called"); err != nil {
		m.mu.Unlock()
		return ErrNotRunning
	}

	m.lifecycle.Cancel()

	m.mu.Unlock()

	err := m.lifecycle.WaitWithTimeout(lifecycle.ShutdownTimeout)

	m.shutdownPlugins()

	if err != nil {
		_ = m.lifecycle.TransitionTo(lifecycle.StateCrashed, "shutdown timeout")
	} else {
		_ = m.lifecycle.TransitionTo(lifecycle.StateStopped, "graceful shutdown")
	}

	return err
}

// shutdownPlugins stops initialized plugins in reverse order, once.
func (m *Msgbatch) shutdownPlugins() {
	m.pluginMu.Lock()
	active := m.active
	m.active = nil
	m.pluginMu.Unlock()

	shutdownCtx := context.Background()
	for i := len(active) - 1; i >= 0; i-- {
		p := active[i]
		if err := p.Shutdown(shutdownCtx); err != nil {
			m.logger.Error("plugin shutdown failed",
				log.String("plugin", p.Name()),
				log.Err(err))
		} else {
			m.logger.Info("plugin shutdown complete", log.String("plugin", p.Name()))
		}
	}
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (m *Msgbatch) Status() State {
	return m.lifecycle.State()
}

// Done returns a channel closed when the batching goroutine of the current
// run exits. It returns nil before the first Start.
func (m *Msgbatch) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// Stats returns what has been sent so far. Safe for concurrent use.
func (m *Msgbatch) Stats() Stats {
	c := m.counting.Snapshot()
	return Stats{
		Calls:     m.agent.Calls(),
		Messages:  c.Messages,
		Payloads:  c.Payloads,
		Bytes:     c.Bytes,
		Oversized: c.Oversized,
		Rejected:  m.agent.Rejected(),
	}
}

// Tuning returns the tuning currently in effect.
func (m *Msgbatch) Tuning() lifecycle.Tuning {
	return m.agent.Tuning()
}

// UpdateTuning changes throttle and payload count range of a running or
// stopped instance.
func (m *Msgbatch) UpdateTuning(t lifecycle.Tuning) error {
	return m.agent.UpdateTuning(t)
}

// Config returns the configuration with defaults applied.
func (m *Msgbatch) Config() Config {
	return m.config
}

// validateModuleVersions checks that all module versions are compatible.
// Returns an error if any module version is below its minimum compatible version.
func validateModuleVersions() error {
	modules := map[string]struct {
		version    string
		minVersion string
	}{
		"batch":     {batch.Version, batch.MinCompatibleVersion},
		"payload":   {payload.Version, payload.MinCompatibleVersion},
		"sender":    {sender.Version, sender.MinCompatibleVersion},
		"lifecycle": {lifecycle.Version, lifecycle.MinCompatibleVersion},
		"log":       {log.Version, log.MinCompatibleVersion},
	}

	for name, mod := range modules {
		if !isVersionCompatible(mod.version, mod.minVersion) {
			return fmt.Errorf("module %s version %s is below minimum compatible version %s",
				name, mod.version, mod.minVersion)
		}
	}

	return nil
}

// isVersionCompatible checks if version >= minVersion using semantic versioning.
// Assumes versions are in format "major.minor.patch".
func isVersionCompatible(version, minVersion string) bool {
	var vMajor, vMinor, vPatch int
	var mMajor, mMinor, mPatch int

	_, _ = fmt.Sscanf(version, "%d.%d.%d", &vMajor, &vMinor, &vPatch)
	_, _ = fmt.Sscanf(minVersion, "%d.%d.%d", &mMajor, &mMinor, &mPatch)

	if vMajor != mMajor {
		return vMajor > mMajor
	}
	if vMinor != mMinor {
		return vMinor > mMinor
	}
	return vPatch >= mPatch
}
