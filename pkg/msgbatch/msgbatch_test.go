package msgbatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/msgbatch/pkg/batch"
	"github.com/bft-labs/msgbatch/pkg/lifecycle"
	"github.com/bft-labs/msgbatch/pkg/payload"
)

type recordingHandler struct {
	BaseEventHandler

	mu      sync.Mutex
	states  []StateChangeEvent
	batches []BatchEvent
}

func (h *recordingHandler) OnStateChange(e StateChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.states = append(h.states, e)
}

func (h *recordingHandler) OnBatch(e BatchEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.batches = append(h.batches, e)
}

type sizeCheckingSender struct {
	max      int
	mu       sync.Mutex
	messages int
	over     int
}

func (s *sizeCheckingSender) Send(msg batch.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages++
	if msg.Size >= s.max {
		s.over++
	}
}

type recordingPlugin struct {
	name     string
	initErr  error
	mu       sync.Mutex
	initCfg  PluginConfig
	shutdown int
	order    *[]string
}

func (p *recordingPlugin) Name() string { return p.name }

func (p *recordingPlugin) Initialize(ctx context.Context, cfg PluginConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.initCfg = cfg
	return p.initErr
}

func (p *recordingPlugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shutdown++
	if p.order != nil {
		*p.order = append(*p.order, p.name)
	}
	return nil
}

func waitDone(t *testing.T, m *Msgbatch) {
	t.Helper()
	select {
	case <-m.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("batching did not finish in time")
	}
}

func waitStatus(t *testing.T, m *Msgbatch, want State) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for m.Status() != want {
		if time.Now().After(deadline) {
			t.Fatalf("status = %v, want %v", m.Status(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"negative max size", func(c *Config) { c.MaxMsgSize = -1 }, false},
		{"inverted payload range", func(c *Config) { c.MinPayload, c.MaxPayload = 20, 10 }, false},
		{"empty count range", func(c *Config) { c.MinCount, c.MaxCount = 5, 5 }, false},
		{"negative throttle", func(c *Config) { c.Throttle = -time.Second }, false},
		{"negative report interval", func(c *Config) { c.ReportInterval = -time.Second }, false},
		{"unknown policy", func(c *Config) { c.OversizePolicy = batch.OversizePolicy(7) }, false},
		{"zero-length payloads", func(c *Config) { c.MinPayload, c.MaxPayload = 0, 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestConfig_SetDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()

	if cfg.MaxMsgSize != batch.DefaultMaxMsgSize {
		t.Errorf("MaxMsgSize = %d, want %d", cfg.MaxMsgSize, batch.DefaultMaxMsgSize)
	}
	if cfg.PoolSize != DefaultPoolSize || cfg.MinPayload != DefaultMinPayload || cfg.MaxPayload != DefaultMaxPayload {
		t.Errorf("pool defaults not applied: %+v", cfg)
	}
	if cfg.MinCount != DefaultMinCount || cfg.MaxCount != DefaultMaxCount {
		t.Errorf("count defaults not applied: %+v", cfg)
	}
	if cfg.Sink != "noop" {
		t.Errorf("Sink = %q, want noop", cfg.Sink)
	}
}

func TestNew_InvalidSink(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sink = "carrier-pigeon"
	if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("New() error = %v, want ErrInvalidConfig", err)
	}
}

func TestMsgbatch_RunsIterationsAndStops(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Iterations = 200
	cfg.Throttle = 0

	snd := &sizeCheckingSender{max: cfg.MaxMsgSize}
	handler := &recordingHandler{}
	m, err := New(cfg, WithSender(snd), WithEventHandler(handler), WithSeed(1, 2))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitDone(t, m)
	waitStatus(t, m, StateStopped)

	st := m.Stats()
	if st.Calls != 200 {
		t.Errorf("Calls = %d, want 200", st.Calls)
	}
	if int(st.Messages) != snd.messages {
		t.Errorf("Messages = %d, sender saw %d", st.Messages, snd.messages)
	}
	if snd.over != 0 {
		t.Errorf("%d messages reached the size bound", snd.over)
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()
	if len(handler.batches) != 200 {
		t.Errorf("got %d batch events, want 200", len(handler.batches))
	}
	last := handler.states[len(handler.states)-1]
	if last.Current != StateStopped || last.Reason != "iterations complete" {
		t.Errorf("last state event = %+v", last)
	}

	if err := m.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop() after completion = %v, want ErrNotRunning", err)
	}
}

func TestMsgbatch_StatsCountRejected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OversizePolicy = batch.OversizeReject
	cfg.MinPayload, cfg.MaxPayload = 2000, 2000
	cfg.MinCount, cfg.MaxCount = 1, 2
	cfg.Iterations = 5
	cfg.Throttle = 0

	m, err := New(cfg, WithSeed(5, 6))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitDone(t, m)

	st := m.Stats()
	if st.Rejected != 5 {
		t.Errorf("Rejected = %d, want 5", st.Rejected)
	}
	if st.Messages != 0 || st.Oversized != 0 {
		t.Errorf("Messages = %d, Oversized = %d, want 0", st.Messages, st.Oversized)
	}
}

func TestMsgbatch_StartStop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Throttle = time.Millisecond

	m, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if m.Done() != nil {
		t.Error("Done() should be nil before Start")
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := m.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() = %v, want ErrAlreadyRunning", err)
	}

	waitStatus(t, m, StateRunning)
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if m.Status() != StateStopped {
		t.Errorf("status = %v, want Stopped", m.Status())
	}
	waitDone(t, m)

	if err := m.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop() when stopped = %v, want ErrNotRunning", err)
	}
}

func TestMsgbatch_Plugins(t *testing.T) {
	var order []string
	first := &recordingPlugin{name: "first", order: &order}
	second := &recordingPlugin{name: "second", order: &order}

	cfg := DefaultConfig()
	cfg.ConfigPath = "/etc/msgbatch.toml"
	m, err := New(cfg, WithPlugin(first), WithPlugin(second))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if first.initCfg.ConfigPath != "/etc/msgbatch.toml" || first.initCfg.Tuner == nil {
		t.Errorf("plugin config = %+v", first.initCfg)
	}

	if err := m.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Errorf("shutdown order = %v, want [second first]", order)
	}
}

func TestMsgbatch_PluginInitFailure(t *testing.T) {
	ok := &recordingPlugin{name: "ok"}
	bad := &recordingPlugin{name: "bad", initErr: errors.New("boom")}

	m, err := New(DefaultConfig(), WithPlugin(ok), WithPlugin(bad))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := m.Start(context.Background()); err == nil {
		t.Fatal("Start() should fail when a plugin fails")
	}
	if m.Status() != StateCrashed {
		t.Errorf("status = %v, want Crashed", m.Status())
	}
	if ok.shutdown != 1 {
		t.Errorf("initialized plugin shut down %d times, want 1", ok.shutdown)
	}
	if bad.shutdown != 0 {
		t.Errorf("failed plugin shut down %d times, want 0", bad.shutdown)
	}
}

func TestMsgbatch_UpdateTuning(t *testing.T) {
	m, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	next := lifecycle.Tuning{Throttle: time.Second, Count: payload.CountRange{Min: 1, Max: 3}}
	if err := m.UpdateTuning(next); err != nil {
		t.Fatalf("UpdateTuning() error = %v", err)
	}
	if m.Tuning() != next {
		t.Errorf("Tuning() = %+v, want %+v", m.Tuning(), next)
	}
}

func TestIsVersionCompatible(t *testing.T) {
	tests := []struct {
		version, min string
		want         bool
	}{
		{"1.0.0", "1.0.0", true},
		{"1.2.0", "1.0.0", true},
		{"2.0.0", "1.9.9", true},
		{"1.0.0", "1.0.1", false},
		{"1.0.0", "2.0.0", false},
	}
	for _, tt := range tests {
		if got := isVersionCompatible(tt.version, tt.min); got != tt.want {
			t.Errorf("isVersionCompatible(%s, %s) = %v, want %v", tt.version, tt.min, got, tt.want)
		}
	}
	if err := validateModuleVersions(); err != nil {
		t.Errorf("validateModuleVersions() = %v", err)
	}
}
