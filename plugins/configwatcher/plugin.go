// Package configwatcher provides config file monitoring for msgbatch.
// When enabled, it watches the TOML config file and applies the runtime
// tuning fields (throttle, min_count, max_count) to the running instance.
package configwatcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/msgbatch/internal/cliconfig"
	"github.com/bft-labs/msgbatch/pkg/log"
	"github.com/bft-labs/msgbatch/pkg/msgbatch"
)

// Plugin implements config watching functionality.
type Plugin struct {
	mu sync.Mutex

	// Configuration
	debounceDelay time.Duration
	changed       map[string]bool

	// Runtime state
	path     string
	tuner    msgbatch.Tuner
	logger   log.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
	closed   bool

	// reloads tracks debounced reloads that have started running.
	reloads sync.WaitGroup
}

// Config holds configuration options for the config watcher plugin.
type Config struct {
	// DebounceDelay is the delay to wait after a file change before reloading.
	// Default: 100 milliseconds
	DebounceDelay time.Duration

	// Changed lists flags set on the command line. Their values win over the
	// file on reload, as they do at startup.
	Changed map[string]bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 100 * time.Millisecond,
	}
}

// New creates a new config watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	return &Plugin{
		debounceDelay: cfg.DebounceDelay,
		changed:       cfg.Changed,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "configwatcher"
}

// Initialize sets up the plugin and starts the config watcher.
func (p *Plugin) Initialize(ctx context.Context, cfg msgbatch.PluginConfig) error {
	p.mu.Lock()
	p.path = cfg.ConfigPath
	p.tuner = cfg.Tuner
	p.logger = log.OrNoop(cfg.Logger)
	p.mu.Unlock()

	if p.path == "" || p.tuner == nil {
		p.logger.Warn("config watcher disabled: no config file")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Editors replace files on save, so the directory is watched.
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		_ = watcher.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("config watcher plugin initialized", log.String("path", p.path))

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)

	return nil
}

// Shutdown stops the config watcher. No tuning update happens after it
// returns.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	p.closed = true
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.mu.Unlock()

	p.reloads.Wait()
	return nil
}

// watchLoop watches for config file changes.
func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	name := filepath.Base(p.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			p.debounceReload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("config watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) debounceReload(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	if p.debounce != nil {
		p.debounce.Stop()
	}

	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		p.mu.Lock()
		if p.closed || ctx.Err() != nil {
			p.mu.Unlock()
			return
		}
		p.reloads.Add(1)
		p.mu.Unlock()
		defer p.reloads.Done()

		p.reload()
	})
}

// reload applies the tuning fields of the config file. On any error the
// tuning in effect is kept.
func (p *Plugin) reload() {
	fc, err := cliconfig.LoadFileConfig(p.path)
	if err != nil {
		p.logger.Error("config reload failed", log.String("path", p.path), log.Err(err))
		return
	}

	current := p.tuner.Tuning()
	next, err := cliconfig.ApplyFileTuning(current, fc, p.changed)
	if err != nil {
		p.logger.Error("config reload rejected", log.String("path", p.path), log.Err(err))
		return
	}
	if next == current {
		return
	}
	if err := p.tuner.UpdateTuning(next); err != nil {
		p.logger.Error("tuning update failed", log.Err(err))
	}
}

var _ msgbatch.Plugin = (*Plugin)(nil)
