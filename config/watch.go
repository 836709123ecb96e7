package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchConfig tunes the config file watcher.
type WatchConfig struct {
	Enabled      bool
	CooldownTime time.Duration // minimum time between reloads
}

// DefaultWatchConfig returns the production defaults.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		Enabled:      true,
		CooldownTime: 5 * time.Second,
	}
}

// Watcher reloads the config file on write and hands the validated result
// to a callback. A reload that fails validation is logged and dropped; the
// running configuration is never replaced by a bad edit.
type Watcher struct {
	config   WatchConfig
	path     string
	watcher  *fsnotify.Watcher
	log      *zap.Logger
	onUpdate func(AppConfig)

	mu         sync.Mutex
	lastReload time.Time

	stopChan chan struct{}
	doneChan chan struct{}
}

// NewWatcher creates a watcher for the config file at path.
func NewWatcher(path string, cfg WatchConfig, log *zap.Logger, onUpdate func(AppConfig)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		config:   cfg,
		path:     path,
		watcher:  fsWatcher,
		log:      log,
		onUpdate: onUpdate,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}, nil
}

// Start begins watching. It returns immediately; events are handled on a
// background goroutine until Stop or ctx cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	if !w.config.Enabled {
		close(w.doneChan)
		return nil
	}
	if err := w.watcher.Add(w.path); err != nil {
		return fmt.Errorf("watch config file: %w", err)
	}
	go w.watch(ctx)
	return nil
}

// Stop shuts the watcher down and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	select {
	case <-w.stopChan:
	default:
		close(w.stopChan)
	}
	select {
	case <-w.doneChan:
	case <-time.After(1 * time.Second):
	}
	return w.watcher.Close()
}

func (w *Watcher) watch(ctx context.Context) {
	defer close(w.doneChan)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// Editors replace files as often as they write them.
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.handleChange()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleChange() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if time.Since(w.lastReload) < w.config.CooldownTime {
		return
	}

	cfg, err := LoadWithEnvOverrides(w.path)
	if err != nil {
		w.log.Warn("config reload rejected", zap.Error(err))
		return
	}
	w.lastReload = time.Now()
	w.log.Info("config reloaded",
		zap.Uint64("quote_edge_bps", cfg.Strategy.QuoteEdgeInBps),
		zap.Uint64("quote_size_atoms", cfg.Strategy.QuoteSizeInQuoteAtoms),
		zap.String("price_improvement", cfg.Strategy.PriceImprovement))
	if w.onUpdate != nil {
		w.onUpdate(cfg)
	}
}
