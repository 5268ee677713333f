// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ivadomed/ivadoconf/internal/log"
)

// reloadDebounce coalesces the editor save dance (truncate, write, rename)
// into a single reload.
const reloadDebounce = 250 * time.Millisecond

// ConfigHolder owns the current effective config and serializes reloads.
// A failed reload keeps the previous config in place.
type ConfigHolder struct {
	mu      sync.RWMutex
	current *AppConfig
	path    string
	version string

	listenerMu sync.Mutex
	listeners  []chan ChangeSummary
}

// NewConfigHolder loads the initial config and returns the holder.
func NewConfigHolder(path, version string) (*ConfigHolder, error) {
	loader := NewLoader(path, version)
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	return &ConfigHolder{current: cfg, path: path, version: version}, nil
}

// Get returns the current effective config. The returned pointer must be
// treated as read-only; Reload swaps the pointer, never mutates in place.
func (h *ConfigHolder) Get() *AppConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload re-runs the load pipeline. On success the new config is swapped in
// and all listeners are notified; on failure the old config stays active and
// the error is returned.
func (h *ConfigHolder) Reload() (ChangeSummary, error) {
	logger := log.WithComponent("config")

	loader := NewLoader(h.path, h.version)
	next, err := loader.Load()
	if err != nil {
		logger.Error().
			Err(err).
			Str(log.FieldConfigPath, h.path).
			Msg("reload failed, keeping previous configuration")
		return ChangeSummary{}, fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	summary := Diff(h.current, next)
	h.current = next
	h.mu.Unlock()

	logger.Info().
		Strs("changed_fields", summary.ChangedFields).
		Bool("restart_required", summary.RestartRequired).
		Msg("configuration reloaded")

	h.notify(summary)
	return summary, nil
}

// Subscribe returns a channel receiving a ChangeSummary after each successful
// reload. The channel is buffered; a slow consumer drops summaries rather
// than blocking the reload path.
func (h *ConfigHolder) Subscribe() <-chan ChangeSummary {
	ch := make(chan ChangeSummary, 4)
	h.listenerMu.Lock()
	h.listeners = append(h.listeners, ch)
	h.listenerMu.Unlock()
	return ch
}

func (h *ConfigHolder) notify(summary ChangeSummary) {
	h.listenerMu.Lock()
	defer h.listenerMu.Unlock()
	for _, ch := range h.listeners {
		select {
		case ch <- summary:
		default:
		}
	}
}

// StartWatcher watches the config file and reloads on change until ctx is
// cancelled. The parent directory is watched because atomic writers replace
// the file (rename) instead of writing into it.
func (h *ConfigHolder) StartWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	dir := filepath.Dir(h.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	logger := log.WithComponent("config")

	go func() {
		defer watcher.Close()

		var timer *time.Timer
		target := filepath.Clean(h.path)

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(reloadDebounce, func() {
					// Reload logs its own failures and keeps the old config.
					_, _ = h.Reload()
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn().Err(err).Msg("config watcher error")
			}
		}
	}()

	logger.Info().
		Str(log.FieldConfigPath, h.path).
		Msg("watching configuration file for changes")
	return nil
}
