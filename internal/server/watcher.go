package server

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wadakatu/gitlyte/internal/config"
)

// ConfigReloader receives validated configuration changes from the watcher.
type ConfigReloader interface {
	GetConfig() *config.Config
	ReloadConfig(ctx context.Context, cfg *config.Config) error
}

// ConfigWatcher monitors the daemon's configuration file and applies changes
// without a restart.
type ConfigWatcher struct {
	configPath   string
	reloader     ConfigReloader
	watcher      *fsnotify.Watcher
	mu           sync.RWMutex
	stopChan     chan struct{}
	reloadChan   chan struct{}
	debounceTime time.Duration
}

// NewConfigWatcher creates a watcher for the given configuration file.
func NewConfigWatcher(configPath string, reloader ConfigReloader) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	// Events report absolute names, so compare against an absolute path.
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	return &ConfigWatcher{
		configPath:   absPath,
		reloader:     reloader,
		watcher:      watcher,
		stopChan:     make(chan struct{}),
		reloadChan:   make(chan struct{}, 1),
		debounceTime: 2 * time.Second,
	}, nil
}

// Start begins monitoring the configuration file.
func (cw *ConfigWatcher) Start(ctx context.Context) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	// Watch the directory; editors replace files on save so watching the
	// file directly misses rename-based writes.
	configDir := filepath.Dir(cw.configPath)
	if err := cw.watcher.Add(configDir); err != nil {
		return fmt.Errorf("watch config directory %s: %w", configDir, err)
	}

	slog.Info("Config watcher started", "config_path", cw.configPath)

	go cw.watchLoop(ctx)
	go cw.reloadLoop(ctx)

	return nil
}

// Stop stops the configuration watcher.
func (cw *ConfigWatcher) Stop(ctx context.Context) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	slog.Info("Config watcher stopping")

	close(cw.stopChan)

	if cw.watcher != nil {
		if err := cw.watcher.Close(); err != nil {
			slog.Error("Close fsnotify watcher", "error", err)
		}
	}

	return nil
}

// watchLoop forwards events for the config file into the debounced reload
// channel.
func (cw *ConfigWatcher) watchLoop(ctx context.Context) {
	configFile := filepath.Base(cw.configPath)

	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stopChan:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}

			// The directory watch reports sibling files too.
			if filepath.Base(event.Name) != configFile {
				continue
			}

			switch {
			case event.Op&fsnotify.Write == fsnotify.Write:
				slog.Debug("Config file written", "file", event.Name)
				cw.triggerReload()
			case event.Op&fsnotify.Create == fsnotify.Create:
				slog.Debug("Config file created", "file", event.Name)
				cw.triggerReload()
			case event.Op&fsnotify.Rename == fsnotify.Rename:
				slog.Debug("Config file renamed", "file", event.Name)
				cw.triggerReload()
			case event.Op&fsnotify.Remove == fsnotify.Remove:
				slog.Warn("Config file removed", "file", event.Name)
			}

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Config watcher error", "error", err)
		}
	}
}

// reloadLoop handles debounced configuration reloads.
func (cw *ConfigWatcher) reloadLoop(ctx context.Context) {
	var reloadTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			return
		case <-cw.stopChan:
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			return
		case <-cw.reloadChan:
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(cw.debounceTime, func() {
				if err := cw.performReload(ctx); err != nil {
					slog.Error("Config reload failed", "error", err)
				}
			})
		}
	}
}

// triggerReload requests a debounced reload, coalescing bursts of events.
func (cw *ConfigWatcher) triggerReload() {
	select {
	case cw.reloadChan <- struct{}{}:
	default:
		// Reload already pending
	}
}

// performReload loads, validates, and applies the new configuration.
func (cw *ConfigWatcher) performReload(ctx context.Context) error {
	slog.Info("Reloading configuration", "config_path", cw.configPath)

	newConfig, err := config.Load(cw.configPath)
	if err != nil {
		return fmt.Errorf("load new configuration: %w", err)
	}

	if err := cw.validateConfigChange(newConfig); err != nil {
		return fmt.Errorf("validate configuration change: %w", err)
	}

	if err := cw.reloader.ReloadConfig(ctx, newConfig); err != nil {
		return fmt.Errorf("apply new configuration: %w", err)
	}

	slog.Info("Configuration reloaded")
	return nil
}

// validateConfigChange rejects changes that cannot take effect in a running
// daemon.
func (cw *ConfigWatcher) validateConfigChange(newConfig *config.Config) error {
	currentConfig := cw.reloader.GetConfig()

	// The GitHub client is constructed once at startup.
	if newConfig.GitHub.Token != currentConfig.GitHub.Token ||
		newConfig.GitHub.APIURL != currentConfig.GitHub.APIURL {
		return fmt.Errorf("github credential changes require a daemon restart")
	}

	if newConfig.Daemon != nil && currentConfig.Daemon != nil {
		if newConfig.Daemon.HTTP.WebhookPort != currentConfig.Daemon.HTTP.WebhookPort ||
			newConfig.Daemon.HTTP.AdminPort != currentConfig.Daemon.HTTP.AdminPort {
			slog.Warn("HTTP port change takes effect on next restart")
		}
		if newConfig.Daemon.Queue.Workers != currentConfig.Daemon.Queue.Workers ||
			newConfig.Daemon.Queue.Size != currentConfig.Daemon.Queue.Size {
			slog.Warn("Queue sizing change takes effect on next restart")
		}
	}

	return nil
}
