package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Reloader watches the config file for changes and triggers hot-reload.
type Reloader struct {
	watcher *fsnotify.Watcher
	path    string
	apply   func(*Config, string) error
}

// NewReloader creates a file watcher for the config path. The apply
// callback receives the freshly loaded config and its hash.
func NewReloader(path string, apply func(cfg *Config, hash string) error) (*Reloader, error) {
	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config: nothing to watch: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create file watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("config: watch %q: %w", path, err)
	}

	return &Reloader{
		watcher: watcher,
		path:    path,
		apply:   apply,
	}, nil
}

// Run watches for file changes and reloads config. Blocks until ctx is
// cancelled.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	// Debounce: wait 500ms after last write before reloading.
	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, r.reload)
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "config watcher error: %v\n", err)
		}
	}
}

// Reload loads the config file and applies it immediately. Exposed so
// tests and signal handlers can trigger a reload without fsnotify.
func (r *Reloader) Reload() error {
	cfg, hash, err := LoadWithHash(r.path)
	if err != nil {
		return err
	}
	return r.apply(cfg, hash)
}

func (r *Reloader) reload() {
	if err := r.Reload(); err != nil {
		fmt.Fprintf(os.Stderr, "hot-reload failed: %v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "hot-reload: config reloaded\n")
	}
}
