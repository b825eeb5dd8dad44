package server

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 500 * time.Millisecond

// WatcherConfig configures the file watcher
type WatcherConfig struct {
	// Paths are the input files to watch.
	Paths []string

	// DebounceDelay is how long to wait for more changes before reloading.
	DebounceDelay time.Duration

	// OnChange runs once per burst of changes.
	OnChange func(ctx context.Context)

	Logger *slog.Logger
}

// Watcher triggers a reload when a local input file changes.
type Watcher struct {
	config  WatcherConfig
	watcher *fsnotify.Watcher
	logger  *slog.Logger
	files   map[string]bool
}

// NewWatcher creates a watcher for the given files. Their parent directories
// are watched so that editors replacing a file are still seen.
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	if len(config.Paths) == 0 {
		return nil, errors.New("no paths to watch")
	}
	if config.OnChange == nil {
		return nil, errors.New("watcher requires an OnChange callback")
	}
	if config.DebounceDelay <= 0 {
		config.DebounceDelay = defaultDebounce
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	files := make(map[string]bool, len(config.Paths))
	seenDirs := make(map[string]bool)
	var dirs []string
	for _, path := range config.Paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		files[abs] = true
		if dir := filepath.Dir(abs); !seenDirs[dir] {
			seenDirs[dir] = true
			dirs = append(dirs, dir)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close() //nolint:errcheck
			return nil, err
		}
	}

	return &Watcher{
		config:  config,
		watcher: fsw,
		logger:  logger,
		files:   files,
	}, nil
}

// Run handles events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close() //nolint:errcheck

	w.logger.Info("file watcher started",
		"files", len(w.files),
		"debounce", w.config.DebounceDelay)

	ticker := time.NewTicker(w.config.DebounceDelay)
	defer ticker.Stop()

	pending := false
	var lastEvent time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				pending = true
				lastEvent = time.Now()
				w.logger.Debug("input change detected", "path", event.Name, "op", event.Op.String())
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)

		case <-ticker.C:
			if pending && time.Since(lastEvent) >= w.config.DebounceDelay {
				pending = false
				w.logger.Info("reloading after input change")
				w.config.OnChange(ctx)
			}
		}
	}
}

// relevant reports whether event touches a watched file with a content change.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return w.files[abs]
}
