package calibration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher monitors the calibration root and keeps a cached snapshot of
// calibration entries, so clients polling the calibration list do not
// hit the filesystem on every request. Events are debounced because
// lerobot rewrites the file several times during a calibration run.
type Watcher struct {
	service            *Service
	watcher            *fsnotify.Watcher
	stabilityThreshold time.Duration
	logger             zerolog.Logger

	snapMu   sync.RWMutex
	snapshot []Entry

	debounceMu    sync.Mutex
	debounceTimer *time.Timer

	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher over the service's calibration root.
func NewWatcher(service *Service, logger zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		service:            service,
		watcher:            fw,
		stabilityThreshold: 250 * time.Millisecond,
		logger:             logger.With().Str("component", "calibration_watcher").Logger(),
		done:               make(chan struct{}),
	}, nil
}

// Start takes an initial snapshot and begins watching for changes. The
// calibration root is created if it does not exist yet, since lerobot
// only creates it on first calibration.
func (w *Watcher) Start() error {
	if err := os.MkdirAll(w.service.Root(), 0o755); err != nil {
		return fmt.Errorf("failed to create calibration root: %w", err)
	}
	if err := w.addDirectoryRecursive(w.service.Root()); err != nil {
		return fmt.Errorf("failed to watch calibration root: %w", err)
	}
	if err := w.refresh(); err != nil {
		return err
	}

	go w.eventLoop()

	w.logger.Info().Str("path", w.service.Root()).Msg("Calibration watcher started")
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.done)
	})

	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceMu.Unlock()

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// Snapshot returns the cached calibration entries.
func (w *Watcher) Snapshot() []Entry {
	w.snapMu.RLock()
	defer w.snapMu.RUnlock()
	out := make([]Entry, len(w.snapshot))
	copy(out, w.snapshot)
	return out
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Watcher error")

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !relevant(event.Name) {
		return
	}

	// A created directory (new type dir) must itself be watched.
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.addDirectoryRecursive(event.Name)
		}
	}

	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.stabilityThreshold, func() {
		select {
		case <-w.done:
		default:
			if err := w.refresh(); err != nil {
				w.logger.Error().Err(err).Msg("Failed to refresh calibration snapshot")
			}
		}
	})
}

func (w *Watcher) refresh() error {
	entries, err := w.service.List()
	if err != nil {
		return err
	}
	w.snapMu.Lock()
	w.snapshot = entries
	w.snapMu.Unlock()
	return nil
}

func (w *Watcher) addDirectoryRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if err := w.watcher.Add(walkPath); err != nil {
			w.logger.Warn().Err(err).Str("path", walkPath).Msg("Failed to watch path")
		}
		return nil
	})
}

// relevant filters events down to calibration JSON files and directories.
func relevant(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return !strings.Contains(base, ".") || strings.HasSuffix(base, ".json")
}
