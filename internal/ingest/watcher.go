package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// WatcherConfig configures the drop-folder watcher.
type WatcherConfig struct {
	// Debounce is how long to batch changes before ingesting them.
	Debounce time.Duration
	// Recursive watches subdirectories too.
	Recursive bool
}

// DefaultWatcherConfig returns sensible watcher defaults.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		Debounce:  500 * time.Millisecond,
		Recursive: true,
	}
}

// Watcher watches a drop folder and ingests files as they appear or change.
// The corpus is append-only, so removals and renames are ignored.
type Watcher struct {
	config  WatcherConfig
	loader  *Loader
	watcher *fsnotify.Watcher
	root    string
	logger  *log.Logger

	pendingMu sync.Mutex
	pending   map[string]struct{}

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewWatcher creates a watcher over root that ingests through loader.
func NewWatcher(root string, loader *Loader, cfg WatcherConfig, logger *log.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultWatcherConfig().Debounce
	}

	return &Watcher{
		config:  cfg,
		loader:  loader,
		watcher: fsWatcher,
		root:    root,
		logger:  logger,
		pending: make(map[string]struct{}),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Start begins watching for new and changed files.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.root); err != nil {
		return err
	}
	if w.config.Recursive {
		if err := w.addRecursive(w.root); err != nil {
			return err
		}
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
	<-w.doneCh
	return w.watcher.Close()
}

// addRecursive adds all subdirectories under path to the watch list.
func (w *Watcher) addRecursive(path string) error {
	return filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		return w.watcher.Add(p)
	})
}

// run processes events with debouncing: changes accumulate in a pending set
// that is flushed on a ticker.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "err", err)

		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

// handleEvent queues eligible created or written files for ingestion.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if event.Op&fsnotify.Create != 0 && w.config.Recursive {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", event.Name, "err", err)
			}
		}
		return
	}
	if !w.loader.Eligible(event.Name) {
		return
	}

	w.pendingMu.Lock()
	w.pending[event.Name] = struct{}{}
	w.pendingMu.Unlock()
}

// flush ingests all queued files.
func (w *Watcher) flush(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	for _, path := range paths {
		docID, skipped, err := w.loader.IngestFile(ctx, path)
		switch {
		case err != nil:
			w.logger.Warn("watch ingest failed", "path", path, "err", err)
		case skipped:
			w.logger.Debug("watched file skipped", "path", path)
		default:
			w.logger.Info("watched file ingested", "path", path, "id", docID)
		}
	}
}
