package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for writes to settle before
// reporting a change. The extractor rewrites hundreds of files in one run.
const DefaultDebounce = 2 * time.Second

// Watcher reports changes to a data directory
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	log      *slog.Logger
}

// NewWatcher watches dir and dir/foods for changes
func NewWatcher(dir string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	for _, path := range []string{dir, filepath.Join(dir, FoodsDir)} {
		if err := fw.Add(path); err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", path, err)
		}
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		watcher:  fw,
		debounce: debounce,
		log:      logger,
	}, nil
}

// Run calls onChange once per burst of file events until ctx is cancelled
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	defer w.watcher.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	w.log.Info("Watching data directory for changes", "debounce", w.debounce)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Stopping data directory watcher")
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			w.log.Debug("Data file changed", "path", event.Name, "op", event.Op.String())
			timer.Reset(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("Watcher error", "error", err)
		case <-timer.C:
			onChange()
		}
	}
}

// relevant filters out chmod-only events and editor temp files
func relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	return filepath.Ext(event.Name) == ".json"
}
