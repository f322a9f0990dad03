package observations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mecaclair/dispatch/internal/logger"
)

// Watcher triggers a callback when observation files land in the drop
// directory, so the daemon ingests reports without waiting for the
// next scheduled refresh. Events are debounced; a burst of writes
// produces one callback.
type Watcher struct {
	dir      string
	onChange func()
	debounce time.Duration
}

// NewWatcher creates a watcher over dir invoking onChange after new
// observation files appear.
func NewWatcher(dir string, onChange func()) *Watcher {
	return &Watcher{
		dir:      dir,
		onChange: onChange,
		debounce: 2 * time.Second,
	}
}

// Run watches until the context is cancelled. The directory must exist
// before the watch starts.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Debug("Watching %s for observation files", w.dir)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !strings.HasSuffix(event.Name, ".json") {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Observation watcher error: %v", err)

		case <-fire:
			timer = nil
			fire = nil
			w.onChange()
		}
	}
}
