package modelwatch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes the loaded model file on disk. The engine never
// reloads a model mid-session, so all the watcher does is flip a
// degraded flag when the file is removed or replaced; the health intent
// reports it so an operator knows a restart is needed.
type Watcher struct {
	path     string
	debounce time.Duration
	fsw      *fsnotify.Watcher
	logger   *slog.Logger

	mu       sync.RWMutex
	degraded bool
	reason   string

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New creates a watcher for the given model file. The file's parent
// directory is watched; per-file watches miss atomic replaces.
func New(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", filepath.Dir(path), err)
	}

	return &Watcher{
		path:     path,
		debounce: 100 * time.Millisecond,
		fsw:      fsw,
		logger:   slog.Default().With("component", "modelwatch"),
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *Watcher) run(ctx context.Context) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
		w.fsw.Close()
	}()

	var pending fsnotify.Event
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Name != w.path {
				continue
			}
			// Debounce: editors and downloaders fire event bursts.
			pending = ev
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.evaluate(pending)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// evaluate re-checks the model file after a debounced event.
func (w *Watcher) evaluate(ev fsnotify.Event) {
	if _, err := os.Stat(w.path); err != nil {
		w.setDegraded(fmt.Sprintf("model file missing (%s)", ev.Op))
		return
	}
	switch {
	case ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create):
		w.setDegraded("model file changed on disk since load")
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		w.setDegraded(fmt.Sprintf("model file missing (%s)", ev.Op))
	}
}

func (w *Watcher) setDegraded(reason string) {
	w.mu.Lock()
	changed := !w.degraded
	w.degraded = true
	w.reason = reason
	w.mu.Unlock()

	if changed {
		w.logger.Warn("model degraded, restart required", "path", w.path, "reason", reason)
	}
}

// Status reports whether the loaded model no longer matches the file on
// disk, and why.
func (w *Watcher) Status() (degraded bool, reason string) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.degraded, w.reason
}

// Stop ends the watch.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}
