package scene

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zeusync/spatial/internal/core/observability/log"
)

const defaultDebounce = 150 * time.Millisecond

// Watcher reloads a scene file when it changes on disk. Editors often
// replace files by rename, so the parent directory is watched and events
// are filtered by name. Bursts are collapsed by a debounce timer.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	log      log.Log
	onChange func(*Scene)

	mu        sync.Mutex
	timer     *time.Timer
	closed    bool
	closeOnce sync.Once
}

// NewWatcher watches path. onChange receives every successfully parsed
// version; invalid versions are logged and skipped. onChange runs on a timer
// goroutine.
func NewWatcher(path string, logger log.Log, onChange func(*Scene)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Nop()
	}
	w := &Watcher{
		watcher:  fw,
		path:     filepath.Clean(path),
		debounce: defaultDebounce,
		log:      logger.Named("scene"),
		onChange: onChange,
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// Run forwards file events until ctx ends or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.isSceneEvent(event) {
				w.schedule()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("scene watcher error", log.Error(err))
		}
	}
}

func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		w.mu.Unlock()
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) isSceneEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer == nil {
		w.timer = time.AfterFunc(w.debounce, w.fire)
	} else {
		w.timer.Reset(w.debounce)
	}
}

func (w *Watcher) fire() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.timer = nil
	w.mu.Unlock()

	sc, err := Load(w.path)
	if err != nil {
		w.log.Warn("scene reload skipped", log.String("path", w.path), log.Error(err))
		return
	}
	w.log.Info("scene reloaded", log.String("path", w.path), log.Int("objects", len(sc.Objects)))
	if w.onChange != nil {
		w.onChange(sc)
	}
}
