// Package watcher re-triggers work when a single input file changes.
package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces the burst of events a single save produces.
const DefaultDebounce = 500 * time.Millisecond

// Callback is called with the watched path after it settles.
type Callback func(path string)

// Watcher watches one file. Callbacks run one at a time on the event loop,
// so a slow callback delays the next one instead of overlapping it.
type Watcher struct {
	watcher   *fsnotify.Watcher
	path      string
	debounce  time.Duration
	log       *zap.Logger
	callbacks []Callback
	mu        sync.RWMutex
	done      chan struct{}
	stopped   chan struct{}
	stopOnce  sync.Once
	started   bool
}

// New creates a watcher for path. The parent directory is what gets
// watched, since editors and copy tools often replace files by rename.
func New(path string, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  w,
		path:     abs,
		debounce: debounce,
		log:      log,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

// Path is the absolute watched path.
func (w *Watcher) Path() string {
	return w.path
}

// OnChange registers a callback for settled changes.
func (w *Watcher) OnChange(cb Callback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Start begins watching.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.path)
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New("watcher: parent of " + w.path + " is not a directory")
	}
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	w.started = true
	go w.eventLoop()
	return nil
}

// Stop stops the watcher and waits for a running callback to return.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		if w.started {
			<-w.stopped
		}
	})
	return err
}

func (w *Watcher) eventLoop() {
	defer close(w.stopped)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", zap.Error(err))
		case <-timer.C:
			if _, err := os.Stat(w.path); err != nil {
				w.log.Info("watched file is gone, waiting for it to return", zap.String("path", w.path))
				continue
			}
			w.fire()
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0
}

func (w *Watcher) fire() {
	w.mu.RLock()
	callbacks := make([]Callback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	w.log.Debug("watched file changed", zap.String("path", w.path))
	for _, cb := range callbacks {
		cb(w.path)
	}
}
