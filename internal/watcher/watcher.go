// Package watcher reports saves of a single passage file with fsnotify and debouncing.
package watcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// ErrRetry, returned (or wrapped) by the change callback, asks the watcher
// to report the same content again after another debounce window.
var ErrRetry = errors.New("watcher: retry change")

// Watcher watches one file and invokes a callback after it settles.
//
// The parent directory is watched rather than the file itself, so saves that
// replace the file (write to temp, rename over) are seen as well. Callbacks
// fire only when the content differs from the last accepted content; a
// change counts as accepted once the callback returns nil.
type Watcher struct {
	path     string
	onChange func(path string) error
	debounce time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	timer    *time.Timer
	lastSum  [sha256.Size]byte
	haveSum  bool
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets how long the file must stay quiet before onChange runs.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher for path. onChange is called with the
// absolute path after each settled change.
func NewWatcher(path string, onChange func(path string) error, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:     filepath.Clean(abs),
		onChange: onChange,
		debounce: defaultDebounce,
		logger:   zap.NewNop(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Prime records the current content as already reported, so only later
// changes trigger onChange.
func (w *Watcher) Prime() error {
	sum, err := fileSum(w.path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.lastSum, w.haveSum = sum, true
	w.mu.Unlock()
	return nil
}

// Start starts the watcher. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	dir := filepath.Dir(w.path)
	if info, err := os.Stat(dir); err != nil {
		return err
	} else if !info.IsDir() {
		return errors.New("watcher: parent of " + w.path + " is not a directory")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return err
	}
	w.watcher = fw
	w.started = true
	w.logger.Debug("watcher starting", zap.String("path", w.path))
	go w.run(ctx, fw)
	return nil
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.path {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

// fire runs after the debounce window and reports the file if its content
// differs from the last accepted content.
func (w *Watcher) fire() {
	sum, err := fileSum(w.path)
	if err != nil {
		w.logger.Debug("watcher read failed", zap.String("path", w.path), zap.Error(err))
		return
	}
	w.mu.Lock()
	if !w.started || (w.haveSum && sum == w.lastSum) {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	w.logger.Debug("watcher file changed (debounced)", zap.String("path", w.path))
	if w.onChange != nil {
		if err := w.onChange(w.path); err != nil {
			w.logger.Debug("watcher change not accepted", zap.String("path", w.path), zap.Error(err))
			if errors.Is(err, ErrRetry) {
				w.rearm()
			}
			return
		}
	}
	w.mu.Lock()
	w.lastSum, w.haveSum = sum, true
	w.mu.Unlock()
}

// rearm schedules another fire after the debounce window.
func (w *Watcher) rearm() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func fileSum(path string) ([sha256.Size]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return [sha256.Size]byte{}, err
	}
	return sha256.Sum256(data), nil
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	_ = w.watcher.Close()
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
