package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	dserrors "github.com/deepseeker/deepseeker/internal/errors"
)

var watchedExtensions = map[string]bool{".md": true, ".markdown": true, ".pdf": true}

// FSWatcher wraps fsnotify.Watcher, recursively watching a set of collection
// folder paths and translating fsnotify ops into Create/Modify/Remove
// FileEvents, debounced via Debouncer before being delivered on Events.
type FSWatcher struct {
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	roots     []string

	mu      sync.Mutex
	started bool
	doneCh  chan struct{}
}

// NewFSWatcher creates a watcher over the given collection folder roots,
// debouncing at DefaultDebounceWindow.
func NewFSWatcher(roots []string) (*FSWatcher, error) {
	return NewFSWatcherWithWindow(roots, DefaultDebounceWindow)
}

// NewFSWatcherWithWindow creates a watcher over the given collection folder
// roots, debouncing at the given window (e.g. from Config.DebounceWindow).
func NewFSWatcherWithWindow(roots []string, window time.Duration) (*FSWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, dserrors.WatchError("create fsnotify watcher", err)
	}

	w := &FSWatcher{
		fsw:       fsw,
		debouncer: NewDebouncer(window),
		roots:     roots,
		doneCh:    make(chan struct{}),
	}

	for _, root := range roots {
		if err := w.addRecursive(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *FSWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				return dserrors.WatchError(fmt.Sprintf("watch %s", path), err)
			}
		}
		return nil
	})
}

// Events returns the channel of debounced, dispatch-ready file events.
func (w *FSWatcher) Events() <-chan FileEvent {
	return w.debouncer.Output()
}

// Start begins translating fsnotify events until ctx is cancelled or Stop
// is called.
func (w *FSWatcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	go w.loop(ctx)
}

func (w *FSWatcher) loop(ctx context.Context) {
	defer close(w.doneCh)
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFsnotifyEvent(evt)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("watcher_error", slog.Any("err", err))
		}
	}
}

func (w *FSWatcher) handleFsnotifyEvent(evt fsnotify.Event) {
	if evt.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(evt.Name); err != nil {
				slog.Warn("watch_new_dir_failed", slog.String("path", evt.Name), slog.Any("err", err))
			}
			return
		}
	}

	if !watchedExtensions[strings.ToLower(filepath.Ext(evt.Name))] {
		return
	}

	var op Operation
	switch {
	case evt.Op&fsnotify.Remove != 0, evt.Op&fsnotify.Rename != 0:
		op = OpRemove
	case evt.Op&fsnotify.Create != 0:
		op = OpCreate
	case evt.Op&(fsnotify.Write|fsnotify.Chmod) != 0:
		op = OpModify
	default:
		return
	}

	w.debouncer.Handle(FileEvent{Path: evt.Name, Operation: op, Timestamp: time.Now()})
}

// Stop closes the underlying fsnotify watcher.
func (w *FSWatcher) Stop() error {
	return w.fsw.Close()
}
