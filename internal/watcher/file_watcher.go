package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch modes reported by FileWatcher.Mode.
const (
	ModeFsnotify = "fsnotify"
	ModePolling  = "polling"
)

// ErrNoPaths is returned when a FileWatcher is created without any path.
var ErrNoPaths = errors.New("watcher: no paths to watch")

// FileWatcher reports changes to a fixed set of files as debounced batches.
// fsnotify watches the parent directories and events for other files are
// discarded. If fsnotify cannot start, stat polling is used instead.
type FileWatcher struct {
	opts      Options
	targets   map[string]struct{}
	dirs      []string
	fsWatcher *fsnotify.Watcher
	poller    *PollingWatcher
	debouncer *Debouncer
	errors    chan error
	stopCh    chan struct{}
	mu        sync.RWMutex
	stopped   bool
}

// NewFileWatcher creates a watcher for paths. Empty paths are skipped;
// at least one must remain.
func NewFileWatcher(opts Options, paths ...string) (*FileWatcher, error) {
	opts = opts.WithDefaults()

	w := &FileWatcher{
		opts:      opts,
		targets:   make(map[string]struct{}),
		debouncer: NewDebouncer(opts.DebounceWindow, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
	}

	dirs := make(map[string]struct{})
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve absolute path: %w", err)
		}
		w.targets[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	if len(w.targets) == 0 {
		return nil, ErrNoPaths
	}
	for d := range dirs {
		w.dirs = append(w.dirs, d)
	}
	sort.Strings(w.dirs)

	if !opts.ForcePolling {
		if err := w.openFsnotify(); err != nil {
			slog.Warn("fsnotify unavailable, falling back to polling",
				slog.String("error", err.Error()))
		}
	}
	if w.fsWatcher == nil {
		w.poller = NewPollingWatcher(opts.PollInterval, w.Paths(), w.debouncer.Add)
	}

	return w, nil
}

func (w *FileWatcher) openFsnotify() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, d := range w.dirs {
		if err := fsw.Add(d); err != nil {
			_ = fsw.Close()
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}
	w.fsWatcher = fsw
	return nil
}

// Start delivers events until ctx is cancelled or Stop is called.
// It blocks; run it in its own goroutine.
func (w *FileWatcher) Start(ctx context.Context) error {
	if w.poller != nil {
		err := w.poller.Start(ctx, w.stopCh)
		if ctx.Err() != nil {
			_ = w.Stop()
		}
		return err
	}

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleFsnotifyEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

// handleFsnotifyEvent maps an fsnotify event on a watched file to a FileEvent.
func (w *FileWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if _, ok := w.targets[path]; !ok {
		return
	}

	var op Operation
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Write):
		op = OpModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		op = OpDelete
	default:
		return
	}

	w.debouncer.Add(FileEvent{Path: path, Operation: op, Timestamp: time.Now()})
}

func (w *FileWatcher) emitError(err error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		return
	}
	select {
	case w.errors <- err:
	default:
	}
}

// Stop releases resources and closes the Events and Errors channels.
// Safe to call multiple times.
func (w *FileWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)

	var err error
	if w.fsWatcher != nil {
		err = w.fsWatcher.Close()
	}
	w.debouncer.Stop()
	close(w.errors)
	return err
}

// Events returns the channel of debounced batches.
func (w *FileWatcher) Events() <-chan []FileEvent {
	return w.debouncer.Output()
}

// Errors returns non-fatal watcher errors.
func (w *FileWatcher) Errors() <-chan error {
	return w.errors
}

// Mode reports whether fsnotify or polling is in use.
func (w *FileWatcher) Mode() string {
	if w.fsWatcher != nil {
		return ModeFsnotify
	}
	return ModePolling
}

// Paths returns the watched files, sorted.
func (w *FileWatcher) Paths() []string {
	paths := make([]string, 0, len(w.targets))
	for p := range w.targets {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
