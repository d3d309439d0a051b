package watcher

import (
	"context"
	"os"
	"sync"
	"time"
)

// PollingWatcher detects changes by stat-ing a fixed set of files.
// Used as a fallback when fsnotify is not available.
type PollingWatcher struct {
	interval time.Duration
	paths    []string
	emit     func(FileEvent)
	state    map[string]fileSnapshot
	mu       sync.Mutex
}

type fileSnapshot struct {
	exists  bool
	modTime time.Time
	size    int64
}

// NewPollingWatcher creates a poller for paths. The current state of each
// file is recorded immediately so only later changes are reported to emit.
func NewPollingWatcher(interval time.Duration, paths []string, emit func(FileEvent)) *PollingWatcher {
	p := &PollingWatcher{
		interval: interval,
		paths:    append([]string(nil), paths...),
		emit:     emit,
		state:    make(map[string]fileSnapshot, len(paths)),
	}
	for _, path := range p.paths {
		p.state[path] = snapshot(path)
	}
	return p
}

// Start polls until ctx is cancelled or stop is closed.
func (p *PollingWatcher) Start(ctx context.Context, stop <-chan struct{}) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		case <-ticker.C:
			p.detectChanges()
		}
	}
}

// detectChanges compares each file with its previous snapshot.
func (p *PollingWatcher) detectChanges() {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	for _, path := range p.paths {
		prev := p.state[path]
		cur := snapshot(path)
		p.state[path] = cur

		var op Operation
		switch {
		case !prev.exists && cur.exists:
			op = OpCreate
		case prev.exists && !cur.exists:
			op = OpDelete
		case cur.exists && (!prev.modTime.Equal(cur.modTime) || prev.size != cur.size):
			op = OpModify
		default:
			continue
		}
		p.emit(FileEvent{Path: path, Operation: op, Timestamp: now})
	}
}

func snapshot(path string) fileSnapshot {
	info, err := os.Stat(path)
	if err != nil {
		return fileSnapshot{}
	}
	return fileSnapshot{exists: true, modTime: info.ModTime(), size: info.Size()}
}
