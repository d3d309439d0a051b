package watcher

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// EventSource delivers debounced batches. FileWatcher implements it.
type EventSource interface {
	Events() <-chan []FileEvent
}

// ReloadFunc rebuilds whatever depends on the watched files.
type ReloadFunc func(ctx context.Context) error

// Reloader calls a ReloadFunc once per batch of file changes.
type Reloader struct {
	source   EventSource
	reload   ReloadFunc
	logger   *slog.Logger
	reloads  atomic.Uint64
	failures atomic.Uint64
}

// NewReloader creates a Reloader. A nil logger uses slog.Default().
func NewReloader(source EventSource, reload ReloadFunc, logger *slog.Logger) *Reloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reloader{source: source, reload: reload, logger: logger}
}

// Run reloads on every batch until ctx is cancelled or the source closes.
// A failed reload is logged and Run keeps going.
func (r *Reloader) Run(ctx context.Context) {
	events := r.source.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-events:
			if !ok {
				return
			}
			if len(batch) == 0 {
				continue
			}
			r.handle(ctx, batch)
		}
	}
}

func (r *Reloader) handle(ctx context.Context, batch []FileEvent) {
	paths := make([]string, len(batch))
	for i, e := range batch {
		paths[i] = e.Path
		if e.Operation == OpDelete {
			r.logger.Warn("watched_file_removed", slog.String("path", e.Path))
		}
	}

	start := time.Now()
	if err := r.reload(ctx); err != nil {
		r.failures.Add(1)
		r.logger.Error("reload_failed",
			slog.Any("paths", paths),
			slog.String("error", err.Error()),
		)
		return
	}

	r.reloads.Add(1)
	r.logger.Info("reload_complete",
		slog.Any("paths", paths),
		slog.Duration("duration", time.Since(start)),
	)
}

// Reloads returns the number of successful reloads.
func (r *Reloader) Reloads() uint64 {
	return r.reloads.Load()
}

// Failures returns the number of failed reloads.
func (r *Reloader) Failures() uint64 {
	return r.failures.Load()
}
