// Package watcher reloads the search engine when its input files change.
//
// A FileWatcher observes a fixed set of files (the verse corpus and the
// normalization rules). It watches their parent directories with fsnotify so
// that editors which save by rename are still seen, and falls back to stat
// polling where fsnotify cannot start. Bursts of events are coalesced by a
// Debouncer and delivered as batches.
//
// A Reloader consumes those batches and calls a reload function, typically
// search.Holder.Rebuild. A failed reload is logged and the previous engine
// keeps serving.
//
// Usage:
//
//	w, err := watcher.NewFileWatcher(watcher.DefaultOptions(), corpusPath, rulesPath)
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//	go func() { _ = w.Start(ctx) }()
//
//	r := watcher.NewReloader(w, reload, logger)
//	r.Run(ctx)
package watcher
