package watcher

import "time"

// Operation is the kind of change seen on a watched file.
type Operation int

const (
	OpCreate Operation = iota // appeared, or replaced by an atomic save
	OpModify                  // contents written
	OpDelete                  // removed or renamed away
)

var opNames = [...]string{OpCreate: "CREATE", OpModify: "MODIFY", OpDelete: "DELETE"}

func (op Operation) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return "UNKNOWN"
	}
	return opNames[op]
}

// FileEvent is one change to a corpus or rules file. Path is absolute and
// cleaned.
type FileEvent struct {
	Path      string
	Operation Operation
	Timestamp time.Time
}

// Options tunes a FileWatcher. Zero fields take the DefaultOptions values.
type Options struct {
	// DebounceWindow is how long the files must stay quiet before one
	// reload batch is emitted.
	DebounceWindow time.Duration

	// PollInterval is the stat period used without fsnotify.
	PollInterval time.Duration

	// EventBufferSize is how many batches may wait for the reloader.
	EventBufferSize int

	ForcePolling bool
}

// DefaultOptions returns a 500ms debounce, 2s polling and a 16 batch buffer.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:  500 * time.Millisecond,
		PollInterval:    2 * time.Second,
		EventBufferSize: 16,
	}
}

// WithDefaults fills non-positive fields from DefaultOptions.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	o.DebounceWindow = positiveOr(o.DebounceWindow, d.DebounceWindow)
	o.PollInterval = positiveOr(o.PollInterval, d.PollInterval)
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = d.EventBufferSize
	}
	return o
}

func positiveOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
