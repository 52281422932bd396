package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Operation represents a file system operation type.
type Operation int

const (
	// OpCreate indicates a new file or directory was created.
	OpCreate Operation = iota
	// OpModify indicates an existing file was modified.
	OpModify
	// OpDelete indicates a file or directory was deleted or moved away.
	OpDelete
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// Change names one changed filesystem entry.
type Change struct {
	// Filename is the base name of the entry. Never empty, never a path.
	Filename string

	// Op is the kind of change.
	Op Operation

	// Path is the absolute path of the entry.
	Path string
}

// String formats the change as "OP filename".
func (c Change) String() string {
	return fmt.Sprintf("%s %s", c.Op, c.Filename)
}

// newChange maps a native event to a Change.
// Chmod-only events carry no content change and are dropped.
func newChange(event fsnotify.Event) (Change, bool) {
	var op Operation
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Write):
		op = OpModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// A rename reports the old name; the new name arrives as a Create.
		op = OpDelete
	default:
		return Change{}, false
	}

	path := filepath.Clean(event.Name)
	name := filepath.Base(path)
	if name == "." || name == string(filepath.Separator) {
		return Change{}, false
	}

	return Change{Filename: name, Op: op, Path: path}, true
}

// Session is one registration against the native facility.
// Eye is the production implementation.
type Session interface {
	// Register waits for root to exist and registers its directory tree.
	Register(ctx context.Context, root string) error

	// Poll waits at most one poll timeout and returns the changes seen.
	// A timeout returns no changes and no error.
	Poll(ctx context.Context) ([]Change, error)

	// RootLost reports whether the registered root was removed or renamed.
	RootLost() bool

	// Close releases the native handle. Safe to call multiple times.
	Close() error
}

var _ Session = (*Eye)(nil)

// Options configures an Eye.
type Options struct {
	// PollTimeout bounds a single Poll call.
	// Default: 250ms
	PollTimeout time.Duration

	// RetryInterval is the tick between checks for the root to exist.
	// Default: 250ms
	RetryInterval time.Duration

	// FollowNewDirs registers directories created after Register.
	// Default: true (set by DefaultOptions)
	FollowNewDirs bool

	// MaxBatch caps the number of native events drained by one Poll.
	// Default: 1024
	MaxBatch int

	// Logger receives diagnostics. Default: slog.Default()
	Logger *slog.Logger
}

// DefaultOptions returns the default Eye options.
func DefaultOptions() Options {
	return Options{
		PollTimeout:   250 * time.Millisecond,
		RetryInterval: 250 * time.Millisecond,
		FollowNewDirs: true,
		MaxBatch:      1024,
	}
}

// Validate validates the options and returns an error if invalid.
func (o Options) Validate() error {
	if o.PollTimeout < 0 {
		return fmt.Errorf("poll timeout must be non-negative, got %s", o.PollTimeout)
	}
	if o.RetryInterval < 0 {
		return fmt.Errorf("retry interval must be non-negative, got %s", o.RetryInterval)
	}
	if o.MaxBatch < 0 {
		return fmt.Errorf("max batch must be non-negative, got %d", o.MaxBatch)
	}
	return nil
}

// WithDefaults returns options with defaults applied for zero values.
// FollowNewDirs is a plain bool and is left as given.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.PollTimeout <= 0 {
		o.PollTimeout = defaults.PollTimeout
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = defaults.RetryInterval
	}
	if o.MaxBatch <= 0 {
		o.MaxBatch = defaults.MaxBatch
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}
