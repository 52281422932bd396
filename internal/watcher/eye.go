package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/opentangerine/watch/internal/await"
	werrors "github.com/opentangerine/watch/internal/errors"
)

// Eye owns one native watch handle and the directories registered on it.
type Eye struct {
	opts   Options
	logger *slog.Logger

	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	root     string
	dirs     map[string]struct{}
	rootLost bool
	closed   bool
}

// NewEye creates an Eye. It does not touch the filesystem.
func NewEye(opts Options) *Eye {
	opts = opts.WithDefaults()
	return &Eye{
		opts:   opts,
		logger: opts.Logger,
		dirs:   make(map[string]struct{}),
	}
}

// Register creates the native handle if needed, blocks until root exists,
// then registers root and every directory below it.
//
// The wait for root has no timeout of its own; cancel ctx to abandon it.
// Failures to create the handle or register a directory are fatal IO errors.
func (e *Eye) Register(ctx context.Context, root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return werrors.New(werrors.ErrCodeInvalidInput, "resolve absolute path", err).
			WithDetail("root", root)
	}

	fsw, err := e.handle()
	if err != nil {
		return err
	}

	waitStart := time.Now()
	ticker := await.Ticker{Interval: e.opts.RetryInterval}
	if err := ticker.Until(ctx, func() bool { return exists(absRoot) }); err != nil {
		return err
	}
	if waited := time.Since(waitStart); waited >= e.opts.RetryInterval {
		e.logger.Debug("watch root appeared",
			slog.String("root", absRoot),
			slog.Duration("waited", waited))
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return registerError(absRoot, absRoot, err)
	}
	if !info.IsDir() {
		return werrors.New(werrors.ErrCodeNotDirectory, "watch root is not a directory", nil).
			WithDetail("root", absRoot)
	}

	e.mu.Lock()
	e.root = absRoot
	e.rootLost = false
	e.dirs = make(map[string]struct{})
	e.mu.Unlock()

	if err := e.addRecursive(fsw, absRoot, true); err != nil {
		return err
	}

	e.logger.Debug("registered directory tree",
		slog.String("root", absRoot),
		slog.Int("dirs", e.Dirs()))
	return nil
}

// handle returns the native watcher, creating it on first use.
func (e *Eye) handle() (*fsnotify.Watcher, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, werrors.New(werrors.ErrCodeWatchClosed, "eye is closed", nil)
	}
	if e.fsw != nil {
		return e.fsw, nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, werrors.New(werrors.ErrCodeWatchUnavailable, "create native watcher", err).
			WithSuggestion("Check the inotify limits (fs.inotify.max_user_instances)")
	}
	e.fsw = fsw
	return fsw, nil
}

// addRecursive registers dir and its subdirectories depth-first.
// When strict is false (directories appearing after Register), failures are
// logged and skipped instead of aborting.
func (e *Eye) addRecursive(fsw *fsnotify.Watcher, dir string, strict bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Entries removed mid-walk are not a registration failure
			if errors.Is(err, fs.ErrNotExist) && path != dir {
				return nil
			}
			if !strict {
				e.logger.Warn("skipping directory",
					slog.String("path", path),
					slog.String("error", err.Error()))
				return filepath.SkipDir
			}
			return registerError(e.rootPath(), path, err)
		}

		if !d.IsDir() {
			return nil
		}

		if err := fsw.Add(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) && path != dir {
				return filepath.SkipDir
			}
			if !strict {
				e.logger.Warn("failed to register new directory",
					slog.String("path", path),
					slog.String("error", err.Error()))
				return filepath.SkipDir
			}
			return registerError(e.rootPath(), path, err)
		}

		e.mu.Lock()
		e.dirs[path] = struct{}{}
		e.mu.Unlock()
		return nil
	})
}

// Poll performs one bounded wait on the native facility.
//
// Once an event arrives, everything else already queued is drained (up to
// MaxBatch native events) and returned as one batch in delivery order.
// Consecutive duplicates for the same entry within a batch are collapsed.
// A timeout returns (nil, nil).
func (e *Eye) Poll(ctx context.Context) ([]Change, error) {
	e.mu.Lock()
	fsw, closed := e.fsw, e.closed
	e.mu.Unlock()

	if closed || fsw == nil {
		return nil, werrors.New(werrors.ErrCodeWatchClosed, "eye is not registered", nil)
	}

	timer := time.NewTimer(e.opts.PollTimeout)
	defer timer.Stop()

	var batch []Change
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, nil
	case event, ok := <-fsw.Events:
		if !ok {
			return nil, closedError()
		}
		batch = e.collect(fsw, batch, event)
	case err, ok := <-fsw.Errors:
		if !ok {
			return nil, closedError()
		}
		return nil, pollError(err)
	}

	for drained := 1; drained < e.opts.MaxBatch; drained++ {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return batch, nil
			}
			batch = e.collect(fsw, batch, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return batch, nil
			}
			return batch, pollError(err)
		default:
			return batch, nil
		}
	}
	return batch, nil
}

// collect appends the change for event to batch, tracking directory
// bookkeeping along the way.
func (e *Eye) collect(fsw *fsnotify.Watcher, batch []Change, event fsnotify.Event) []Change {
	path := filepath.Clean(event.Name)
	gone := event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)

	e.mu.Lock()
	root := e.root
	_, watched := e.dirs[path]
	if gone && watched {
		delete(e.dirs, path)
	}
	if gone && path == root {
		e.rootLost = true
	}
	e.mu.Unlock()

	if gone && watched {
		// fsnotify drops removed watches itself; renamed ones would keep
		// reporting under the stale path.
		_ = fsw.Remove(path)
	}
	if gone && path == root {
		e.logger.Info("watch root removed", slog.String("root", root))
		return batch
	}

	change, ok := newChange(event)
	if !ok {
		return batch
	}

	if change.Op == OpCreate && e.opts.FollowNewDirs {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			_ = e.addRecursive(fsw, path, false)
		}
	}

	if n := len(batch); n > 0 && batch[n-1].Op == change.Op && batch[n-1].Path == change.Path {
		return batch
	}
	return append(batch, change)
}

// RootLost reports whether the registered root was removed or renamed
// since the last Register.
func (e *Eye) RootLost() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rootLost
}

// Dirs returns the number of registered directories.
func (e *Eye) Dirs() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.dirs)
}

// Root returns the absolute root given to the last Register.
func (e *Eye) Root() string {
	return e.rootPath()
}

func (e *Eye) rootPath() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.root
}

// Close releases the native handle.
// Safe to call multiple times, and before Register.
func (e *Eye) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.dirs = make(map[string]struct{})

	if e.fsw == nil {
		return nil
	}
	err := e.fsw.Close()
	e.fsw = nil
	if err != nil {
		return werrors.New(werrors.ErrCodeInternal, "close native watcher", err)
	}
	return nil
}

// exists reports whether path exists on disk.
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// registerError classifies a failure to register dir.
func registerError(root, dir string, err error) *werrors.WatchError {
	code := werrors.ErrCodeRegisterFailed
	if errors.Is(err, fs.ErrPermission) {
		code = werrors.ErrCodePermissionDenied
	}
	return werrors.New(code, fmt.Sprintf("register directory %s", dir), err).
		WithDetail("root", root).
		WithDetail("dir", dir)
}

// pollError classifies an error reported by the native facility.
func pollError(err error) *werrors.WatchError {
	if errors.Is(err, fsnotify.ErrEventOverflow) {
		return werrors.New(werrors.ErrCodeEventOverflow, "native event queue overflowed", err).
			WithSuggestion("Raise fs.inotify.max_queued_events")
	}
	return werrors.New(werrors.ErrCodePollFailed, "read native events", err)
}

func closedError() *werrors.WatchError {
	return werrors.New(werrors.ErrCodeWatchClosed, "native watcher closed", fsnotify.ErrClosed)
}
