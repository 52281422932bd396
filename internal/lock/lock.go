// Package lock keeps two tangerine-watch processes from watching the same
// root. Locks live outside the watched tree so taking one never produces a
// change event.
package lock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"

	werrors "github.com/opentangerine/watch/internal/errors"
)

// DefaultRetryDelay is the interval between attempts in Acquire.
const DefaultRetryDelay = 100 * time.Millisecond

// DefaultDir returns the default lock directory (~/.tangerine-watch/locks/).
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".tangerine-watch", "locks")
	}
	return filepath.Join(home, ".tangerine-watch", "locks")
}

// RootLock is an exclusive cross-process lock on one watch root,
// backed by gofrs/flock.
type RootLock struct {
	root   string
	path   string
	flock  *flock.Flock
	locked bool
}

// ForRoot returns the lock for root, stored in dir.
// The lock file name is derived from the absolute root path.
func ForRoot(dir, root string) *RootLock {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	sum := sha256.Sum256([]byte(root))
	path := filepath.Join(dir, hex.EncodeToString(sum[:8])+".lock")
	return &RootLock{
		root:  root,
		path:  path,
		flock: flock.New(path),
	}
}

// TryAcquire takes the lock without blocking.
// A lock held by another process is reported as ErrCodeLockHeld.
func (l *RootLock) TryAcquire() error {
	if err := l.ensureDir(); err != nil {
		return err
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return werrors.New(werrors.ErrCodeInternal, "acquire root lock", err).
			WithDetail("lock", l.path)
	}
	if !acquired {
		return l.heldError()
	}
	return l.acquired()
}

// Acquire blocks until the lock is taken or ctx is done.
func (l *RootLock) Acquire(ctx context.Context) error {
	if err := l.ensureDir(); err != nil {
		return err
	}

	acquired, err := l.flock.TryLockContext(ctx, DefaultRetryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return l.heldError()
		}
		return werrors.New(werrors.ErrCodeInternal, "acquire root lock", err).
			WithDetail("lock", l.path)
	}
	if !acquired {
		return l.heldError()
	}
	return l.acquired()
}

// Release drops the lock. Safe to call when not held.
func (l *RootLock) Release() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Holder returns the PID recorded by the current holder, or 0 if unknown.
func (l *RootLock) Holder() int {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0
	}
	pid, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0
	}
	return pid
}

// Path returns the path to the lock file.
func (l *RootLock) Path() string {
	return l.path
}

// Root returns the absolute root the lock guards.
func (l *RootLock) Root() string {
	return l.root
}

// IsLocked returns true if this process holds the lock.
func (l *RootLock) IsLocked() bool {
	return l.locked
}

func (l *RootLock) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return werrors.New(werrors.ErrCodeInternal, "create lock directory", err).
			WithDetail("lock", l.path)
	}
	return nil
}

// acquired records this process as the holder.
func (l *RootLock) acquired() error {
	l.locked = true
	record := fmt.Sprintf("%d %s\n", os.Getpid(), l.root)
	if err := os.WriteFile(l.path, []byte(record), 0o644); err != nil {
		_ = l.Release()
		return werrors.New(werrors.ErrCodeInternal, "write root lock", err).
			WithDetail("lock", l.path)
	}
	return nil
}

func (l *RootLock) heldError() *werrors.WatchError {
	err := werrors.New(werrors.ErrCodeLockHeld, "another tangerine-watch is watching this root", nil).
		WithDetail("root", l.root).
		WithDetail("lock", l.path).
		WithSuggestion("Stop the other process, or pass --no-lock")
	if pid := l.Holder(); pid > 0 {
		err = err.WithDetail("pid", strconv.Itoa(pid))
	}
	return err
}
