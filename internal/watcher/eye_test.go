package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	werrors "github.com/opentangerine/watch/internal/errors"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.PollTimeout = 50 * time.Millisecond
	opts.RetryInterval = 20 * time.Millisecond
	return opts
}

// pollFor polls eye until match returns true for a change or timeout passes.
func pollFor(t *testing.T, eye *Eye, timeout time.Duration, match func(Change) bool) (Change, bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		changes, err := eye.Poll(context.Background())
		require.NoError(t, err)
		for _, c := range changes {
			if match(c) {
				return c, true
			}
		}
	}
	return Change{}, false
}

func named(name string) func(Change) bool {
	return func(c Change) bool { return c.Filename == name }
}

func TestEye_CloseBeforeRegister(t *testing.T) {
	// Given: a fresh eye
	eye := NewEye(testOptions())

	// Then: closing it (twice) is safe
	require.NoError(t, eye.Close())
	require.NoError(t, eye.Close())
}

func TestEye_RegisterAfterClose(t *testing.T) {
	eye := NewEye(testOptions())
	require.NoError(t, eye.Close())

	err := eye.Register(context.Background(), t.TempDir())

	assert.Equal(t, werrors.ErrCodeWatchClosed, werrors.GetCode(err))
}

func TestEye_PollBeforeRegister(t *testing.T) {
	eye := NewEye(testOptions())
	defer func() { _ = eye.Close() }()

	_, err := eye.Poll(context.Background())

	assert.Equal(t, werrors.ErrCodeWatchClosed, werrors.GetCode(err))
}

func TestEye_Register_ExistingTree(t *testing.T) {
	// Given: a root with nested directories
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "c"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "file.txt"), []byte("x"), 0o644))

	eye := NewEye(testOptions())
	defer func() { _ = eye.Close() }()

	// When: registering
	err := eye.Register(context.Background(), root)

	// Then: every directory, root included, is registered
	require.NoError(t, err)
	assert.Equal(t, 4, eye.Dirs())
	assert.Equal(t, root, eye.Root())
	assert.False(t, eye.RootLost())
}

func TestEye_Register_WaitsForRoot(t *testing.T) {
	// Given: a root that does not exist yet
	root := filepath.Join(t.TempDir(), "content")
	eye := NewEye(testOptions())
	defer func() { _ = eye.Close() }()

	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = os.MkdirAll(root, 0o755)
	}()

	// When: registering
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := eye.Register(ctx, root)

	// Then: registration completes once the directory appears
	require.NoError(t, err)
	assert.Equal(t, 1, eye.Dirs())
}

func TestEye_Register_CancelledWhileWaiting(t *testing.T) {
	// Given: a root that never appears
	root := filepath.Join(t.TempDir(), "never")
	eye := NewEye(testOptions())
	defer func() { _ = eye.Close() }()

	// When: the context expires during the wait
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := eye.Register(ctx, root)

	// Then: cancellation is propagated as-is
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEye_Register_FileRoot(t *testing.T) {
	// Given: a root that is a regular file
	file := filepath.Join(t.TempDir(), "plain.file")
	require.NoError(t, os.WriteFile(file, []byte("1"), 0o644))

	eye := NewEye(testOptions())
	defer func() { _ = eye.Close() }()

	// When: registering it
	err := eye.Register(context.Background(), file)

	// Then: it is rejected as a fatal IO error
	require.Error(t, err)
	assert.Equal(t, werrors.ErrCodeNotDirectory, werrors.GetCode(err))
	assert.True(t, werrors.IsFatal(err))
}

func TestEye_Register_PermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	// Given: a subdirectory that cannot be read
	root := t.TempDir()
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Mkdir(locked, 0o755))
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	eye := NewEye(testOptions())
	defer func() { _ = eye.Close() }()

	// When: registering the tree
	err := eye.Register(context.Background(), root)

	// Then: registration fails with a permission error
	require.Error(t, err)
	assert.Equal(t, werrors.ErrCodePermissionDenied, werrors.GetCode(err))
}

func TestEye_Poll_TimeoutIsEmpty(t *testing.T) {
	// Given: a registered, quiet root
	eye := NewEye(testOptions())
	defer func() { _ = eye.Close() }()
	require.NoError(t, eye.Register(context.Background(), t.TempDir()))

	// When: polling
	start := time.Now()
	changes, err := eye.Poll(context.Background())

	// Then: the timeout yields nothing and no error
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestEye_Poll_Cancelled(t *testing.T) {
	eye := NewEye(testOptions())
	defer func() { _ = eye.Close() }()
	require.NoError(t, eye.Register(context.Background(), t.TempDir()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := eye.Poll(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestEye_Poll_FileModification(t *testing.T) {
	// Given: a root containing a file
	root := t.TempDir()
	file := filepath.Join(root, "sample.file")
	require.NoError(t, os.WriteFile(file, []byte("1"), 0o644))

	eye := NewEye(testOptions())
	defer func() { _ = eye.Close() }()
	require.NoError(t, eye.Register(context.Background(), root))

	// When: the file is overwritten
	require.NoError(t, os.WriteFile(file, []byte("2"), 0o644))

	// Then: a change naming the file arrives
	change, ok := pollFor(t, eye, 3*time.Second, named("sample.file"))
	require.True(t, ok, "expected change for sample.file")
	assert.Equal(t, OpModify, change.Op)
	assert.Equal(t, file, change.Path)
}

func TestEye_Poll_NestedDirectory(t *testing.T) {
	// Given: a nested directory present at registration
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	eye := NewEye(testOptions())
	defer func() { _ = eye.Close() }()
	require.NoError(t, eye.Register(context.Background(), root))

	// When: a file is created deep in the tree
	require.NoError(t, os.WriteFile(filepath.Join(nested, "deep.file"), []byte("x"), 0o644))

	// Then: the change carries only the base name
	change, ok := pollFor(t, eye, 3*time.Second, named("deep.file"))
	require.True(t, ok)
	assert.Equal(t, OpCreate, change.Op)
}

func TestEye_Poll_FollowsNewDirectories(t *testing.T) {
	// Given: a registered root
	root := t.TempDir()
	eye := NewEye(testOptions())
	defer func() { _ = eye.Close() }()
	require.NoError(t, eye.Register(context.Background(), root))

	// When: a subdirectory is created and observed
	sub := filepath.Join(root, "later")
	require.NoError(t, os.Mkdir(sub, 0o755))
	_, ok := pollFor(t, eye, 3*time.Second, named("later"))
	require.True(t, ok)
	assert.Equal(t, 2, eye.Dirs())

	// Then: files inside it are reported too
	require.NoError(t, os.WriteFile(filepath.Join(sub, "inner.file"), []byte("x"), 0o644))
	_, ok = pollFor(t, eye, 3*time.Second, named("inner.file"))
	assert.True(t, ok)
}

func TestEye_Poll_RootRemoved(t *testing.T) {
	// Given: a registered root inside a parent directory
	root := filepath.Join(t.TempDir(), "watched")
	require.NoError(t, os.Mkdir(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sample.file"), []byte("1"), 0o644))

	eye := NewEye(testOptions())
	defer func() { _ = eye.Close() }()
	require.NoError(t, eye.Register(context.Background(), root))

	// When: the root is deleted
	require.NoError(t, os.RemoveAll(root))

	// Then: the eye reports the root as lost, and never names it as a change
	deadline := time.Now().Add(3 * time.Second)
	for !eye.RootLost() && time.Now().Before(deadline) {
		changes, err := eye.Poll(context.Background())
		require.NoError(t, err)
		for _, c := range changes {
			assert.NotEqual(t, "watched", c.Filename)
		}
	}
	assert.True(t, eye.RootLost())
}

func TestEye_Collect_CollapsesConsecutiveDuplicates(t *testing.T) {
	// Given: an eye with a known root
	eye := NewEye(testOptions())
	eye.root = "/r"

	// When: the same write is reported twice in a row, then another entry
	var batch []Change
	batch = eye.collect(nil, batch, fsnotify.Event{Name: "/r/a", Op: fsnotify.Write})
	batch = eye.collect(nil, batch, fsnotify.Event{Name: "/r/a", Op: fsnotify.Write})
	batch = eye.collect(nil, batch, fsnotify.Event{Name: "/r/b", Op: fsnotify.Write})
	batch = eye.collect(nil, batch, fsnotify.Event{Name: "/r/a", Op: fsnotify.Write})
	batch = eye.collect(nil, batch, fsnotify.Event{Name: "/r/a", Op: fsnotify.Chmod})

	// Then: only consecutive duplicates collapse and order is preserved
	require.Len(t, batch, 3)
	assert.Equal(t, "a", batch[0].Filename)
	assert.Equal(t, "b", batch[1].Filename)
	assert.Equal(t, "a", batch[2].Filename)
}
