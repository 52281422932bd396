package watcher

import (
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperation_Constants(t *testing.T) {
	assert.NotEqual(t, OpCreate, OpModify)
	assert.NotEqual(t, OpCreate, OpDelete)
	assert.NotEqual(t, OpModify, OpDelete)
}

func TestOperation_String(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		want string
	}{
		{"create", OpCreate, "CREATE"},
		{"modify", OpModify, "MODIFY"},
		{"delete", OpDelete, "DELETE"},
		{"unknown", Operation(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.String())
		})
	}
}

func TestNewChange_MapsNativeEvents(t *testing.T) {
	tests := []struct {
		name   string
		event  fsnotify.Event
		wantOK bool
		wantOp Operation
	}{
		{"create", fsnotify.Event{Name: "/r/a.txt", Op: fsnotify.Create}, true, OpCreate},
		{"write", fsnotify.Event{Name: "/r/a.txt", Op: fsnotify.Write}, true, OpModify},
		{"remove", fsnotify.Event{Name: "/r/a.txt", Op: fsnotify.Remove}, true, OpDelete},
		{"rename", fsnotify.Event{Name: "/r/a.txt", Op: fsnotify.Rename}, true, OpDelete},
		{"create wins over chmod", fsnotify.Event{Name: "/r/a.txt", Op: fsnotify.Create | fsnotify.Chmod}, true, OpCreate},
		{"chmod only", fsnotify.Event{Name: "/r/a.txt", Op: fsnotify.Chmod}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change, ok := newChange(tt.event)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantOp, change.Op)
			assert.Equal(t, "a.txt", change.Filename)
			assert.Equal(t, "/r/a.txt", change.Path)
		})
	}
}

func TestNewChange_FilenameIsBaseName(t *testing.T) {
	// Given: an event deep in the tree
	change, ok := newChange(fsnotify.Event{Name: "/root/a/b/c/deep.file", Op: fsnotify.Write})

	// Then: only the base name is kept as the filename
	require.True(t, ok)
	assert.Equal(t, "deep.file", change.Filename)
	assert.Equal(t, "MODIFY deep.file", change.String())
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Equal(t, 250*time.Millisecond, opts.PollTimeout)
	assert.Equal(t, 250*time.Millisecond, opts.RetryInterval)
	assert.True(t, opts.FollowNewDirs)
	assert.Equal(t, 1024, opts.MaxBatch)
	assert.Nil(t, opts.Logger)
}

func TestOptions_Validate(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())
	assert.Error(t, Options{PollTimeout: -1}.Validate())
	assert.Error(t, Options{RetryInterval: -1}.Validate())
	assert.Error(t, Options{MaxBatch: -1}.Validate())
}

func TestOptions_WithDefaults(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want Options
	}{
		{
			name: "empty options get defaults",
			opts: Options{},
			want: Options{PollTimeout: 250 * time.Millisecond, RetryInterval: 250 * time.Millisecond, MaxBatch: 1024},
		},
		{
			name: "custom values preserved",
			opts: Options{PollTimeout: 50 * time.Millisecond, RetryInterval: 10 * time.Millisecond, MaxBatch: 8, FollowNewDirs: true},
			want: Options{PollTimeout: 50 * time.Millisecond, RetryInterval: 10 * time.Millisecond, MaxBatch: 8, FollowNewDirs: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.opts.WithDefaults()
			assert.Equal(t, tt.want.PollTimeout, got.PollTimeout)
			assert.Equal(t, tt.want.RetryInterval, got.RetryInterval)
			assert.Equal(t, tt.want.MaxBatch, got.MaxBatch)
			assert.Equal(t, tt.want.FollowNewDirs, got.FollowNewDirs)
			assert.NotNil(t, got.Logger)
		})
	}
}
