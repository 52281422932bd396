package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opentangerine/watch/internal/await"
	werrors "github.com/opentangerine/watch/internal/errors"
	"github.com/opentangerine/watch/internal/gate"
	"github.com/opentangerine/watch/internal/watcher"
)

// Change is one observed modification under the root.
type Change = watcher.Change

// Operation is the kind of a Change.
type Operation = watcher.Operation

// Operation kinds.
const (
	OpCreate = watcher.OpCreate
	OpModify = watcher.OpModify
	OpDelete = watcher.OpDelete
)

// Listener receives changes on the watch goroutine.
// A slow listener delays delivery of later changes.
type Listener func(Change)

// ErrorHandler receives failures from the watch goroutine.
type ErrorHandler func(error)

// State is the lifecycle position of a Watch.
type State int32

const (
	StateCreated State = iota
	StateRunning
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Watch observes one directory tree.
// All methods are safe for concurrent use.
type Watch struct {
	root   string
	opts   options
	logger *slog.Logger

	// newSession builds the native registration. Replaced in tests.
	newSession func(watcher.Options) watcher.Session

	listener  atomic.Pointer[Listener]
	onError   atomic.Pointer[ErrorHandler]
	stopped   atomic.Bool
	delivered atomic.Int64

	mu       sync.Mutex
	state    State
	cancel   context.CancelFunc
	failure  error
	closeErr error

	ready    *gate.Gate
	disposed *gate.Gate
	closed   *gate.Gate
}

// New creates a Watch for root. Nothing happens until Start.
// root need not exist yet.
func New(root string, opts ...Option) *Watch {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	w := &Watch{
		root:   root,
		opts:   o,
		logger: o.logger.With(slog.String("root", root)),
		newSession: func(eo watcher.Options) watcher.Session {
			return watcher.NewEye(eo)
		},
		ready:    gate.New(),
		disposed: gate.New(),
		closed:   gate.New(),
	}
	if o.listener != nil {
		w.Listen(o.listener)
	}
	if o.errorHandler != nil {
		w.OnError(o.errorHandler)
	}
	return w
}

// Root returns the absolute watched path.
func (w *Watch) Root() string {
	return w.root
}

// State returns the current lifecycle state.
func (w *Watch) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Err returns the failure that ended the watch goroutine, if any.
func (w *Watch) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failure
}

// Delivered returns the number of changes handed to a listener.
func (w *Watch) Delivered() int64 {
	return w.delivered.Load()
}

// Start spawns the watch goroutine and returns immediately.
// Use Await to block until registration completes.
func (w *Watch) Start() (*Watch, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case StateRunning:
		return w, werrors.UsageError(werrors.ErrCodeAlreadyStarted, "watch already started").
			WithDetail("root", w.root)
	case StateStopped:
		return w, werrors.UsageError(werrors.ErrCodeClosed, "watch is closed").
			WithDetail("root", w.root)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.state = StateRunning

	w.logger.Debug("starting watch")
	go w.run(ctx)
	return w, nil
}

// Await blocks until the root is registered, or the await timeout passes.
// If registration already failed, that failure is returned at once.
func (w *Watch) Await() (*Watch, error) {
	if w.State() == StateCreated {
		return w, werrors.UsageError(werrors.ErrCodeNotStarted, "watch not started").
			WithDetail("root", w.root)
	}
	if w.ready.Fired() {
		return w, nil
	}

	timer := time.NewTimer(w.opts.awaitTimeout)
	defer timer.Stop()

	select {
	case <-w.ready.Done():
		return w, nil
	case <-w.disposed.Done():
		if w.ready.Fired() {
			return w, nil
		}
		if err := w.Err(); err != nil {
			return w, err
		}
		return w, werrors.UsageError(werrors.ErrCodeClosed, "watch closed before registration completed").
			WithDetail("root", w.root)
	case <-timer.C:
		return w, werrors.TimeoutError(werrors.ErrCodeAwaitTimeout, "watch registration did not complete in time").
			WithDetail("root", w.root).
			WithDetail("timeout", w.opts.awaitTimeout.String()).
			WithSuggestion("Check that the directory exists or will be created")
	}
}

// Listen replaces the listener. Passing nil drops changes.
// The swap takes effect between deliveries.
func (w *Watch) Listen(fn Listener) (*Watch, error) {
	if w.State() == StateStopped {
		return w, werrors.UsageError(werrors.ErrCodeClosed, "watch is closed").
			WithDetail("root", w.root)
	}
	if fn == nil {
		w.listener.Store(nil)
	} else {
		w.listener.Store(&fn)
	}
	return w, nil
}

// OnError replaces the error handler. Passing nil restores logging only.
func (w *Watch) OnError(fn ErrorHandler) *Watch {
	if fn == nil {
		w.onError.Store(nil)
	} else {
		w.onError.Store(&fn)
	}
	return w
}

// Close stops the watch goroutine and waits for it to release the native
// handle. It is idempotent: later calls wait for the first and return its
// result. Once Close returns without error the listener is not called again.
func (w *Watch) Close() error {
	w.mu.Lock()
	switch w.state {
	case StateCreated:
		w.state = StateStopped
		w.mu.Unlock()
		w.stopped.Store(true)
		w.disposed.Fire()
		w.closed.Fire()
		return nil
	case StateStopped:
		w.mu.Unlock()
		<-w.closed.Done()
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.closeErr
	}
	w.state = StateStopped
	cancel := w.cancel
	w.mu.Unlock()

	w.stopped.Store(true)
	cancel()

	var err error
	timeout := w.opts.effectiveCloseTimeout()
	if !w.disposed.Wait(timeout) {
		err = werrors.TimeoutError(werrors.ErrCodeCloseTimeout, "watch goroutine did not stop in time").
			WithDetail("root", w.root).
			WithDetail("timeout", timeout.String())
		w.logger.Error("watch close timed out", werrors.LogAttrs(err)...)
	} else {
		w.logger.Debug("watch closed", slog.Int64("delivered", w.delivered.Load()))
	}

	w.mu.Lock()
	w.closeErr = err
	w.mu.Unlock()
	w.closed.Fire()
	return err
}

// run is the watch goroutine.
func (w *Watch) run(ctx context.Context) {
	defer w.disposed.Fire()

	session := w.newSession(w.opts.eyeOptions())
	defer func() {
		if err := session.Close(); err != nil {
			w.logger.Warn("failed to release native watch", werrors.LogAttrs(err)...)
		}
	}()

	if !w.register(ctx, session) {
		return
	}
	w.ready.Fire()
	w.logger.Info("watch ready")

	lostLogged := false
	for ctx.Err() == nil {
		changes, err := session.Poll(ctx)
		for _, c := range changes {
			if ctx.Err() != nil {
				return
			}
			w.dispatch(c)
		}

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if werrors.GetCode(err) == werrors.ErrCodeWatchClosed {
				w.fail(err)
				return
			}
			w.report(err)
			if await.Sleep(ctx) != nil {
				return
			}
			continue
		}

		if !session.RootLost() {
			continue
		}
		if !w.opts.recovery {
			if !lostLogged {
				w.logger.Warn("watch root removed, recovery disabled")
				lostLogged = true
			}
			continue
		}

		w.logger.Info("watch root removed, waiting to re-register")
		if err := session.Close(); err != nil {
			w.logger.Warn("failed to release native watch", werrors.LogAttrs(err)...)
		}
		session = w.newSession(w.opts.eyeOptions())
		if !w.register(ctx, session) {
			return
		}
		w.logger.Info("watch re-registered")
	}
}

// register runs session.Register, reporting failure.
// Returns false if the goroutine should exit.
func (w *Watch) register(ctx context.Context, session watcher.Session) bool {
	err := session.Register(ctx, w.root)
	if err == nil {
		return true
	}
	if ctx.Err() != nil {
		return false
	}
	w.fail(err)
	return false
}

// dispatch hands c to the current listener unless the watch is stopping.
func (w *Watch) dispatch(c Change) {
	if w.stopped.Load() {
		return
	}
	fn := w.listener.Load()
	if fn == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			w.report(werrors.New(werrors.ErrCodeListenerPanic, fmt.Sprintf("listener panicked: %v", r), nil).
				WithDetail("root", w.root).
				WithDetail("change", c.String()))
		}
	}()
	(*fn)(c)
	w.delivered.Add(1)
}

// fail records err as the reason the goroutine exits and reports it.
func (w *Watch) fail(err error) {
	w.mu.Lock()
	if w.failure == nil {
		w.failure = err
	}
	w.mu.Unlock()

	w.logger.Error("watch failed", werrors.LogAttrs(err)...)
	w.handle(err)
}

// report passes a recoverable err to the error handler.
func (w *Watch) report(err error) {
	w.logger.Warn("watch error", werrors.LogAttrs(err)...)
	w.handle(err)
}

func (w *Watch) handle(err error) {
	fn := w.onError.Load()
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("error handler panicked", slog.String("panic", fmt.Sprint(r)))
		}
	}()
	(*fn)(err)
}
