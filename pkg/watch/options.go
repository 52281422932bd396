package watch

import (
	"log/slog"
	"time"

	"github.com/opentangerine/watch/internal/await"
	"github.com/opentangerine/watch/internal/watcher"
)

const (
	// DefaultPollInterval bounds one native poll and the root-existence tick.
	DefaultPollInterval = await.Moment

	// DefaultAwaitTimeout bounds Await.
	DefaultAwaitTimeout = 3 * time.Second

	// DefaultCloseTimeout bounds Close.
	DefaultCloseTimeout = 1 * time.Second
)

// Option configures a Watch.
type Option func(*options)

type options struct {
	pollInterval  time.Duration
	awaitTimeout  time.Duration
	closeTimeout  time.Duration
	followNewDirs bool
	recovery      bool
	logger        *slog.Logger
	listener      Listener
	errorHandler  ErrorHandler
}

func defaultOptions() options {
	return options{
		pollInterval:  DefaultPollInterval,
		awaitTimeout:  DefaultAwaitTimeout,
		closeTimeout:  DefaultCloseTimeout,
		followNewDirs: true,
		recovery:      true,
	}
}

// WithPollInterval sets how long one poll of the native facility waits, and
// how often a missing root is checked for.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithAwaitTimeout sets how long Await waits for registration.
func WithAwaitTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.awaitTimeout = d
		}
	}
}

// WithCloseTimeout sets how long Close waits for the goroutine to exit.
// It is never shorter than one poll interval plus one await.Moment.
func WithCloseTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.closeTimeout = d
		}
	}
}

// WithFollowNewDirs controls whether directories created after registration
// are watched as well. Enabled by default.
func WithFollowNewDirs(enabled bool) Option {
	return func(o *options) {
		o.followNewDirs = enabled
	}
}

// WithRecovery controls re-registration after the root is deleted.
// Enabled by default.
func WithRecovery(enabled bool) Option {
	return func(o *options) {
		o.recovery = enabled
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithListener sets the initial listener. Equivalent to calling Listen.
func WithListener(fn Listener) Option {
	return func(o *options) {
		o.listener = fn
	}
}

// WithErrorHandler sets the initial error handler. Equivalent to OnError.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// effectiveCloseTimeout floors the close bound at one shutdown-latency
// window.
func (o options) effectiveCloseTimeout() time.Duration {
	floor := o.pollInterval + await.Moment
	if o.closeTimeout < floor {
		return floor
	}
	return o.closeTimeout
}

// eyeOptions translates the watch options for a new Eye.
func (o options) eyeOptions() watcher.Options {
	opts := watcher.DefaultOptions()
	opts.PollTimeout = o.pollInterval
	opts.RetryInterval = o.pollInterval
	opts.FollowNewDirs = o.followNewDirs
	opts.Logger = o.logger
	return opts
}
