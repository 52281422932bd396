// Package await provides the blocking wait primitives used while a watch
// session starts up: sleeping for one tick and polling a condition until it
// becomes true.
package await

import (
	"context"
	"time"
)

// Moment is the default tick between condition checks.
const Moment = 250 * time.Millisecond

// Ticker waits in fixed steps of Interval.
// The zero value uses Moment.
type Ticker struct {
	Interval time.Duration
}

// interval returns the configured tick, falling back to Moment.
func (t Ticker) interval() time.Duration {
	if t.Interval <= 0 {
		return Moment
	}
	return t.Interval
}

// Sleep suspends the caller for one tick.
// Returns ctx.Err() if the context is cancelled first.
func (t Ticker) Sleep(ctx context.Context) error {
	timer := time.NewTimer(t.interval())
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Until blocks until cond returns true, checking it once per tick.
// The condition is checked immediately before the first sleep.
// There is no timeout; only cancellation of ctx ends the wait early,
// in which case ctx.Err() is returned.
func (t Ticker) Until(ctx context.Context, cond func() bool) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if cond() {
			return nil
		}
		if err := t.Sleep(ctx); err != nil {
			return err
		}
	}
}

// Sleep suspends the caller for one Moment.
func Sleep(ctx context.Context) error {
	return Ticker{}.Sleep(ctx)
}

// Until blocks until cond returns true, checking it every Moment.
func Until(ctx context.Context, cond func() bool) error {
	return Ticker{}.Until(ctx, cond)
}
