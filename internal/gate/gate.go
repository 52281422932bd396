// Package gate provides a single-shot, non-resettable signal.
package gate

import (
	"context"
	"sync"
	"time"
)

// Gate is a one-way latch. It starts armed and fires exactly once.
// Any number of goroutines may observe it, before or after it fires.
type Gate struct {
	once sync.Once
	done chan struct{}
}

// New returns an armed gate.
func New() *Gate {
	return &Gate{done: make(chan struct{})}
}

// Fire marks the gate as fired. Later calls are no-ops.
func (g *Gate) Fire() {
	g.once.Do(func() { close(g.done) })
}

// Fired reports whether the gate has fired.
func (g *Gate) Fired() bool {
	select {
	case <-g.done:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed when the gate fires.
func (g *Gate) Done() <-chan struct{} {
	return g.done
}

// Wait blocks until the gate fires or timeout elapses.
// Returns true if the gate fired.
func (g *Gate) Wait(timeout time.Duration) bool {
	if g.Fired() {
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-g.done:
		return true
	case <-timer.C:
		return false
	}
}

// WaitContext blocks until the gate fires or ctx is done.
func (g *Gate) WaitContext(ctx context.Context) error {
	select {
	case <-g.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
