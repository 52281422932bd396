package await

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicker_ZeroValueUsesMoment(t *testing.T) {
	assert.Equal(t, Moment, Ticker{}.interval())
	assert.Equal(t, Moment, Ticker{Interval: -1}.interval())
	assert.Equal(t, 10*time.Millisecond, Ticker{Interval: 10 * time.Millisecond}.interval())
}

func TestTicker_Sleep_WaitsOneTick(t *testing.T) {
	// Given: a short ticker
	tk := Ticker{Interval: 20 * time.Millisecond}

	// When: sleeping
	start := time.Now()
	err := tk.Sleep(context.Background())

	// Then: at least one interval elapsed
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestTicker_Sleep_Cancelled(t *testing.T) {
	// Given: a cancelled context
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// When: sleeping a long tick
	start := time.Now()
	err := Ticker{Interval: time.Hour}.Sleep(ctx)

	// Then: cancellation is returned immediately
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestTicker_Until_AlreadyTrue(t *testing.T) {
	// Given: a condition that is already satisfied
	start := time.Now()

	// When: waiting on it with a long tick
	err := Ticker{Interval: time.Hour}.Until(context.Background(), func() bool { return true })

	// Then: it returns without sleeping
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestTicker_Until_BecomesTrue(t *testing.T) {
	// Given: a condition that flips after a few checks
	var checks atomic.Int32
	cond := func() bool { return checks.Add(1) >= 3 }

	// When: waiting with a short tick
	err := Ticker{Interval: 5 * time.Millisecond}.Until(context.Background(), cond)

	// Then: it was re-checked until it held
	require.NoError(t, err)
	assert.Equal(t, int32(3), checks.Load())
}

func TestTicker_Until_CancellationPropagates(t *testing.T) {
	// Given: a condition that never holds
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// When: waiting on it
	err := Ticker{Interval: 10 * time.Millisecond}.Until(ctx, func() bool { return false })

	// Then: the deadline is reported, not swallowed
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUntil_DefaultTicker(t *testing.T) {
	var ready atomic.Bool
	go func() {
		time.Sleep(50 * time.Millisecond)
		ready.Store(true)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, Until(ctx, ready.Load))
}
