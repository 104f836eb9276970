package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateRejectsWhenOpen(t *testing.T) {
	t.Parallel()

	b := NewBreaker(1, time.Minute)
	g := NewGate("market data", b, NewLimiter(10, time.Minute))

	b.RecordFailure()

	calls := 0
	err := g.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, ErrOpen)
	assert.Equal(t, 0, calls)
}

func TestGateRecordsSuccess(t *testing.T) {
	t.Parallel()

	b := NewBreaker(2, time.Minute)
	l := NewLimiter(10, time.Minute)
	g := NewGate("trade placement", b, l)

	b.RecordFailure()

	err := g.Do(context.Background(), func(context.Context) error { return nil })
	require.NoError(t, err)

	assert.Equal(t, 0, b.Failures())
	assert.Equal(t, StateClosed, b.State())
}

func TestGateWrapsFailure(t *testing.T) {
	t.Parallel()

	b := NewBreaker(5, time.Minute)
	g := NewGate("signal validation", b, NewLimiter(10, time.Minute))

	cause := errors.New("upstream 503")
	err := g.Do(context.Background(), func(context.Context) error { return cause })

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "signal validation", opErr.Op)
	assert.Equal(t, 1, b.Failures())
}

func TestGateWaitsOutRateLimit(t *testing.T) {
	t.Parallel()

	l := NewLimiter(1, 30*time.Millisecond)
	g := NewGate("notification", NewBreaker(5, time.Minute), l)

	require.NoError(t, g.Do(context.Background(), func(context.Context) error { return nil }))

	start := time.Now()
	require.NoError(t, g.Do(context.Background(), func(context.Context) error { return nil }))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestGateCancelledWaitLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	b := NewBreaker(5, time.Minute)
	l := NewLimiter(1, time.Hour)
	g := NewGate("market data", b, l)

	require.NoError(t, g.Do(context.Background(), func(context.Context) error { return nil }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	calls := 0
	err := g.Do(ctx, func(context.Context) error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, ErrAborted)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, calls)

	// Neither success nor failure recorded, and no extra request slot burned.
	assert.Equal(t, 0, b.Failures())
	assert.Equal(t, StateClosed, b.State())
	assert.False(t, l.CanProceed())
}

func TestGatesAreIndependent(t *testing.T) {
	t.Parallel()

	marketBreaker := NewBreaker(1, time.Minute)
	market := NewGate("market data", marketBreaker, NewLimiter(10, time.Minute))
	notify := NewGate("notification", NewBreaker(1, time.Minute), NewLimiter(10, time.Minute))

	marketBreaker.RecordFailure()

	assert.ErrorIs(t, market.Do(context.Background(), func(context.Context) error { return nil }), ErrOpen)
	assert.NoError(t, notify.Do(context.Background(), func(context.Context) error { return nil }))
}
