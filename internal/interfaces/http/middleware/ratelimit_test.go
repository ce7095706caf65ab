package middleware

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualClock struct{ t time.Time }

func (c *manualClock) Now() time.Time { return c.t }

func newTestLocalLimiter(requests int, window time.Duration, burst int) (*LocalRateLimiter, *manualClock) {
	clock := &manualClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLocalRateLimiter(requests, window, burst)
	l.now = clock.Now
	l.lastSweep = clock.t
	return l, clock
}

func TestLocalRateLimiter_LimitsPerKey(t *testing.T) {
	l, clock := newTestLocalLimiter(2, time.Minute, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "user-a")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "user-a")
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "user-b")
	assert.True(t, ok)

	clock.t = clock.t.Add(30 * time.Second)
	ok, _ = l.Allow(ctx, "user-a")
	assert.True(t, ok)
}

func TestLocalRateLimiter_EvictsIdleKeys(t *testing.T) {
	l, clock := newTestLocalLimiter(10, time.Minute, 5)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		_, _ = l.Allow(ctx, fmt.Sprintf("ip:10.0.0.%d", i))
	}
	assert.Len(t, l.limiters, 100)

	clock.t = clock.t.Add(2 * time.Minute)
	_, _ = l.Allow(ctx, "ip:10.0.1.1")
	assert.Len(t, l.limiters, 1)
}

func TestLocalRateLimiter_KeepsActiveKeys(t *testing.T) {
	l, clock := newTestLocalLimiter(1, time.Minute, 1)
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "busy")
	require.True(t, ok)
	_, _ = l.Allow(ctx, "idle")

	clock.t = clock.t.Add(40 * time.Second)
	ok, _ = l.Allow(ctx, "busy")
	assert.False(t, ok)

	clock.t = clock.t.Add(30 * time.Second)
	_, _ = l.Allow(ctx, "busy")
	assert.Contains(t, l.limiters, "busy")
	assert.NotContains(t, l.limiters, "idle")
}
