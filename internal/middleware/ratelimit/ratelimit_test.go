package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestLimiter(windowDur time.Duration, max int) *Limiter {
	l := New(Config{Window: windowDur, MaxRequests: max, Logger: zap.NewNop()})
	l.Close()
	return l
}

func TestLimiterAdmitsExactlyMaxRequests(t *testing.T) {
	l := newTestLimiter(time.Minute, 3)

	for i := 0; i < 3; i++ {
		d := l.Check("tenant-a")
		assert.True(t, d.Allowed, "request %d should be admitted", i+1)
		assert.Equal(t, 2-i, d.Remaining)
	}

	denied := l.Check("tenant-a")
	assert.False(t, denied.Allowed)
	assert.Equal(t, 0, denied.Remaining)
	assert.True(t, denied.ResetAt.After(time.Now()))
	assert.Greater(t, denied.RetryAfter(time.Now()), time.Duration(0))
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	l := newTestLimiter(time.Minute, 1)

	assert.True(t, l.Check("tenant-a").Allowed)
	assert.False(t, l.Check("tenant-a").Allowed)
	assert.True(t, l.Check("tenant-b").Allowed, "a different key has its own window")
}

func TestLimiterWindowResets(t *testing.T) {
	l := newTestLimiter(30*time.Millisecond, 1)

	assert.True(t, l.Check("tenant-a").Allowed)
	assert.False(t, l.Check("tenant-a").Allowed)

	time.Sleep(40 * time.Millisecond)

	assert.True(t, l.Check("tenant-a").Allowed, "expired window must reset")
}

func TestDecisionRetryAfterRoundsUp(t *testing.T) {
	now := time.Now()
	d := Decision{ResetAt: now.Add(1500 * time.Millisecond)}

	assert.GreaterOrEqual(t, d.RetryAfter(now), 2*time.Second)

	past := Decision{ResetAt: now.Add(-time.Second)}
	assert.Equal(t, time.Duration(0), past.RetryAfter(now))
}
