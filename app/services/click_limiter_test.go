package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter() *ClickLimiterImpl {
	return NewClickLimiter(time.Hour, time.Minute, 5, 10*time.Minute)
}

func TestClickLimiterBurst(t *testing.T) {
	limiter := newTestLimiter()
	start := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	t.Run("allows up to burst max inside the window", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			assert.True(t, limiter.Allow("1.2.3.4", "abc123", start.Add(time.Duration(i)*time.Second)), "click %d should pass", i+1)
		}
	})

	t.Run("blocks the sixth click in the same window", func(t *testing.T) {
		assert.False(t, limiter.Allow("1.2.3.4", "abc123", start.Add(10*time.Second)))
	})

	t.Run("stops blocking after the burst window passes", func(t *testing.T) {
		assert.True(t, limiter.Allow("1.2.3.4", "abc123", start.Add(2*time.Minute)))
	})

	t.Run("window rolls forward with sustained clicking", func(t *testing.T) {
		limiter := newTestLimiter()

		// Five clicks 15 seconds apart stay under the cap
		for i := 0; i < 5; i++ {
			assert.True(t, limiter.Allow("9.9.9.9", "abc123", start.Add(time.Duration(i*15)*time.Second)))
		}
		// The sixth arrives 15s after the fifth; the window is measured
		// from the last counted click, not the first
		assert.False(t, limiter.Allow("9.9.9.9", "abc123", start.Add(75*time.Second)))
		// Blocked hits do not extend the window; 61s after the fifth
		// counted click the visitor passes again
		assert.True(t, limiter.Allow("9.9.9.9", "abc123", start.Add(121*time.Second)))
	})

	t.Run("other visitors are unaffected", func(t *testing.T) {
		assert.True(t, limiter.Allow("5.6.7.8", "abc123", start.Add(10*time.Second)))
	})

	t.Run("same visitor on another link is unaffected", func(t *testing.T) {
		assert.True(t, limiter.Allow("1.2.3.4", "zzz999", start.Add(10*time.Second)))
	})
}

func TestClickLimiterKeyTTL(t *testing.T) {
	limiter := newTestLimiter()
	start := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	// Exhaust the burst allowance
	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow("1.2.3.4", "abc123", start))
	}
	assert.False(t, limiter.Allow("1.2.3.4", "abc123", start.Add(time.Second)))

	// After an hour of inactivity the visitor starts a fresh window
	later := start.Add(time.Hour + time.Second)
	assert.True(t, limiter.Allow("1.2.3.4", "abc123", later))
	for i := 0; i < 4; i++ {
		assert.True(t, limiter.Allow("1.2.3.4", "abc123", later.Add(time.Second)))
	}
	assert.False(t, limiter.Allow("1.2.3.4", "abc123", later.Add(2*time.Second)))
}

func TestClickLimiterSweep(t *testing.T) {
	limiter := newTestLimiter()
	start := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	limiter.Allow("1.2.3.4", "abc123", start)
	limiter.Allow("5.6.7.8", "abc123", start.Add(30*time.Minute))
	assert.Equal(t, 2, limiter.Size())

	// Pin the clock past the first entry's TTL only
	limiter.now = func() time.Time { return start.Add(90 * time.Minute) }
	limiter.sweep()
	assert.Equal(t, 1, limiter.Size())
}

func TestClickLimiterReset(t *testing.T) {
	limiter := newTestLimiter()
	start := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	limiter.Allow("1.2.3.4", "abc123", start)
	limiter.Allow("5.6.7.8", "def456", start)
	assert.Equal(t, 2, limiter.Size())

	limiter.Reset()
	assert.Equal(t, 0, limiter.Size())
	assert.True(t, limiter.Allow("1.2.3.4", "abc123", start))
}
