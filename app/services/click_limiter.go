package services

import (
	"context"
	"sync"
	"time"
)

// ClickLimiter throttles repeated clicks from the same visitor on the same
// tracking id. State is in-memory per instance; a restart clears it, which
// is acceptable because the limit protects click counts, not security.
type ClickLimiter interface {
	Allow(ip, trackingID string, at time.Time) bool
	Start(ctx context.Context) func()
	Size() int
	Reset()
}

type limiterEntry struct {
	lastSeen time.Time
	count    int
}

// ClickLimiterImpl implements ClickLimiter with a mutex-guarded map keyed
// by "ip_trackingID".
type ClickLimiterImpl struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry

	keyTTL        time.Duration
	burstWindow   time.Duration
	burstMax      int
	sweepInterval time.Duration

	now func() time.Time
}

func NewClickLimiter(keyTTL, burstWindow time.Duration, burstMax int, sweepInterval time.Duration) *ClickLimiterImpl {
	return &ClickLimiterImpl{
		entries:       make(map[string]*limiterEntry),
		keyTTL:        keyTTL,
		burstWindow:   burstWindow,
		burstMax:      burstMax,
		sweepInterval: sweepInterval,
		now:           time.Now,
	}
}

// Allow reports whether this click may be counted and records it. A key idle
// longer than the TTL starts a fresh window. At or beyond burstMax clicks, a
// hit within the burst window of the last counted click is blocked; counted
// clicks roll lastSeen forward, so sustained traffic keeps the key alive and
// blocked hits do not extend the window.
func (l *ClickLimiterImpl) Allow(ip, trackingID string, at time.Time) bool {
	key := ip + "_" + trackingID

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok || at.Sub(entry.lastSeen) > l.keyTTL {
		l.entries[key] = &limiterEntry{lastSeen: at, count: 1}
		return true
	}

	if at.Sub(entry.lastSeen) < l.burstWindow && entry.count >= l.burstMax {
		return false
	}

	entry.lastSeen = at
	entry.count++
	return true
}

// Start launches the background sweep that drops expired entries. The
// returned function stops the sweep.
func (l *ClickLimiterImpl) Start(ctx context.Context) func() {
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(l.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.sweep()
			}
		}
	}()

	return cancel
}

func (l *ClickLimiterImpl) sweep() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, entry := range l.entries {
		if now.Sub(entry.lastSeen) > l.keyTTL {
			delete(l.entries, key)
		}
	}
}

// Size returns the number of tracked visitor keys.
func (l *ClickLimiterImpl) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Reset drops all limiter state.
func (l *ClickLimiterImpl) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[string]*limiterEntry)
}
