package resilience

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/lookatitude/orchestrator-core/pkg/orcherr"
)

// RateLimiter enforces a request cap per (operation, identity). Each key
// gets its own token-bucket limiter (golang.org/x/time/rate) refilling at
// max/window and bursting up to max. This is not an exact sliding window:
// a full burst followed by the refill can admit up to 2*max calls within a
// single window length.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	entries map[string]*limiterEntry
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter constructs a limiter admitting at most max requests per
// window, per key.
func NewRateLimiter(window time.Duration, max int) *RateLimiter {
	return &RateLimiter{
		window:  window,
		max:     max,
		entries: make(map[string]*limiterEntry),
	}
}

func key(operation, identity string) string { return operation + "\x00" + identity }

// Allow reports whether a call for (operation, identity) is admitted right
// now. A max <= 0 means unlimited. Rejected calls return an
// orcherr.Validation error.
func (l *RateLimiter) Allow(operation, identity string) error {
	if l.max <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.evictStaleLocked()

	k := key(operation, identity)
	e, ok := l.entries[k]
	if !ok {
		refillPerSecond := float64(l.max) / l.window.Seconds()
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(refillPerSecond), l.max)}
		l.entries[k] = e
	}
	e.lastAccess = time.Now()

	if !e.limiter.Allow() {
		return orcherr.Validation("resilience.ratelimit", "rate limit exceeded for "+operation+"/"+identity)
	}
	return nil
}

// evictStaleLocked drops entries idle for more than ten windows, bounding
// the map's size since the core keeps no durable state.
func (l *RateLimiter) evictStaleLocked() {
	if l.window <= 0 {
		return
	}
	cutoff := time.Now().Add(-10 * l.window)
	for k, e := range l.entries {
		if e.lastAccess.Before(cutoff) {
			delete(l.entries, k)
		}
	}
}

// Saturated reports the number of keys currently at capacity (no tokens
// available), used by the monitor's security loop.
func (l *RateLimiter) Saturated() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, e := range l.entries {
		if e.limiter.Tokens() < 1 {
			n++
		}
	}
	return n
}
