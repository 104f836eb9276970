package resilience

import (
	"sync"
	"time"
)

// Limiter bounds the number of requests of one operation class inside a
// sliding time window. The window is pruned lazily on each check. Safe for
// concurrent use.
//
// A token-bucket limiter would not do here: WaitTime must report exactly when
// the oldest recorded request leaves the window.
type Limiter struct {
	mu sync.Mutex

	maxRequests int
	window      time.Duration
	requests    []time.Time

	now func() time.Time
}

// NewLimiter creates a limiter allowing maxRequests per window.
func NewLimiter(maxRequests int, window time.Duration) *Limiter {
	return &Limiter{
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
}

// CanProceed prunes expired timestamps and reports whether another request
// fits in the window. It records nothing.
func (l *Limiter) CanProceed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(l.now())
	return len(l.requests) < l.maxRequests
}

// Record appends the current time to the window.
func (l *Limiter) Record() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.requests = append(l.requests, l.now())
}

// WaitTime returns how long until the next request fits: zero when under the
// limit, otherwise the time until the oldest recorded request expires.
func (l *Limiter) WaitTime() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	if len(l.requests) < l.maxRequests {
		return 0
	}

	wait := l.requests[0].Add(l.window).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

// prune drops timestamps that have aged out of the window. Callers hold the
// lock. Requests are appended in order, so the slice stays sorted.
func (l *Limiter) prune(now time.Time) {
	cutoff := 0
	for cutoff < len(l.requests) && now.Sub(l.requests[cutoff]) >= l.window {
		cutoff++
	}
	if cutoff > 0 {
		l.requests = append(l.requests[:0], l.requests[cutoff:]...)
	}
}
