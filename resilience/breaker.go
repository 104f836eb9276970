// Package resilience provides the failure-isolation primitives every external
// call passes through: a consecutive-failure circuit breaker, a sliding-window
// rate limiter, and a Gate composing one of each around an operation class.
package resilience

import (
	"sync"
	"time"
)

// State is the circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	}
	return "UNKNOWN"
}

// Breaker tracks consecutive failures of one operation class and opens after
// the configured threshold. An open breaker re-admits a single trial call once
// the timeout has elapsed. Safe for concurrent use.
type Breaker struct {
	mu sync.Mutex

	failureThreshold int
	timeout          time.Duration

	failures    int
	lastFailure time.Time
	state       State

	now func() time.Time
}

// NewBreaker creates a breaker that opens after failureThreshold consecutive
// failures and admits a trial call timeout after the last failure.
func NewBreaker(failureThreshold int, timeout time.Duration) *Breaker {
	return &Breaker{
		failureThreshold: failureThreshold,
		timeout:          timeout,
		state:            StateClosed,
		now:              time.Now,
	}
}

// CanExecute reports whether a call may go ahead. When the breaker is open and
// the timeout has elapsed it atomically promotes to half-open, so in a
// concurrent setting only the promoting caller observes the transition.
func (b *Breaker) CanExecute() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.now().Sub(b.lastFailure) > b.timeout {
			b.state = StateHalfOpen
			return true
		}
		return false
	default: // half-open: a trial is in flight
		return true
	}
}

// RecordSuccess resets the failure counter and closes the breaker.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.state = StateClosed
}

// RecordFailure increments the failure counter; reaching the threshold, or any
// failure while half-open, opens the breaker and restarts the timeout.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = b.now()

	if b.state == StateHalfOpen || b.failures >= b.failureThreshold {
		b.state = StateOpen
	}
}

// State returns the current state without side effects.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the current consecutive-failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
