package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrOpen is returned when the circuit breaker rejects a call outright.
	ErrOpen = errors.New("circuit breaker is open")

	// ErrAborted is returned when the caller's context is cancelled while
	// waiting out the rate limit. Neither success nor failure is recorded.
	ErrAborted = errors.New("operation aborted")
)

// OpError wraps an upstream failure with the operation class it belongs to.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Gate composes a circuit breaker and a rate limiter around one operation
// class. Every external call class (market data, trade placement, signal
// validation, notifications) gets its own Gate; gates never share state.
type Gate struct {
	name    string
	breaker *Breaker
	limiter *Limiter
}

// NewGate wraps the operation class named name with its breaker and limiter.
func NewGate(name string, breaker *Breaker, limiter *Limiter) *Gate {
	return &Gate{name: name, breaker: breaker, limiter: limiter}
}

// Name returns the operation class this gate guards.
func (g *Gate) Name() string { return g.name }

// Breaker exposes the underlying breaker for state inspection.
func (g *Gate) Breaker() *Breaker { return g.breaker }

// Do runs op behind the breaker and limiter. A rejected breaker check fails
// immediately with ErrOpen. A full rate window suspends the caller until the
// oldest request expires; this is the gate's only blocking point and it
// honors ctx. Success and failure are reported to the breaker; an aborted
// wait reports neither.
func (g *Gate) Do(ctx context.Context, op func(context.Context) error) error {
	if !g.breaker.CanExecute() {
		return fmt.Errorf("%s: %w", g.name, ErrOpen)
	}

	if !g.limiter.CanProceed() {
		if wait := g.limiter.WaitTime(); wait > 0 {
			if err := sleep(ctx, wait); err != nil {
				return fmt.Errorf("%s: %w: %w", g.name, ErrAborted, err)
			}
		}
	}

	g.limiter.Record()

	if err := op(ctx); err != nil {
		g.breaker.RecordFailure()
		return &OpError{Op: g.name, Err: err}
	}

	g.breaker.RecordSuccess()
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
