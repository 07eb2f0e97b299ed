package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitOpenError reports circuit-open status with a concrete retry delay.
type CircuitOpenError struct {
	Name       string
	RetryAfter time.Duration
}

func (e *CircuitOpenError) Error() string {
	retryAfter := e.RetryAfter
	if retryAfter < 0 {
		retryAfter = 0
	}
	if e.Name == "" {
		return fmt.Sprintf("%v: retry in %s", ErrCircuitOpen, retryAfter)
	}
	return fmt.Sprintf("%v for %s: retry in %s", ErrCircuitOpen, e.Name, retryAfter)
}

func (e *CircuitOpenError) Is(target error) bool {
	return target == ErrCircuitOpen
}

type CircuitBreakerState string

const (
	CircuitClosed   CircuitBreakerState = "closed"
	CircuitOpen     CircuitBreakerState = "open"
	CircuitHalfOpen CircuitBreakerState = "half_open"
)

type CircuitBreakerConfig struct {
	Name              string
	FailureThreshold  int
	SuccessThreshold  int
	OpenTimeout       time.Duration
	HalfOpenMaxFlight int

	// OnStateChange is called outside the breaker lock after every transition.
	OnStateChange func(name string, from, to CircuitBreakerState)
	// Now overrides the wall clock used for open timeouts.
	Now func() time.Time
	// IsFailure reports whether err counts against the breaker. Errors it
	// rejects are returned to the caller without changing breaker state.
	// Nil counts every error.
	IsFailure func(err error) bool
}

type CircuitBreaker struct {
	mu sync.Mutex

	cfg CircuitBreakerConfig

	state        CircuitBreakerState
	failureCount int
	successCount int
	openUntil    time.Time
	halfInFlight int
}

type transition struct {
	from, to CircuitBreakerState
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 1
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 10 * time.Second
	}
	if cfg.HalfOpenMaxFlight <= 0 {
		cfg.HalfOpenMaxFlight = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(error) bool { return true }
	}

	return &CircuitBreaker{
		cfg:   cfg,
		state: CircuitClosed,
	}
}

func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	t := cb.refreshStateLocked(cb.cfg.Now())
	state := cb.state
	cb.mu.Unlock()

	cb.notify(t)
	return state
}

func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}

	err := fn(ctx)

	// Do not penalize caller-driven cancellation.
	if errors.Is(err, context.Canceled) || (err != nil && !cb.cfg.IsFailure(err)) {
		cb.afterIgnored()
		return err
	}

	if err != nil {
		cb.afterFailure()
		return err
	}

	cb.afterSuccess()
	return nil
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mu.Lock()
	now := cb.cfg.Now()
	t := cb.refreshStateLocked(now)

	var err error
	switch cb.state {
	case CircuitOpen:
		err = cb.openErrLocked(now)
	case CircuitHalfOpen:
		if cb.halfInFlight >= cb.cfg.HalfOpenMaxFlight {
			err = cb.openErrLocked(now)
		} else {
			cb.halfInFlight++
		}
	}
	cb.mu.Unlock()

	cb.notify(t)
	return err
}

func (cb *CircuitBreaker) afterSuccess() {
	cb.mu.Lock()
	var t transition
	switch cb.state {
	case CircuitHalfOpen:
		if cb.halfInFlight > 0 {
			cb.halfInFlight--
		}
		cb.successCount++
		if cb.successCount >= cb.cfg.SuccessThreshold {
			t = cb.toClosedLocked()
		}
	default:
		cb.failureCount = 0
	}
	cb.mu.Unlock()

	cb.notify(t)
}

func (cb *CircuitBreaker) afterFailure() {
	cb.mu.Lock()
	var t transition
	switch cb.state {
	case CircuitHalfOpen:
		if cb.halfInFlight > 0 {
			cb.halfInFlight--
		}
		t = cb.toOpenLocked()
	default:
		cb.failureCount++
		if cb.failureCount >= cb.cfg.FailureThreshold {
			t = cb.toOpenLocked()
		}
	}
	cb.mu.Unlock()

	cb.notify(t)
}

func (cb *CircuitBreaker) afterIgnored() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == CircuitHalfOpen && cb.halfInFlight > 0 {
		cb.halfInFlight--
	}
}

func (cb *CircuitBreaker) refreshStateLocked(now time.Time) transition {
	if cb.state == CircuitOpen && !now.Before(cb.openUntil) {
		cb.state = CircuitHalfOpen
		cb.failureCount = 0
		cb.successCount = 0
		cb.halfInFlight = 0
		return transition{from: CircuitOpen, to: CircuitHalfOpen}
	}
	return transition{}
}

func (cb *CircuitBreaker) toOpenLocked() transition {
	from := cb.state
	cb.state = CircuitOpen
	cb.openUntil = cb.cfg.Now().Add(cb.cfg.OpenTimeout)
	cb.failureCount = 0
	cb.successCount = 0
	cb.halfInFlight = 0
	return transition{from: from, to: CircuitOpen}
}

func (cb *CircuitBreaker) toClosedLocked() transition {
	from := cb.state
	cb.state = CircuitClosed
	cb.failureCount = 0
	cb.successCount = 0
	cb.halfInFlight = 0
	return transition{from: from, to: CircuitClosed}
}

func (cb *CircuitBreaker) openErrLocked(now time.Time) error {
	remaining := cb.openUntil.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return &CircuitOpenError{
		Name:       cb.cfg.Name,
		RetryAfter: remaining,
	}
}

func (cb *CircuitBreaker) notify(t transition) {
	if t.to == "" || t.from == t.to || cb.cfg.OnStateChange == nil {
		return
	}
	cb.cfg.OnStateChange(cb.cfg.Name, t.from, t.to)
}
