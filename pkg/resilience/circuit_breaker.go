package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitOpenError is returned instead of running the call while the breaker
// rejects traffic.
type CircuitOpenError struct {
	Name       string
	RetryAfter time.Duration
}

func (e *CircuitOpenError) Error() string {
	wait := max(e.RetryAfter, 0)
	if e.Name == "" {
		return fmt.Sprintf("%v: retry in %s", ErrCircuitOpen, wait)
	}
	return fmt.Sprintf("%v for %s: retry in %s", ErrCircuitOpen, e.Name, wait)
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
	Name string

	// FailureThreshold consecutive failures open a closed breaker.
	FailureThreshold int
	// SuccessThreshold successful probes close a half-open breaker.
	SuccessThreshold int
	// OpenTimeout is how long an open breaker rejects calls before probing.
	OpenTimeout time.Duration
	// HalfOpenMaxFlight bounds concurrent probes.
	HalfOpenMaxFlight int

	// IsFailure decides whether an error returned by the protected call
	// counts against the breaker. Errors it rejects are returned to the
	// caller but recorded as successes. Defaults to every non-nil error.
	IsFailure func(error) bool

	// OnStateChange is called with the breaker lock held; it must not call
	// back into the breaker.
	OnStateChange func(name string, from, to CircuitBreakerState)
}

// CircuitBreaker guards calls to one remote target.
type CircuitBreaker struct {
	mu  sync.Mutex
	cfg CircuitBreakerConfig

	state     CircuitBreakerState
	failures  int
	successes int
	inFlight  int
	openUntil time.Time
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
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool { return err != nil }
	}
	return &CircuitBreaker{cfg: cfg, state: CircuitClosed}
}

func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.expireLocked(time.Now())
	return cb.state
}

// Execute runs fn unless the breaker is open. The error of fn is returned
// unchanged; cancellation by the caller is neither a success nor a failure.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}

	err := fn(ctx)

	cb.mu.Lock()
	defer cb.mu.Unlock()
	probe := cb.state == CircuitHalfOpen
	if probe && cb.inFlight > 0 {
		cb.inFlight--
	}

	switch {
	case errors.Is(err, context.Canceled):
	case err != nil && cb.cfg.IsFailure(err):
		cb.failures++
		if probe || cb.failures >= cb.cfg.FailureThreshold {
			cb.setStateLocked(CircuitOpen, time.Now())
		}
	case probe:
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.setStateLocked(CircuitClosed, time.Now())
		}
	default:
		cb.failures = 0
	}
	return err
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	cb.expireLocked(now)

	switch cb.state {
	case CircuitOpen:
		return cb.openErrLocked(now)
	case CircuitHalfOpen:
		if cb.inFlight >= cb.cfg.HalfOpenMaxFlight {
			return cb.openErrLocked(now)
		}
		cb.inFlight++
	}
	return nil
}

// expireLocked moves an open breaker whose timeout elapsed to half-open.
func (cb *CircuitBreaker) expireLocked(now time.Time) {
	if cb.state == CircuitOpen && !now.Before(cb.openUntil) {
		cb.setStateLocked(CircuitHalfOpen, now)
	}
}

func (cb *CircuitBreaker) setStateLocked(to CircuitBreakerState, now time.Time) {
	from := cb.state
	cb.state = to
	cb.failures = 0
	cb.successes = 0
	cb.inFlight = 0
	if to == CircuitOpen {
		cb.openUntil = now.Add(cb.cfg.OpenTimeout)
	}
	if from != to && cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.cfg.Name, from, to)
	}
}

func (cb *CircuitBreaker) openErrLocked(now time.Time) error {
	return &CircuitOpenError{
		Name:       cb.cfg.Name,
		RetryAfter: max(cb.openUntil.Sub(now), 0),
	}
}
