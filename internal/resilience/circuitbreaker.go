package resilience

import (
	"log"
	"sync"
	"time"
)

// State is one of the three circuit-breaker states.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig parameterizes one breaker instance.
type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration // recovery timeout: OPEN -> HALF_OPEN
}

// DefaultCircuitBreakerConfig matches the engine's documented defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 3,
		Timeout:          60 * time.Second,
	}
}

// CircuitBreaker holds per-upstream breaker state in-process. Breakers are
// not shared across workers by design — correctness of the overall system
// does not depend on global agreement about a single upstream's health.
type CircuitBreaker struct {
	mu        sync.Mutex
	config    CircuitBreakerConfig
	state     State
	failures  int
	successes int
	openedAt  time.Time
}

// NewCircuitBreaker builds a breaker in the CLOSED state.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{config: config, state: StateClosed}
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Allow reports whether a call may proceed, transitioning OPEN -> HALF_OPEN
// if the recovery timeout has elapsed.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if time.Since(cb.openedAt) >= cb.config.Timeout {
			cb.transitionTo(StateHalfOpen)
			return true
		}
		return false
	default:
		return false
	}
}

// RecordSuccess registers a successful call.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.transitionTo(StateClosed)
		}
	}
}

// RecordFailure registers a failed call.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.config.FailureThreshold {
			cb.openedAt = time.Now()
			cb.transitionTo(StateOpen)
		}
	case StateHalfOpen:
		cb.openedAt = time.Now()
		cb.transitionTo(StateOpen)
	}
}

// transitionTo must be called with cb.mu held.
func (cb *CircuitBreaker) transitionTo(next State) {
	prev := cb.state
	cb.state = next
	cb.failures = 0
	cb.successes = 0
	if prev != next {
		log.Printf("[CIRCUIT:%s] %s -> %s", cb.config.Name, prev, next)
	}
}

// Call runs fn under breaker protection: if the breaker denies the call it
// returns a *BreakerOpenError without invoking fn; otherwise it runs fn and
// records the result.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if !cb.Allow() {
		return &BreakerOpenError{Name: cb.config.Name}
	}

	err := fn()
	if err != nil {
		cb.RecordFailure()
		return err
	}
	cb.RecordSuccess()
	return nil
}

// BreakerOpenError is returned when a call is short-circuited.
type BreakerOpenError struct {
	Name string
}

func (e *BreakerOpenError) Error() string {
	return "circuit breaker " + e.Name + " is open"
}

// Registry holds one CircuitBreaker per upstream service name, created
// lazily on first use. The orchestrator owns a Registry and passes it
// explicitly to the components that need it rather than referencing module
// scope, per the engine's stance on global mutable state.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
	factory  func(name string) CircuitBreakerConfig
}

// NewRegistry builds a Registry whose breakers are configured by configFor,
// called once per distinct service name the first time it's requested.
func NewRegistry(configFor func(name string) CircuitBreakerConfig) *Registry {
	return &Registry{
		breakers: make(map[string]*CircuitBreaker),
		factory:  configFor,
	}
}

// Get returns the breaker for name, creating it on first access.
func (r *Registry) Get(name string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[name]; ok {
		return cb
	}
	cb := NewCircuitBreaker(r.factory(name))
	r.breakers[name] = cb
	return cb
}
