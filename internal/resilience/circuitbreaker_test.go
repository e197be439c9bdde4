package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_OpensAfterFailureThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "t", FailureThreshold: 3, SuccessThreshold: 2, Timeout: time.Minute})

	boom := errors.New("boom")
	for i := 0; i < 3; i++ {
		if err := cb.Call(func() error { return boom }); err != boom {
			t.Fatalf("call %d: err = %v, want boom", i, err)
		}
	}

	if cb.State() != StateOpen {
		t.Fatalf("state = %s, want open after %d consecutive failures", cb.State(), 3)
	}

	// The next call must be short-circuited without invoking fn.
	invoked := false
	err := cb.Call(func() error { invoked = true; return nil })
	if invoked {
		t.Error("fn was invoked while breaker is open")
	}
	var openErr *BreakerOpenError
	if !errors.As(err, &openErr) {
		t.Errorf("err = %v, want *BreakerOpenError", err)
	}
}

func TestCircuitBreaker_HalfOpenAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "t", FailureThreshold: 1, SuccessThreshold: 1, Timeout: 10 * time.Millisecond})

	_ = cb.Call(func() error { return errors.New("boom") })
	if cb.State() != StateOpen {
		t.Fatalf("state = %s, want open", cb.State())
	}

	time.Sleep(20 * time.Millisecond)

	if !cb.Allow() {
		t.Fatal("Allow() should transition open -> half-open once timeout elapses")
	}
	if cb.State() != StateHalfOpen {
		t.Errorf("state = %s, want half-open", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenClosesAfterSuccessThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "t", FailureThreshold: 1, SuccessThreshold: 2, Timeout: time.Nanosecond})

	_ = cb.Call(func() error { return errors.New("boom") })
	time.Sleep(time.Millisecond)

	for i := 0; i < 2; i++ {
		if err := cb.Call(func() error { return nil }); err != nil {
			t.Fatalf("half-open call %d failed: %v", i, err)
		}
	}

	if cb.State() != StateClosed {
		t.Errorf("state = %s, want closed after SuccessThreshold successes in half-open", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "t", FailureThreshold: 1, SuccessThreshold: 2, Timeout: time.Nanosecond})

	_ = cb.Call(func() error { return errors.New("boom") })
	time.Sleep(time.Millisecond)
	cb.Allow() // transition to half-open

	_ = cb.Call(func() error { return errors.New("still broken") })

	if cb.State() != StateOpen {
		t.Errorf("state = %s, want open after a half-open failure", cb.State())
	}
}

func TestRegistry_LazyPerNameCreation(t *testing.T) {
	reg := NewRegistry(func(name string) CircuitBreakerConfig {
		return DefaultCircuitBreakerConfig(name)
	})

	a := reg.Get("borrow_rate")
	b := reg.Get("borrow_rate")
	c := reg.Get("volatility")

	if a != b {
		t.Error("Registry.Get should return the same breaker instance for the same name")
	}
	if a == c {
		t.Error("Registry.Get should return distinct breakers for distinct names")
	}
}
