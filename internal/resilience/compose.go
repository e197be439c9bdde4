package resilience

import "context"

// Guarded composes a CircuitBreaker around a Retry: the breaker wraps the
// outer call, retries happen inside the breaker's permitted call. A
// successful retry counts as one success to the breaker; an exhausted
// retry counts as one failure — because the breaker only sees the single
// aggregate error Retry.Do returns, not each individual attempt.
type Guarded struct {
	breaker *CircuitBreaker
	retry   *Retry
}

// NewGuarded builds a Guarded call wrapper from an existing breaker and
// retry policy.
func NewGuarded(breaker *CircuitBreaker, retry *Retry) *Guarded {
	return &Guarded{breaker: breaker, retry: retry}
}

// Do runs fn under the composed breaker+retry policy. If the breaker is
// open, fn is never called and a *BreakerOpenError is returned. ctx bounds
// both the retry loop's inter-attempt backoff and, so long as fn itself
// respects ctx, fn's in-flight call.
func (g *Guarded) Do(ctx context.Context, fn func() error) error {
	return g.breaker.Call(func() error {
		return g.retry.Do(ctx, fn)
	})
}
