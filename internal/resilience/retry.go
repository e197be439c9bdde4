// Package resilience implements the retry-with-backoff-and-jitter and
// circuit-breaker primitives (C3) that every upstream client composes
// around its HTTP call. The breaker wraps the retry loop: a successful
// retry counts as one success to the breaker, an exhausted retry counts as
// one failure.
package resilience

import (
	"context"
	"math/rand"
	"time"
)

// RetryConfig parameterizes the exponential-backoff-with-jitter retry loop.
type RetryConfig struct {
	MaxAttempts    int
	InitialWait    time.Duration
	BackoffFactor  float64
	MaxWait        time.Duration
	JitterFraction float64
}

// DefaultRetryConfig matches the engine's documented defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialWait:    100 * time.Millisecond,
		BackoffFactor:  2.0,
		MaxWait:        30 * time.Second,
		JitterFraction: 0.1,
	}
}

// Retry runs an operation up to config.MaxAttempts times, sleeping between
// attempts according to the configured backoff.
type Retry struct {
	config RetryConfig
	rand   *rand.Rand
}

// NewRetry builds a Retry with the given config.
func NewRetry(config RetryConfig) *Retry {
	return &Retry{config: config, rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// waitForAttempt computes the sleep duration before the retry numbered
// attempt (1-indexed: the count of failed attempts so far, including the
// one that just happened). This resolves the engine's documented exponent
// indexing: wait(attempt) = initialWait * backoffFactor^attempt, capped at
// maxWait, then jittered by a uniform factor in
// [1-jitterFraction, 1+jitterFraction] and floored at zero.
func (r *Retry) waitForAttempt(attempt int) time.Duration {
	wait := float64(r.config.InitialWait) * pow(r.config.BackoffFactor, attempt)
	if max := float64(r.config.MaxWait); wait > max {
		wait = max
	}

	jitter := 1.0 + r.config.JitterFraction*(2*r.rand.Float64()-1)
	wait *= jitter
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}

// Do runs fn, retrying on error per the configured backoff, up to
// MaxAttempts total attempts. It returns the last error if every attempt
// fails. Do never sleeps after the final attempt, and a cancelled ctx
// aborts immediately rather than starting another attempt or waiting out
// the remaining backoff — cancellation is cooperative, not preemptive:
// fn's own in-flight call is only interrupted if fn itself honors ctx.
func (r *Retry) Do(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < r.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt+1 >= r.config.MaxAttempts {
			break
		}

		timer := time.NewTimer(r.waitForAttempt(attempt + 1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	return lastErr
}
