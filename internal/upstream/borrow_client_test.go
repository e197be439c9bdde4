package upstream

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"arespricing/internal/resilience"
)

func noRetryGuarded() *resilience.Guarded {
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name: "t", FailureThreshold: 100, SuccessThreshold: 1, Timeout: time.Minute,
	})
	retry := resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 1, InitialWait: time.Millisecond, BackoffFactor: 1, MaxWait: time.Millisecond})
	return resilience.NewGuarded(breaker, retry)
}

func rate(v float64) *float64   { return &v }
func str(v string) *string      { return &v }

func TestBorrowRateClient_Fetch_Success(t *testing.T) {
	transport := fakeJSON(borrowRateResponse{Rate: rate(0.05), Status: str("hard_to_borrow")})
	client := NewBorrowRateClient(transport, noopCache{}, time.Minute, noRetryGuarded(), decimal.NewFromFloat(0.0001))

	snap := client.Fetch(context.Background(), "AAPL")
	if snap.IsFallback {
		t.Fatal("expected a non-fallback snapshot")
	}
	if !snap.BaseRate.Equal(decimal.NewFromFloat(0.05)) {
		t.Errorf("BaseRate = %s, want 0.05", snap.BaseRate)
	}
	if snap.Status != StatusHard {
		t.Errorf("Status = %s, want HARD", snap.Status)
	}
}

func TestBorrowRateClient_Fetch_FallsBackOnTransportError(t *testing.T) {
	transport := fakeFailure(errUpstream)
	minRate := decimal.NewFromFloat(0.0001)
	client := NewBorrowRateClient(transport, noopCache{}, time.Minute, noRetryGuarded(), minRate)

	snap := client.Fetch(context.Background(), "AAPL")
	if !snap.IsFallback {
		t.Fatal("expected a fallback snapshot on transport error")
	}
	if !snap.BaseRate.Equal(minRate) {
		t.Errorf("fallback BaseRate = %s, want minBorrowRate %s", snap.BaseRate, minRate)
	}
}

func TestBorrowRateClient_Fetch_FallsBackOnMissingRequiredField(t *testing.T) {
	transport := fakeJSON(borrowRateResponse{Status: str("easy")}) // rate missing
	client := NewBorrowRateClient(transport, noopCache{}, time.Minute, noRetryGuarded(), decimal.NewFromFloat(0.0001))

	snap := client.Fetch(context.Background(), "AAPL")
	if !snap.IsFallback {
		t.Fatal("expected a fallback snapshot when rate is missing")
	}
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want BorrowStatus
	}{
		{"EASY", StatusEasy},
		{"easy_to_borrow", StatusEasy},
		{"Medium_To_Borrow", StatusMedium},
		{"HARD", StatusHard},
		{"unknown", StatusHard},
	}
	for _, tt := range tests {
		if got := normalizeStatus(tt.in); got != tt.want {
			t.Errorf("normalizeStatus(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
