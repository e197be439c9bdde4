package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"arespricing/internal/audit"
	"arespricing/internal/concurrency"
	"arespricing/internal/models"
	"arespricing/internal/upstream"
	"arespricing/internal/validation"
)

type fakeBorrowFetcher struct{ snap upstream.RateSnapshot }

func (f fakeBorrowFetcher) Fetch(ctx context.Context, ticker string) upstream.RateSnapshot {
	return f.snap
}

type fakeVolFetcher struct{ snap upstream.VolatilitySnapshot }

func (f fakeVolFetcher) FetchForTicker(ctx context.Context, ticker string) upstream.VolatilitySnapshot {
	return f.snap
}

type fakeEventFetcher struct{ risk upstream.EventRisk }

func (f fakeEventFetcher) Fetch(ctx context.Context, ticker string) upstream.EventRisk {
	return f.risk
}

type fakeBrokerLookup struct {
	cfg models.BrokerConfig
	err error
}

func (f fakeBrokerLookup) LookupBrokerConfig(ctx context.Context, clientID string) (models.BrokerConfig, error) {
	return f.cfg, f.err
}

// memCache is a minimal in-process cache.Store double, so tests can observe
// both the cache-miss-then-populate path and a cache-hit short-circuit.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

func (c *memCache) Delete(ctx context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

func testOrchestrator(cacheStore *memCache) *Orchestrator {
	return New(Config{
		BorrowClient: fakeBorrowFetcher{snap: upstream.RateSnapshot{
			Ticker: "AAPL", BaseRate: decimal.NewFromFloat(0.05), Status: upstream.StatusMedium, Source: "seclend",
		}},
		VolClient: fakeVolFetcher{snap: upstream.VolatilitySnapshot{
			Ticker: "AAPL", VolIndex: decimal.NewFromFloat(20), Source: "market_volatility",
		}},
		EventClient: fakeEventFetcher{risk: upstream.EventRisk{
			Ticker: "AAPL", RiskFactor: decimal.Zero, Source: "event_calendar",
		}},
		BrokerStore: fakeBrokerLookup{cfg: models.BrokerConfig{
			ClientID: "client-1", MarkupPct: decimal.NewFromFloat(5), FeeType: "FLAT",
			FeeAmount: decimal.NewFromFloat(25), Active: true,
		}},
		CacheStore:      cacheStore,
		AuditEmitter:    audit.NewEmitter(nil, 8, 1),
		Seq:             concurrency.NewSequenceGenerator(0),
		MinBorrowRate:   decimal.NewFromFloat(0.0001),
		VolFactor:       decimal.NewFromFloat(0.01),
		EventFactor:     decimal.NewFromFloat(0.05),
		CalcCacheTTL:    time.Minute,
		RequestDeadline: 5 * time.Second,
	})
}

func TestCalculateFee_ComposesFeeFromFanOutResults(t *testing.T) {
	o := testOrchestrator(newMemCache())

	result, err := o.CalculateFee(context.Background(), validation.CalculateFeeInput{
		Ticker: "aapl", PositionValue: decimal.NewFromInt(100000), LoanDays: 30, ClientID: "client-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalFee.IsZero() {
		t.Error("expected a non-zero total fee")
	}
	if !result.BorrowRateUsed.GreaterThanOrEqual(decimal.NewFromFloat(0.05)) {
		t.Errorf("BorrowRateUsed = %s, want >= base rate 0.05 once vol/event factors apply", result.BorrowRateUsed)
	}
}

func TestCalculateFee_CacheHitSkipsUpstreamFetch(t *testing.T) {
	cacheStore := newMemCache()
	o := testOrchestrator(cacheStore)
	ctx := context.Background()
	in := validation.CalculateFeeInput{
		Ticker: "AAPL", PositionValue: decimal.NewFromInt(100000), LoanDays: 30, ClientID: "client-1",
	}

	first, err := o.CalculateFee(ctx, in)
	if err != nil {
		t.Fatalf("first call: unexpected error: %v", err)
	}

	// Swap in a borrow client that would change the result if actually
	// invoked, to prove the second call is served entirely from cache.
	o.borrowClient = fakeBorrowFetcher{snap: upstream.RateSnapshot{BaseRate: decimal.NewFromFloat(99), Status: upstream.StatusHard}}

	second, err := o.CalculateFee(ctx, in)
	if err != nil {
		t.Fatalf("second call: unexpected error: %v", err)
	}
	if !second.TotalFee.Equal(first.TotalFee) {
		t.Errorf("cached TotalFee = %s, want %s (unchanged from first call)", second.TotalFee, first.TotalFee)
	}
}

func TestCalculateFee_InvalidInputReturnsValidationError(t *testing.T) {
	o := testOrchestrator(newMemCache())
	_, err := o.CalculateFee(context.Background(), validation.CalculateFeeInput{
		Ticker: "not-a-ticker", PositionValue: decimal.NewFromInt(-1), LoanDays: 0, ClientID: "client-1",
	})
	if err == nil {
		t.Fatal("expected a validation error")
	}
}

func TestCalculateFee_UnknownClientReturnsLookupError(t *testing.T) {
	o := New(Config{
		BorrowClient:    fakeBorrowFetcher{},
		VolClient:       fakeVolFetcher{},
		EventClient:     fakeEventFetcher{},
		BrokerStore:     fakeBrokerLookup{err: assertErr},
		CacheStore:      newMemCache(),
		AuditEmitter:    audit.NewEmitter(nil, 8, 1),
		Seq:             concurrency.NewSequenceGenerator(0),
		RequestDeadline: 5 * time.Second,
	})

	_, err := o.CalculateFee(context.Background(), validation.CalculateFeeInput{
		Ticker: "AAPL", PositionValue: decimal.NewFromInt(1000), LoanDays: 5, ClientID: "ghost",
	})
	if err != assertErr {
		t.Fatalf("expected the broker lookup error to propagate, got %v", err)
	}
}

func TestGetRate_ReturnsBorrowSnapshotWithoutComposingFee(t *testing.T) {
	o := testOrchestrator(newMemCache())
	result, err := o.GetRate(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Ticker != "AAPL" {
		t.Errorf("Ticker = %q, want normalized AAPL", result.Ticker)
	}
	if !result.CurrentRate.Equal(decimal.NewFromFloat(0.05)) {
		t.Errorf("CurrentRate = %s, want 0.05", result.CurrentRate)
	}
}

func TestGetRate_InvalidTickerReturnsValidationError(t *testing.T) {
	o := testOrchestrator(newMemCache())
	_, err := o.GetRate(context.Background(), "123")
	if err == nil {
		t.Fatal("expected a validation error for a non-alphabetic ticker")
	}
}

var assertErr = &fakeLookupError{}

type fakeLookupError struct{}

func (e *fakeLookupError) Error() string { return "client not found" }
