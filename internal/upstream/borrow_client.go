package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"arespricing/internal/cache"
	"arespricing/internal/resilience"
)

// borrowRateResponse is the upstream's wire shape:
// GET {base}/api/borrows/{ticker} -> {rate, status, ...}.
type borrowRateResponse struct {
	Rate   *float64 `json:"rate"`
	Status *string  `json:"status"`
}

// BorrowRateClient fetches the base borrow rate for a ticker.
type BorrowRateClient struct {
	transport     jsonGetter
	cacheStore    cache.Store
	cacheTTL      time.Duration
	guarded       *resilience.Guarded
	minBorrowRate decimal.Decimal
}

// NewBorrowRateClient builds a borrow-rate client. minBorrowRate is the
// fallback snapshot's rate when the upstream is exhausted.
func NewBorrowRateClient(transport jsonGetter, store cache.Store, ttl time.Duration, guarded *resilience.Guarded, minBorrowRate decimal.Decimal) *BorrowRateClient {
	return &BorrowRateClient{
		transport:     transport,
		cacheStore:    store,
		cacheTTL:      ttl,
		guarded:       guarded,
		minBorrowRate: minBorrowRate,
	}
}

// Fetch returns the current borrow-rate snapshot for ticker. It never
// returns an error — upstream exhaustion yields the documented fallback
// snapshot instead.
func (c *BorrowRateClient) Fetch(ctx context.Context, ticker string) RateSnapshot {
	key := cache.Key(cache.NamespaceBorrowRate, ticker)

	if raw, hit := c.cacheStore.Get(ctx, key); hit {
		var snap RateSnapshot
		if err := json.Unmarshal(raw, &snap); err == nil {
			return snap
		}
		log.Printf("[UPSTREAM:borrow_rate] cache decode failed for %s, refetching", ticker)
	}

	var resp borrowRateResponse
	err := c.guarded.Do(ctx, func() error {
		return c.transport.GetJSON(ctx, fmt.Sprintf("/api/borrows/%s", ticker), &resp)
	})

	if err != nil || resp.Rate == nil || resp.Status == nil {
		if err == nil {
			err = fmt.Errorf("response missing required field(s) rate/status")
		}
		log.Printf("[UPSTREAM:borrow_rate] falling back for %s: %v", ticker, err)
		return c.fallback(ticker)
	}

	snap := RateSnapshot{
		Ticker:     ticker,
		BaseRate:   decimal.NewFromFloat(*resp.Rate),
		Status:     normalizeStatus(*resp.Status),
		Source:     "seclend",
		Timestamp:  time.Now(),
		IsFallback: false,
	}

	if encoded, err := json.Marshal(snap); err == nil {
		c.cacheStore.Set(ctx, key, encoded, c.cacheTTL)
	}

	return snap
}

func (c *BorrowRateClient) fallback(ticker string) RateSnapshot {
	return RateSnapshot{
		Ticker:     ticker,
		BaseRate:   c.minBorrowRate,
		Status:     StatusHard,
		Source:     "fallback",
		Timestamp:  time.Now(),
		IsFallback: true,
	}
}

// normalizeStatus maps the upstream's borrow-status string (case-insensitive)
// to BorrowStatus; unknown values map to HARD.
func normalizeStatus(raw string) BorrowStatus {
	switch strings.ToUpper(raw) {
	case "EASY", "EASY_TO_BORROW":
		return StatusEasy
	case "MEDIUM", "MEDIUM_TO_BORROW":
		return StatusMedium
	case "HARD", "HARD_TO_BORROW":
		return StatusHard
	default:
		return StatusHard
	}
}
