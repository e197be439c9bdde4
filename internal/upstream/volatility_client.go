package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"arespricing/internal/cache"
	"arespricing/internal/resilience"
)

// marketVolatilityResponse is GET {base}/market/volatility/index ->
// {value, timestamp}.
type marketVolatilityResponse struct {
	Value *float64 `json:"value"`
}

// tickerVolatilityResponse is GET {base}/market/volatility/stock/{ticker} ->
// {ticker, volatility, timestamp}.
type tickerVolatilityResponse struct {
	Ticker     *string  `json:"ticker"`
	Volatility *float64 `json:"volatility"`
}

// VolatilityClient fetches market-wide or per-ticker volatility, falling
// back from per-ticker to market-wide to a configured default.
type VolatilityClient struct {
	transport        jsonGetter
	cacheStore       cache.Store
	cacheTTL         time.Duration
	guarded          *resilience.Guarded
	defaultVolIndex  decimal.Decimal
}

// NewVolatilityClient builds a volatility client.
func NewVolatilityClient(transport jsonGetter, store cache.Store, ttl time.Duration, guarded *resilience.Guarded, defaultVolIndex decimal.Decimal) *VolatilityClient {
	return &VolatilityClient{
		transport:       transport,
		cacheStore:      store,
		cacheTTL:        ttl,
		guarded:         guarded,
		defaultVolIndex: defaultVolIndex,
	}
}

// FetchForTicker returns per-ticker volatility, falling back to market-wide
// then the configured default if both upstream calls fail.
func (c *VolatilityClient) FetchForTicker(ctx context.Context, ticker string) VolatilitySnapshot {
	key := cache.Key(cache.NamespaceVolatility, ticker)

	if raw, hit := c.cacheStore.Get(ctx, key); hit {
		var snap VolatilitySnapshot
		if err := json.Unmarshal(raw, &snap); err == nil {
			return snap
		}
	}

	var resp tickerVolatilityResponse
	err := c.guarded.Do(ctx, func() error {
		return c.transport.GetJSON(ctx, fmt.Sprintf("/market/volatility/stock/%s", ticker), &resp)
	})

	if err != nil || resp.Volatility == nil || resp.Ticker == nil {
		if err == nil {
			err = fmt.Errorf("response missing required field(s) ticker/volatility")
		}
		log.Printf("[UPSTREAM:volatility] per-ticker fetch for %s failed, falling back to market-wide: %v", ticker, err)
		snap := c.FetchMarketWide(ctx)
		snap.Ticker = ticker
		snap.IsFallback = true
		return snap
	}

	volIndex := decimal.NewFromFloat(*resp.Volatility)
	if volIndex.IsNegative() {
		log.Printf("[UPSTREAM:volatility] negative volIndex %s for %s, falling back to market-wide", volIndex.String(), ticker)
		snap := c.FetchMarketWide(ctx)
		snap.Ticker = ticker
		snap.IsFallback = true
		return snap
	}

	snap := VolatilitySnapshot{
		Ticker:     ticker,
		VolIndex:   volIndex,
		Timestamp:  time.Now(),
		Source:     "market_volatility",
		IsFallback: false,
	}

	if encoded, err := json.Marshal(snap); err == nil {
		c.cacheStore.Set(ctx, key, encoded, c.cacheTTL)
	}

	return snap
}

// FetchMarketWide returns the market-wide volatility index, falling back to
// the configured default when the upstream is exhausted.
func (c *VolatilityClient) FetchMarketWide(ctx context.Context) VolatilitySnapshot {
	key := cache.Key(cache.NamespaceVolatility, cache.MarketWideIdentifier)

	if raw, hit := c.cacheStore.Get(ctx, key); hit {
		var snap VolatilitySnapshot
		if err := json.Unmarshal(raw, &snap); err == nil {
			return snap
		}
	}

	var resp marketVolatilityResponse
	err := c.guarded.Do(ctx, func() error {
		return c.transport.GetJSON(ctx, "/market/volatility/index", &resp)
	})

	if err != nil || resp.Value == nil {
		if err == nil {
			err = fmt.Errorf("response missing required field value")
		}
		log.Printf("[UPSTREAM:volatility] market-wide fetch failed, using configured default: %v", err)
		return c.defaultSnapshot()
	}

	volIndex := decimal.NewFromFloat(*resp.Value)
	if volIndex.IsNegative() {
		log.Printf("[UPSTREAM:volatility] negative market-wide volIndex %s, using configured default", volIndex.String())
		return c.defaultSnapshot()
	}

	snap := VolatilitySnapshot{
		VolIndex:   volIndex,
		Timestamp:  time.Now(),
		Source:     "market_volatility",
		IsFallback: false,
	}

	if encoded, err := json.Marshal(snap); err == nil {
		c.cacheStore.Set(ctx, key, encoded, c.cacheTTL)
	}

	return snap
}

func (c *VolatilityClient) defaultSnapshot() VolatilitySnapshot {
	return VolatilitySnapshot{
		VolIndex:   c.defaultVolIndex,
		Timestamp:  time.Now(),
		Source:     "fallback",
		IsFallback: true,
	}
}
