package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"arespricing/internal/cache"
	"arespricing/internal/decimalkit"
	"arespricing/internal/resilience"
)

// eventCalendarResponse is GET {base}/events?ticker={ticker}[&days_ahead=N]
// -> {events: [{event_id, ticker, event_type, event_date, risk_factor, ...}]}.
type eventCalendarResponse struct {
	Events []eventEntry `json:"events"`
}

type eventEntry struct {
	EventID    string   `json:"event_id"`
	RiskFactor *float64 `json:"risk_factor"`
}

// EventRiskClient fetches the event-risk factor for a ticker: the maximum
// risk factor over all upcoming events inside the look-ahead window.
type EventRiskClient struct {
	transport  jsonGetter
	cacheStore cache.Store
	cacheTTL   time.Duration
	guarded    *resilience.Guarded
	daysAhead  int
}

// NewEventRiskClient builds an event-risk client.
func NewEventRiskClient(transport jsonGetter, store cache.Store, ttl time.Duration, guarded *resilience.Guarded, daysAhead int) *EventRiskClient {
	return &EventRiskClient{
		transport:  transport,
		cacheStore: store,
		cacheTTL:   ttl,
		guarded:    guarded,
		daysAhead:  daysAhead,
	}
}

// Fetch returns 0 on upstream failure or missing data, per the engine's
// documented fallback behavior for this client.
func (c *EventRiskClient) Fetch(ctx context.Context, ticker string) EventRisk {
	key := cache.Key(cache.NamespaceEventRisk, ticker)

	if raw, hit := c.cacheStore.Get(ctx, key); hit {
		var risk EventRisk
		if err := json.Unmarshal(raw, &risk); err == nil {
			return risk
		}
	}

	var resp eventCalendarResponse
	err := c.guarded.Do(ctx, func() error {
		return c.transport.GetJSON(ctx, fmt.Sprintf("/events?ticker=%s&days_ahead=%d", ticker, c.daysAhead), &resp)
	})

	if err != nil {
		log.Printf("[UPSTREAM:event_risk] fetch failed for %s, defaulting to zero risk: %v", ticker, err)
		return c.fallback(ticker)
	}

	maxRisk := decimal.Zero
	var sourceIDs []string
	for _, e := range resp.Events {
		if e.RiskFactor == nil {
			log.Printf("[UPSTREAM:event_risk] event %s for %s missing risk_factor, skipping", e.EventID, ticker)
			continue
		}
		rf := decimal.NewFromFloat(*e.RiskFactor)
		if rf.GreaterThan(maxRisk) {
			maxRisk = rf
		}
		sourceIDs = append(sourceIDs, e.EventID)
	}

	risk := EventRisk{
		Ticker:       ticker,
		RiskFactor:   decimalkit.Clamp(maxRisk, decimal.Zero, decimal.NewFromInt(10)),
		SourceEvents: sourceIDs,
		Source:       "event_calendar",
		IsFallback:   false,
	}

	if encoded, err := json.Marshal(risk); err == nil {
		c.cacheStore.Set(ctx, key, encoded, c.cacheTTL)
	}

	return risk
}

func (c *EventRiskClient) fallback(ticker string) EventRisk {
	return EventRisk{
		Ticker:     ticker,
		RiskFactor: decimal.Zero,
		Source:     "fallback",
		IsFallback: true,
	}
}
