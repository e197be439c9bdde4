// Package upstream implements the three external-data clients (C4):
// borrow-rate, volatility (market-wide and per-ticker), and event-risk.
// Each consults the cache fabric first, falls through to the circuit
// breaker + retry composition from internal/resilience, and returns a
// deterministic fallback snapshot rather than an error when the upstream is
// exhausted.
package upstream

import (
	"time"

	"github.com/shopspring/decimal"
)

// BorrowStatus is the coarse borrow-difficulty classification.
type BorrowStatus string

const (
	StatusEasy   BorrowStatus = "EASY"
	StatusMedium BorrowStatus = "MEDIUM"
	StatusHard   BorrowStatus = "HARD"
)

// RateSnapshot is one observation of the borrow-rate feed.
type RateSnapshot struct {
	Ticker     string
	BaseRate   decimal.Decimal
	Status     BorrowStatus
	Source     string
	Timestamp  time.Time
	IsFallback bool
}

// VolatilitySnapshot is one observation of the volatility feed, market-wide
// if Ticker is empty.
type VolatilitySnapshot struct {
	Ticker     string
	VolIndex   decimal.Decimal
	Timestamp  time.Time
	Source     string
	IsFallback bool
}

// EventRisk is the event-calendar feed's result for a ticker: the maximum
// risk factor over all upcoming events inside the look-ahead window.
type EventRisk struct {
	Ticker       string
	RiskFactor   decimal.Decimal
	SourceEvents []string
	Source       string
	IsFallback   bool
}
