package cache

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"arespricing/internal/decimalkit"
)

// TTLs holds the per-namespace TTL policy, normally sourced from
// config.Settings so operators can tune it without a code change.
type TTLs struct {
	BorrowRate   time.Duration
	Volatility   time.Duration
	EventRisk    time.Duration
	BrokerConfig time.Duration
	Calculation  time.Duration
	MinRate      time.Duration
	RateLimit    time.Duration
}

// Fingerprint builds the calculation-namespace cache key identifier: the
// tuple (upper(ticker), positionValue, loanDays, markupPct, feeType,
// feeAmount), each decimal rendered in canonical string form, joined by ":".
func Fingerprint(ticker string, positionValue decimal.Decimal, loanDays int, markupPct decimal.Decimal, feeType string, feeAmount decimal.Decimal) string {
	parts := []string{
		strings.ToUpper(ticker),
		decimalkit.CanonicalString(positionValue),
		strconv.Itoa(loanDays),
		decimalkit.CanonicalString(markupPct),
		feeType,
		decimalkit.CanonicalString(feeAmount),
	}
	return strings.Join(parts, ":")
}
