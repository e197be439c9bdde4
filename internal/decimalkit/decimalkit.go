// Package decimalkit wraps github.com/shopspring/decimal with the
// fixed-precision primitives the calculation pipeline needs: half-up
// rounding, percentage/proration helpers, and a canonical string form used
// for cache fingerprints. Division by zero never panics — it logs and
// returns the caller's supplied default, per the engine's decimal contract.
package decimalkit

import (
	"log"
	"strings"

	"github.com/shopspring/decimal"
)

// DaysInYear is the annualization divisor; no calendar-aware day-count
// conventions are used anywhere in this module.
const DaysInYear = 365

// DefaultPrecision is the rounding precision applied at every component
// boundary (rates and fees alike).
const DefaultPrecision = 4

// Add returns a + b.
func Add(a, b decimal.Decimal) decimal.Decimal {
	return a.Add(b)
}

// Sub returns a - b.
func Sub(a, b decimal.Decimal) decimal.Decimal {
	return a.Sub(b)
}

// Mul returns a * b.
func Mul(a, b decimal.Decimal) decimal.Decimal {
	return a.Mul(b)
}

// Div returns a / b. If b is zero, the division is never performed — the
// caller's fallback is logged and returned instead of panicking or
// propagating a divide-by-zero error up the stack.
func Div(a, b, fallback decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		log.Printf("[decimalkit] division by zero (dividend=%s), returning fallback=%s", a.String(), fallback.String())
		return fallback
	}
	return a.Div(b)
}

// RoundHalfUp rounds v to precision fractional digits, rounding 0.5 away
// from zero regardless of sign (shopspring/decimal's Round already applies
// half-away-from-zero semantics, which is what "half-up" means here).
func RoundHalfUp(v decimal.Decimal, precision int32) decimal.Decimal {
	return v.Round(precision)
}

// PercentOf returns base * (pct / 100).
func PercentOf(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(decimal.NewFromInt(100))
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

// Max returns the larger of a, b.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Min returns the smaller of a, b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// CanonicalString renders v with trailing fractional zeros stripped and no
// grouping, the form the calculation-namespace cache fingerprint is built
// from. "5.50" -> "5.5", "5.00" -> "5", "5" -> "5".
func CanonicalString(v decimal.Decimal) string {
	s := v.StringFixed(DefaultPrecision)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	if s == "" || s == "-" {
		s = "0"
	}
	return s
}

// MustParse parses s into a decimal; on malformed input it logs the literal
// and returns the caller-supplied fallback rather than panicking.
func MustParse(s string, fallback decimal.Decimal) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		log.Printf("[decimalkit] invalid decimal literal %q, using fallback=%s", s, fallback.String())
		return fallback
	}
	return d
}
