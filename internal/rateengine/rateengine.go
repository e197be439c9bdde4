// Package rateengine composes a security's final borrow rate from a base
// rate, a volatility reading, and an event-risk factor (C5). It is pure:
// the same inputs always produce the same rate.
package rateengine

import (
	"github.com/shopspring/decimal"

	"arespricing/internal/decimalkit"
)

var (
	zero        = decimal.Zero
	ten         = decimal.NewFromInt(10)
	twenty      = decimal.NewFromInt(20)
	thirty      = decimal.NewFromInt(30)
	one         = decimal.NewFromInt(1)
	quarter     = decimal.NewFromFloat(0.25)
	half        = decimal.NewFromFloat(0.5)
	hundred     = decimal.NewFromInt(100)
)

// Inputs is everything needed to compose a final rate.
type Inputs struct {
	BaseRate    decimal.Decimal
	VolIndex    decimal.Decimal
	RiskFactor  decimal.Decimal
	MinRate     decimal.Decimal // floor applied last; caller resolves the "?? 0.0001" default
	VolFactor   decimal.Decimal // 0.01 default
	EventFactor decimal.Decimal // 0.05 default
}

// Compose implements the five-step adjustment per the engine's component
// design: volatility adjustment (with tiered non-linearity above 20 and 30),
// event-risk adjustment, then the minimum-rate floor applied last so no
// adjustment can hide a sub-minimum rate.
func Compose(in Inputs) decimal.Decimal {
	volIndex := in.VolIndex
	if volIndex.LessThan(zero) {
		volIndex = zero
	}

	riskFactor := decimalkit.Clamp(in.RiskFactor, zero, ten)

	// Step 1: base volatility adjustment, plus tiered add-ons above 20 and 30.
	volAdj := volIndex.Mul(in.VolFactor)
	if volIndex.GreaterThanOrEqual(twenty) {
		volAdj = volAdj.Add(volIndex.Sub(twenty).Mul(in.VolFactor).Mul(quarter))
	}
	if volIndex.GreaterThanOrEqual(thirty) {
		volAdj = volAdj.Add(volIndex.Sub(thirty).Mul(in.VolFactor).Mul(half))
	}
	if volAdj.LessThan(zero) {
		volAdj = zero
	}

	// Step 2.
	rAfterVol := in.BaseRate.Mul(one.Add(volAdj))

	// Step 3.
	eventAdj := riskFactor.Div(ten).Mul(in.EventFactor)

	// Step 4.
	rAfterEvent := rAfterVol.Mul(one.Add(eventAdj))

	// Step 5: floor applied last. Callers resolve the "?? 0.0001" default
	// before calling Compose — MinRate here is always the final floor to use.
	final := decimalkit.Max(rAfterEvent, in.MinRate)

	return decimalkit.RoundHalfUp(final, decimalkit.DefaultPrecision)
}
