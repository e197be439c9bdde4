// Package feeengine computes the locate fee breakdown from a position, loan
// term, the final annualized rate, and the client's broker config (C6). It
// is pure and never receives negative inputs — C10 rejects those upstream.
package feeengine

import (
	"github.com/shopspring/decimal"

	"arespricing/internal/apperr"
	"arespricing/internal/decimalkit"
)

// FeeType mirrors the BrokerConfig fee model.
type FeeType string

const (
	FeeTypeFlat       FeeType = "FLAT"
	FeeTypePercentage FeeType = "PERCENTAGE"
)

// Inputs is everything needed to compose a fee breakdown.
type Inputs struct {
	PositionValue decimal.Decimal
	LoanDays      int
	AnnualRate    decimal.Decimal
	MarkupPct     decimal.Decimal
	FeeType       FeeType
	FeeAmount     decimal.Decimal
}

// Breakdown is the fee composition's output, with the invariant that the
// three components sum to TotalFee within the rounding step.
type Breakdown struct {
	BorrowCost      decimal.Decimal `json:"borrowCost"`
	Markup          decimal.Decimal `json:"markup"`
	TransactionFees decimal.Decimal `json:"transactionFees"`
	TotalFee        decimal.Decimal `json:"totalFee"`
}

// Compose implements the engine's five-step fee formula. positionValue=0 or
// loanDays=0 yield a zero borrowCost and markup; a FLAT transactionFee
// still applies in that case, while a PERCENTAGE fee on a zero position is
// zero.
func Compose(in Inputs) (Breakdown, error) {
	days := decimal.NewFromInt(int64(in.LoanDays))

	dailyRate := decimalkit.Div(in.AnnualRate, decimal.NewFromInt(decimalkit.DaysInYear), decimal.Zero)

	borrowCost := decimalkit.RoundHalfUp(in.PositionValue.Mul(dailyRate).Mul(days), decimalkit.DefaultPrecision)
	markup := decimalkit.RoundHalfUp(decimalkit.PercentOf(borrowCost, in.MarkupPct), decimalkit.DefaultPrecision)

	var txFee decimal.Decimal
	switch in.FeeType {
	case FeeTypeFlat:
		txFee = in.FeeAmount
	case FeeTypePercentage:
		txFee = decimalkit.RoundHalfUp(decimalkit.PercentOf(in.PositionValue, in.FeeAmount), decimalkit.DefaultPrecision)
	default:
		return Breakdown{}, apperr.New(apperr.KindCalculationError, "unknown fee type").WithDetails(map[string]interface{}{
			"feeType": string(in.FeeType),
		})
	}

	total := decimalkit.RoundHalfUp(borrowCost.Add(markup).Add(txFee), decimalkit.DefaultPrecision)

	if borrowCost.IsNegative() || markup.IsNegative() || txFee.IsNegative() || total.IsNegative() {
		return Breakdown{}, apperr.New(apperr.KindCalculationError, "fee breakdown produced a negative component").WithDetails(map[string]interface{}{
			"borrowCost": borrowCost.String(),
			"markup":     markup.String(),
			"txFee":      txFee.String(),
			"total":      total.String(),
		})
	}

	return Breakdown{
		BorrowCost:      borrowCost,
		Markup:          markup,
		TransactionFees: txFee,
		TotalFee:        total,
	}, nil
}
