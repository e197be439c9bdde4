// Package validation implements the ticker/position-value/loan-days/client-id
// validators (C10). Failing validation produces a structured error listing
// every failing field, not just the first.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"arespricing/internal/apperr"
)

var (
	tickerPattern   = regexp.MustCompile(`^[A-Z]{1,5}$`)
	clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,50}$`)

	minPositionValue = decimal.NewFromFloat(0.01)
	maxPositionValue = decimal.NewFromInt(1_000_000_000)
)

// FieldError is one failing field, matching the transport contract's
// validation_errors[] shape (field/location/message).
type FieldError struct {
	Field    string `json:"field"`
	Location string `json:"location"`
	Message  string `json:"message"`
}

// CalculateFeeInput is the raw request payload prior to validation.
type CalculateFeeInput struct {
	Ticker        string
	PositionValue decimal.Decimal
	LoanDays      int
	ClientID      string
}

// NormalizedFeeInput is the payload after validation has applied its only
// normalization step: uppercasing the ticker.
type NormalizedFeeInput struct {
	Ticker        string
	PositionValue decimal.Decimal
	LoanDays      int
	ClientID      string
}

// ValidateTicker uppercases t and checks it against ^[A-Z]{1,5}$.
func ValidateTicker(t string) (string, *FieldError) {
	upper := strings.ToUpper(strings.TrimSpace(t))
	if !tickerPattern.MatchString(upper) {
		return upper, &FieldError{Field: "ticker", Location: "body", Message: "must be 1-5 uppercase letters"}
	}
	return upper, nil
}

// ValidatePositionValue checks v is within [0.01, 1_000_000_000].
func ValidatePositionValue(v decimal.Decimal) *FieldError {
	if v.LessThan(minPositionValue) || v.GreaterThan(maxPositionValue) {
		return &FieldError{Field: "positionValue", Location: "body", Message: "must be between 0.01 and 1000000000"}
	}
	return nil
}

// ValidateLoanDays checks d is within [1, 365].
func ValidateLoanDays(d int) *FieldError {
	if d < 1 || d > 365 {
		return &FieldError{Field: "loanDays", Location: "body", Message: "must be an integer between 1 and 365"}
	}
	return nil
}

// ValidateClientID checks id against ^[A-Za-z0-9_-]{3,50}$.
func ValidateClientID(id string) *FieldError {
	if !clientIDPattern.MatchString(id) {
		return &FieldError{Field: "clientId", Location: "body", Message: "must be 3-50 characters from [A-Za-z0-9_-]"}
	}
	return nil
}

// ValidateCalculateFee runs every C10 validator against in, collecting every
// failing field rather than stopping at the first.
func ValidateCalculateFee(in CalculateFeeInput) (NormalizedFeeInput, error) {
	var errs []FieldError

	ticker, fe := ValidateTicker(in.Ticker)
	if fe != nil {
		errs = append(errs, *fe)
	}
	if fe := ValidatePositionValue(in.PositionValue); fe != nil {
		errs = append(errs, *fe)
	}
	if fe := ValidateLoanDays(in.LoanDays); fe != nil {
		errs = append(errs, *fe)
	}
	if fe := ValidateClientID(in.ClientID); fe != nil {
		errs = append(errs, *fe)
	}

	if len(errs) > 0 {
		details := make(map[string]interface{}, 1)
		details["validation_errors"] = errs
		return NormalizedFeeInput{}, apperr.New(apperr.KindInvalidParameter, fmt.Sprintf("%d field(s) failed validation", len(errs))).WithDetails(details)
	}

	return NormalizedFeeInput{
		Ticker:        ticker,
		PositionValue: in.PositionValue,
		LoanDays:      in.LoanDays,
		ClientID:      in.ClientID,
	}, nil
}
