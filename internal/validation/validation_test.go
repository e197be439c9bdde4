package validation

import (
	"testing"

	"github.com/shopspring/decimal"

	"arespricing/internal/apperr"
)

func TestValidateTicker(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"aapl", "AAPL", false},
		{"TSLA", "TSLA", false},
		{"TOOLONG", "TOOLONG", true},
		{"", "", true},
		{"AB12", "AB12", true},
	}
	for _, tt := range tests {
		got, fe := ValidateTicker(tt.in)
		if got != tt.want {
			t.Errorf("ValidateTicker(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if (fe != nil) != tt.wantErr {
			t.Errorf("ValidateTicker(%q) error = %v, wantErr %v", tt.in, fe, tt.wantErr)
		}
	}
}

func TestValidatePositionValue(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"0.01", false},
		{"1000000000", false},
		{"0.001", true},
		{"1000000001", true},
	}
	for _, tt := range tests {
		v, _ := decimal.NewFromString(tt.in)
		fe := ValidatePositionValue(v)
		if (fe != nil) != tt.wantErr {
			t.Errorf("ValidatePositionValue(%s) error = %v, wantErr %v", tt.in, fe, tt.wantErr)
		}
	}
}

func TestValidateLoanDays(t *testing.T) {
	tests := []struct {
		in      int
		wantErr bool
	}{
		{1, false},
		{365, false},
		{0, true},
		{366, true},
		{-1, true},
	}
	for _, tt := range tests {
		fe := ValidateLoanDays(tt.in)
		if (fe != nil) != tt.wantErr {
			t.Errorf("ValidateLoanDays(%d) error = %v, wantErr %v", tt.in, fe, tt.wantErr)
		}
	}
}

func TestValidateClientID(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"abc", false},
		{"client_123-ABC", false},
		{"ab", true},
		{"has a space", true},
	}
	for _, tt := range tests {
		fe := ValidateClientID(tt.in)
		if (fe != nil) != tt.wantErr {
			t.Errorf("ValidateClientID(%q) error = %v, wantErr %v", tt.in, fe, tt.wantErr)
		}
	}
}

func TestValidateCalculateFee_CollectsAllFailures(t *testing.T) {
	in := CalculateFeeInput{
		Ticker:        "toolongticker",
		PositionValue: decimal.NewFromFloat(0.001),
		LoanDays:      0,
		ClientID:      "x",
	}

	_, err := ValidateCalculateFee(in)
	if err == nil {
		t.Fatal("expected validation error")
	}

	appErr, ok := apperr.As(err)
	if !ok {
		t.Fatalf("expected *apperr.Error, got %T", err)
	}
	if appErr.Kind != apperr.KindInvalidParameter {
		t.Errorf("Kind = %s, want InvalidParameter", appErr.Kind)
	}

	errs, ok := appErr.Details["validation_errors"].([]FieldError)
	if !ok {
		t.Fatalf("details missing validation_errors slice, got %T", appErr.Details["validation_errors"])
	}
	if len(errs) != 4 {
		t.Errorf("got %d field errors, want 4 (ticker, positionValue, loanDays, clientId)", len(errs))
	}
}

func TestValidateCalculateFee_Success(t *testing.T) {
	in := CalculateFeeInput{
		Ticker:        "aapl",
		PositionValue: decimal.NewFromInt(1000),
		LoanDays:      30,
		ClientID:      "client-1",
	}

	out, err := ValidateCalculateFee(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Ticker != "AAPL" {
		t.Errorf("Ticker = %q, want normalized AAPL", out.Ticker)
	}
}
