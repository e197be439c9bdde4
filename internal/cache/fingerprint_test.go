package cache

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFingerprint_EqualInputsProduceEqualFingerprints(t *testing.T) {
	a := Fingerprint("aapl", decimal.NewFromFloat(1000.00), 30, decimal.NewFromFloat(5.0), "FLAT", decimal.NewFromFloat(25.0))
	b := Fingerprint("AAPL", decimal.NewFromFloat(1000.00), 30, decimal.NewFromFloat(5.0), "FLAT", decimal.NewFromFloat(25.0))
	if a != b {
		t.Errorf("Fingerprint differs by ticker casing: %q vs %q", a, b)
	}
}

func TestFingerprint_DifferentInputsProduceDifferentFingerprints(t *testing.T) {
	a := Fingerprint("AAPL", decimal.NewFromFloat(1000), 30, decimal.NewFromFloat(5), "FLAT", decimal.NewFromFloat(25))
	b := Fingerprint("AAPL", decimal.NewFromFloat(1000), 31, decimal.NewFromFloat(5), "FLAT", decimal.NewFromFloat(25))
	if a == b {
		t.Errorf("Fingerprint should differ when loanDays differs: %q", a)
	}
}

func TestFingerprint_CanonicalDecimalFormatting(t *testing.T) {
	a := Fingerprint("AAPL", decimal.NewFromFloat(1000.00), 30, decimal.NewFromFloat(5.0), "FLAT", decimal.NewFromFloat(25.0))
	b := Fingerprint("AAPL", decimal.RequireFromString("1000.0000"), 30, decimal.RequireFromString("5.00"), "FLAT", decimal.RequireFromString("25"))
	if a != b {
		t.Errorf("Fingerprint should normalize trailing-zero decimal forms: %q vs %q", a, b)
	}
}

func TestKey(t *testing.T) {
	got := Key(NamespaceBorrowRate, "AAPL")
	want := "borrow_rate:AAPL"
	if got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
}
