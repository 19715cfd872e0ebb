package id

import (
	"math/big"
	"testing"
)

func TestNormalizeAmountBaseUnits(t *testing.T) {
	base, dec, err := NormalizeAmount("1000000", "", 6)
	if err != nil {
		t.Fatalf("NormalizeAmount failed: %v", err)
	}
	if base != "1000000" || dec != "1" {
		t.Fatalf("unexpected result: base=%s dec=%s", base, dec)
	}
}

func TestNormalizeAmountDecimal(t *testing.T) {
	base, dec, err := NormalizeAmount("", "1.25", 6)
	if err != nil {
		t.Fatalf("NormalizeAmount failed: %v", err)
	}
	if base != "1250000" || dec != "1.25" {
		t.Fatalf("unexpected result: base=%s dec=%s", base, dec)
	}
}

func TestNormalizeAmountTrailingZerosWithinPrecision(t *testing.T) {
	base, _, err := NormalizeAmount("", "2.50000000", 6)
	if err != nil {
		t.Fatalf("NormalizeAmount failed: %v", err)
	}
	if base != "2500000" {
		t.Fatalf("unexpected base units: %s", base)
	}
}

func TestNormalizeAmountValidation(t *testing.T) {
	if _, _, err := NormalizeAmount("10", "1", 6); err == nil {
		t.Fatal("expected mutual exclusivity error")
	}
	if _, _, err := NormalizeAmount("", "1.1234567", 6); err == nil {
		t.Fatal("expected precision error")
	}
	if _, _, err := NormalizeAmount("-5", "", 6); err == nil {
		t.Fatal("expected negative amount error")
	}
	if _, _, err := NormalizeAmount("", "1e5", 6); err == nil {
		t.Fatal("expected scientific notation to be rejected")
	}
}

func TestFormatDecimal(t *testing.T) {
	if got := FormatDecimalCompat("0", 6); got != "0" {
		t.Fatalf("unexpected zero format: %s", got)
	}
	if got := FormatDecimal(big.NewInt(1500000000000000000), 18); got != "1.5" {
		t.Fatalf("unexpected format: %s", got)
	}
	if got := FormatDecimal(big.NewInt(42), 0); got != "42" {
		t.Fatalf("unexpected format: %s", got)
	}
}
