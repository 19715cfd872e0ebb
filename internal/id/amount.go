package id

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	clierr "github.com/nhd98z/kyberswap-aggregator-sdk/internal/errors"
)

var decimalPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// NormalizeAmount accepts exactly one of a base-unit integer or a decimal amount
// and returns both representations.
func NormalizeAmount(baseUnits, decimalAmount string, decimals int) (string, string, error) {
	baseUnits = strings.TrimSpace(baseUnits)
	decimalAmount = strings.TrimSpace(decimalAmount)
	if baseUnits != "" && decimalAmount != "" {
		return "", "", clierr.New(clierr.CodeUsage, "use either --amount or --amount-decimal, not both")
	}
	if baseUnits == "" && decimalAmount == "" {
		return "", "", clierr.New(clierr.CodeUsage, "amount is required")
	}
	if decimals < 0 {
		return "", "", clierr.New(clierr.CodeUsage, "decimals must be >= 0")
	}

	if baseUnits != "" {
		n, ok := new(big.Int).SetString(baseUnits, 10)
		if !ok {
			return "", "", clierr.New(clierr.CodeUsage, "--amount must be an integer string")
		}
		if n.Sign() < 0 {
			return "", "", clierr.New(clierr.CodeUsage, "--amount must be non-negative")
		}
		return n.String(), FormatDecimal(n, decimals), nil
	}

	base, err := ParseDecimalAmount(decimalAmount, decimals)
	if err != nil {
		return "", "", err
	}
	return base.String(), FormatDecimal(base, decimals), nil
}

// ParseDecimalAmount converts a human amount like "1.25" into base units.
func ParseDecimalAmount(v string, decimals int) (*big.Int, error) {
	if !decimalPattern.MatchString(v) {
		return nil, clierr.New(clierr.CodeUsage, "amount must be in decimal form like 1.23")
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUsage, "invalid decimal amount", err)
	}
	if exp := d.Exponent(); exp < 0 && int(-exp) > decimals {
		// trailing zeros do not count against precision
		trimmed := strings.TrimRight(strings.SplitN(v, ".", 2)[1], "0")
		if len(trimmed) > decimals {
			return nil, clierr.New(clierr.CodeUsage, fmt.Sprintf("decimal precision exceeds token decimals (%d)", decimals))
		}
	}
	return d.Shift(int32(decimals)).BigInt(), nil
}

// FormatDecimal renders base units as a trimmed decimal string.
func FormatDecimal(baseUnits *big.Int, decimals int) string {
	if baseUnits == nil {
		return "0"
	}
	return decimal.NewFromBigInt(baseUnits, int32(-decimals)).String()
}

// FormatDecimalCompat converts base-unit integer strings into decimal strings.
func FormatDecimalCompat(baseUnits string, decimals int) string {
	n, ok := new(big.Int).SetString(strings.TrimSpace(baseUnits), 10)
	if !ok {
		return ""
	}
	return FormatDecimal(n, decimals)
}
