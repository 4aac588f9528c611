// Package currency formats and rounds money amounts for display and for
// market-friendly price suggestions.
package currency

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Formatter maps an amount to a display string.
type Formatter func(amount float64) string

// IDR formats an amount as Indonesian rupiah: whole units, '.' as the
// thousands separator, e.g. "Rp 12.500".
func IDR(amount float64) string {
	return grouped("Rp ", amount, ".")
}

// USD formats an amount with a dollar sign and ',' grouping, rounded to
// whole units like IDR.
func USD(amount float64) string {
	return grouped("$", amount, ",")
}

// ForCode returns the formatter for an ISO currency code, defaulting to IDR.
func ForCode(code string) Formatter {
	switch strings.ToUpper(code) {
	case "USD":
		return USD
	default:
		return IDR
	}
}

func grouped(symbol string, amount float64, sep string) string {
	n := decimal.NewFromFloat(amount).Round(0).IntPart()
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := humanize.Comma(n)
	if sep != "," {
		s = strings.ReplaceAll(s, ",", sep)
	}
	return sign + symbol + s
}

// RoundUpTo rounds v up to the next multiple of step. Float noise below
// 1e-6 is discarded first so 3000.0000000000005 rounds to 3000, not 3500.
func RoundUpTo(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	d := decimal.NewFromFloat(v).Round(6)
	s := decimal.NewFromFloat(step)
	out, _ := d.Div(s).Ceil().Mul(s).Float64()
	return out
}

// Round2 rounds to two decimals, used for percentages in alert text.
func Round2(v float64) float64 {
	out, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return out
}
