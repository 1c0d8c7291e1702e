// Package money holds the decimal helpers shared by every amount-bearing
// package. Amounts and quantities are stored with two fractional digits.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Scale is the number of fractional digits persisted for amounts.
const Scale = 2

var (
	// Hundred is the percentage divisor.
	Hundred = decimal.NewFromInt(100)

	printer = message.NewPrinter(language.English)
)

// Round rounds half away from zero to Scale digits.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// FitsScale reports whether d carries no more than Scale fractional digits,
// so it is stored unchanged.
func FitsScale(d decimal.Decimal) bool {
	return d.Equal(Round(d))
}

// Percent returns base * rate / 100 rounded to Scale.
func Percent(base, rate decimal.Decimal) decimal.Decimal {
	return Round(base.Mul(rate).Div(Hundred))
}

// Sum adds values.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Parse reads an amount, treating the empty string as zero.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return d, nil
}

// Format renders d with thousands separators and two decimals, e.g. 1,180.00.
func Format(d decimal.Decimal) string {
	d = Round(d)
	neg := d.IsNegative()
	whole := d.Abs().Truncate(0)
	frac := d.Abs().Sub(whole).Shift(Scale).IntPart()

	var grouped string
	if whole.IsInteger() && whole.LessThan(decimal.New(1, 18)) {
		grouped = printer.Sprintf("%d", whole.IntPart())
	} else {
		grouped = whole.String()
	}
	out := fmt.Sprintf("%s.%02d", grouped, frac)
	if neg {
		return "-" + out
	}
	return out
}

// FormatCurrency prefixes Format with a currency symbol.
func FormatCurrency(symbol string, d decimal.Decimal) string {
	return symbol + Format(d)
}
