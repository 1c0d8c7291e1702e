package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	errOutOfRange = errors.New("money: amount out of range for words")

	smallWords = [...]string{
		"Zero", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
		"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
		"Seventeen", "Eighteen", "Nineteen",
	}
	tensWords = [...]string{
		"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
	}
)

// maxWords bounds the rupee part spelled out in the Indian system.
const maxWords = 1_000_000_000_000_000

// InWords spells an INR amount using Indian grouping, for example
// "Rupees One Lakh Eighteen Thousand Only". Amounts it cannot spell fall back
// to the formatted number, so the call never fails.
func InWords(amount decimal.Decimal) string {
	s, err := SpellRupees(amount)
	if err != nil {
		return "Rupees " + Format(amount) + " Only"
	}
	return s
}

// SpellRupees is InWords without the fallback.
func SpellRupees(amount decimal.Decimal) (string, error) {
	amount = Round(amount)
	if amount.IsNegative() {
		return "", errOutOfRange
	}
	rupees := amount.Truncate(0)
	if rupees.GreaterThanOrEqual(decimal.NewFromInt(maxWords)) {
		return "", errOutOfRange
	}
	paise := amount.Sub(rupees).Shift(Scale).IntPart()

	var b strings.Builder
	b.WriteString("Rupees ")
	b.WriteString(spellIndian(rupees.IntPart()))
	if paise > 0 {
		b.WriteString(" And ")
		b.WriteString(spellIndian(paise))
		b.WriteString(" Paise")
	}
	b.WriteString(" Only")
	return b.String(), nil
}

func spellIndian(n int64) string {
	if n == 0 {
		return smallWords[0]
	}
	var parts []string
	if n >= 10_000_000 {
		parts = append(parts, spellIndian(n/10_000_000), "Crore")
		n %= 10_000_000
	}
	if n >= 100_000 {
		parts = append(parts, spellBelowHundred(n/100_000), "Lakh")
		n %= 100_000
	}
	if n >= 1000 {
		parts = append(parts, spellBelowHundred(n/1000), "Thousand")
		n %= 1000
	}
	if n >= 100 {
		parts = append(parts, smallWords[n/100], "Hundred")
		n %= 100
	}
	if n > 0 {
		parts = append(parts, spellBelowHundred(n))
	}
	return strings.Join(parts, " ")
}

func spellBelowHundred(n int64) string {
	if n < 20 {
		return smallWords[n]
	}
	if n%10 == 0 {
		return tensWords[n/10]
	}
	return tensWords[n/10] + " " + smallWords[n%10]
}
