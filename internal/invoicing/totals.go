package invoicing

import (
	"github.com/shopspring/decimal"

	"github.com/invoicepro/invoicepro/internal/money"
)

// ItemTotal is quantity times rate at amount precision.
func ItemTotal(quantity, rate decimal.Decimal) decimal.Decimal {
	return money.Round(quantity.Mul(rate))
}

// CalculateTotals derives subtotal, CGST, SGST, tax and total of inv from
// items. The split rates are independent percentages of the taxable amount;
// each tax amount is rounded to paise, so total always equals taxable plus
// the two stored tax amounts. Running it twice yields the same values.
func CalculateTotals(inv *Invoice, items []Item) {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Total)
	}
	taxable := subtotal.Sub(inv.Discount)

	inv.Subtotal = subtotal
	inv.CGSTAmount = money.Percent(taxable, inv.CGSTRate)
	inv.SGSTAmount = money.Percent(taxable, inv.SGSTRate)
	inv.TaxAmount = inv.CGSTAmount.Add(inv.SGSTAmount)
	inv.Total = taxable.Add(inv.TaxAmount)
}
