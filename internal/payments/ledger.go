package payments

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/invoicepro/invoicepro/internal/invoicing"
	"github.com/invoicepro/invoicepro/internal/money"
	"github.com/invoicepro/invoicepro/internal/platform/httpx"
	"github.com/invoicepro/invoicepro/internal/shared"
)

// ErrNegativeNetAmount rejects a payment whose deductions exceed the amount
// plus adjustment.
var ErrNegativeNetAmount = fmt.Errorf("payments: net amount must not be negative: %w", httpx.ErrValidation)

// Prepare derives the stored fields of p before a save: TDS from its
// percentage when no explicit amount is given, the net amount, and the
// on-hold flag implied by the status.
func Prepare(p *Payment) error {
	errs := shared.FieldErrors{}
	for field, v := range map[string]decimal.Decimal{
		"amount":         p.Amount,
		"tds_amount":     p.TDSAmount,
		"tds_percentage": p.TDSPercentage,
		"fine_amount":    p.FineAmount,
	} {
		if v.IsNegative() {
			errs.Add(field, "must not be negative")
		} else if !money.FitsScale(v) {
			errs.Add(field, "must have at most 2 decimal places")
		}
	}
	if !money.FitsScale(p.AdjustmentAmount) {
		errs.Add("adjustment_amount", "must have at most 2 decimal places")
	}
	if p.TDSPercentage.GreaterThan(money.Hundred) {
		errs.Add("tds_percentage", "must not exceed 100")
	}
	if p.PaymentDate.IsZero() {
		errs.Add("payment_date", "is required")
	}
	if err := errs.Err(); err != nil {
		return err
	}

	if p.TDSAmount.IsZero() && p.TDSPercentage.IsPositive() {
		p.TDSAmount = money.Percent(p.Amount, p.TDSPercentage)
	}
	p.NetAmount = p.Amount.Sub(p.TDSAmount).Sub(p.FineAmount).Add(p.AdjustmentAmount)
	if p.NetAmount.IsNegative() {
		return fmt.Errorf("%w (net %s)", ErrNegativeNetAmount, p.NetAmount)
	}

	switch p.Status {
	case StatusOnHold:
		p.IsOnHold = true
	case StatusReceived:
		p.IsOnHold = false
	}
	return nil
}

// Summarize aggregates payments for an invoice totalling total. Only
// received payments not on hold count as paid.
func Summarize(total decimal.Decimal, payments []Payment) invoicing.PaymentSummary {
	paid, onHold := decimal.Zero, decimal.Zero
	for _, p := range payments {
		if p.Status == StatusReceived && !p.IsOnHold {
			paid = paid.Add(p.NetAmount)
		}
		if p.IsOnHold {
			onHold = onHold.Add(p.NetAmount)
		}
	}
	return invoicing.PaymentSummary{
		InvoiceTotal: total,
		TotalPaid:    paid,
		TotalOnHold:  onHold,
		Outstanding:  total.Sub(paid),
		Status:       DerivePaymentStatus(paid, total),
		Count:        len(payments),
	}
}

// DerivePaymentStatus classifies paid against total.
func DerivePaymentStatus(paid, total decimal.Decimal) invoicing.PaymentStatus {
	switch {
	case paid.IsZero():
		return invoicing.PaymentUnpaid
	case paid.GreaterThanOrEqual(total):
		return invoicing.PaymentPaid
	case paid.IsPositive():
		return invoicing.PaymentPartial
	default:
		return invoicing.PaymentUnpaid
	}
}
