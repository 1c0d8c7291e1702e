package invoicing

import (
	"context"

	"github.com/shopspring/decimal"
)

// PaymentStatus classifies an invoice by what has been paid against it.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "UNPAID"
	PaymentPartial PaymentStatus = "PARTIAL"
	PaymentPaid    PaymentStatus = "PAID"
)

// PaymentSummary aggregates the payments recorded for one invoice.
type PaymentSummary struct {
	InvoiceTotal decimal.Decimal `json:"invoice_total"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	TotalOnHold  decimal.Decimal `json:"total_on_hold"`
	Outstanding  decimal.Decimal `json:"outstanding"`
	Status       PaymentStatus   `json:"payment_status"`
	Count        int             `json:"payment_count"`
}

// SummaryPort supplies payment aggregates for invoice detail responses.
type SummaryPort interface {
	Summary(ctx context.Context, userID, invoiceID int64) (PaymentSummary, error)
}
