// Package dashboard aggregates invoice statistics for the dashboard and
// reports pages. Figures are scoped to the invoices the caller can see.
package dashboard

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoicepro/invoicepro/internal/invoicing"
	"github.com/invoicepro/invoicepro/internal/shared"
)

// trendMonths is the length of the monthly revenue series.
const trendMonths = 6

// StatusTotal is the invoice count and amount for one status.
type StatusTotal struct {
	Status invoicing.Status `json:"status"`
	Count  int              `json:"count"`
	Amount decimal.Decimal  `json:"amount"`
}

// MonthRevenue is the revenue invoiced in one calendar month.
type MonthRevenue struct {
	Month   string          `json:"month"`
	Start   shared.Date     `json:"start"`
	Revenue decimal.Decimal `json:"revenue"`
}

// RecentInvoice is a row of the latest invoices list.
type RecentInvoice struct {
	ID            int64            `json:"id"`
	InvoiceNumber string           `json:"invoice_number"`
	ClientName    string           `json:"client_name"`
	InvoiceDate   shared.Date      `json:"invoice_date"`
	Total         decimal.Decimal  `json:"total"`
	Status        invoicing.Status `json:"status"`
	StatusClass   string           `json:"status_class"`
	CreatedAt     time.Time        `json:"created_at"`
}

// ClientRevenue ranks clients by invoiced amount.
type ClientRevenue struct {
	ClientID     int64           `json:"client_id"`
	Name         string          `json:"name"`
	InvoiceCount int             `json:"invoice_count"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// Dashboard is the landing page summary.
type Dashboard struct {
	TotalInvoices   int                      `json:"total_invoices"`
	PaidAmount      decimal.Decimal          `json:"paid_amount"`
	PendingAmount   decimal.Decimal          `json:"pending_amount"`
	OverdueAmount   decimal.Decimal          `json:"overdue_amount"`
	ActiveClients   int                      `json:"active_clients"`
	StatusBreakdown map[invoicing.Status]int `json:"status_breakdown"`
	MonthlyRevenue  []MonthRevenue           `json:"monthly_revenue"`
	RecentInvoices  []RecentInvoice          `json:"recent_invoices"`
	TopClients      []ClientRevenue          `json:"top_clients"`
	GeneratedAt     time.Time                `json:"generated_at"`
}

// Reports is the analytics page.
type Reports struct {
	TotalRevenue    decimal.Decimal          `json:"total_revenue"`
	PaidCount       int                      `json:"paid_count"`
	PendingCount    int                      `json:"pending_count"`
	OverdueCount    int                      `json:"overdue_count"`
	DraftCount      int                      `json:"draft_count"`
	StatusBreakdown map[invoicing.Status]int `json:"status_breakdown"`
	MonthlyRevenue  []MonthRevenue           `json:"monthly_revenue"`
	ClientRevenue   []ClientRevenue          `json:"client_revenue"`
	GeneratedAt     time.Time                `json:"generated_at"`
}

// Month is one calendar month window.
type Month struct {
	Start shared.Date
	End   shared.Date
	Label string
}

// LastMonths returns the n calendar months ending with the month of now,
// oldest first.
func LastMonths(now time.Time, n int, layout string) []Month {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	months := make([]Month, 0, n)
	for i := n - 1; i >= 0; i-- {
		start := first.AddDate(0, -i, 0)
		end := start.AddDate(0, 1, -1)
		months = append(months, Month{
			Start: shared.DateOf(start),
			End:   shared.DateOf(end),
			Label: start.Format(layout),
		})
	}
	return months
}

// fillMonths lays amounts keyed by month start over months, zero filling
// months without invoices.
func fillMonths(months []Month, amounts map[string]decimal.Decimal) []MonthRevenue {
	out := make([]MonthRevenue, 0, len(months))
	for _, m := range months {
		out = append(out, MonthRevenue{Month: m.Label, Start: m.Start, Revenue: amounts[m.Start.String()]})
	}
	return out
}

func breakdown(totals []StatusTotal) map[invoicing.Status]int {
	out := map[invoicing.Status]int{
		invoicing.StatusPaid:    0,
		invoicing.StatusPending: 0,
		invoicing.StatusOverdue: 0,
		invoicing.StatusDraft:   0,
	}
	for _, t := range totals {
		out[t.Status] += t.Count
	}
	return out
}

func totalFor(totals []StatusTotal, status invoicing.Status) StatusTotal {
	for _, t := range totals {
		if t.Status == status {
			return t
		}
	}
	return StatusTotal{Status: status, Amount: decimal.Zero}
}

// shortName trims long client names for chart labels.
func shortName(name string) string {
	r := []rune(name)
	if len(r) > 20 {
		return string(r[:20]) + "..."
	}
	return name
}
