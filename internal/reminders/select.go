// Package reminders finds invoices that are due soon or past due and sends
// their owners a reminder.
package reminders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoicepro/invoicepro/internal/invoicing"
	"github.com/invoicepro/invoicepro/internal/shared"
)

// Defaults for the sweep window.
const (
	DefaultDaysBefore = 3
	DefaultDaysAfter  = 0
)

// quietPeriod is how long an invoice is left alone after a reminder.
const quietPeriod = 24 * time.Hour

// Options configures one sweep.
type Options struct {
	DaysBefore int
	DaysAfter  int
	DryRun     bool
	Now        time.Time
}

// Kind tells why an invoice was selected.
type Kind string

const (
	KindUpcoming Kind = "upcoming"
	KindOverdue  Kind = "overdue"
)

// Window is the set of dates a sweep matches against.
type Window struct {
	Today         shared.Date
	UpcomingDue   shared.Date
	OverdueCutoff shared.Date
	RemindedSince time.Time
}

// NewWindow derives the sweep dates from opts.
func NewWindow(opts Options) Window {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	today := shared.DateOf(now)
	return Window{
		Today:         today,
		UpcomingDue:   today.AddDays(opts.DaysBefore),
		OverdueCutoff: today.AddDays(-opts.DaysAfter),
		RemindedSince: now.Add(-quietPeriod),
	}
}

// Candidate is an invoice row joined with its company owner and client.
type Candidate struct {
	InvoiceID      int64
	InvoiceNumber  string
	CompanyID      *int64
	CompanyName    string
	ClientName     string
	OwnerEmail     string
	OwnerName      string
	DueDate        shared.Date
	Total          decimal.Decimal
	Status         invoicing.Status
	ReminderSentAt *time.Time
}

// Classify reports whether c needs a reminder in w. Invoices without a
// company and invoices reminded within the quiet period never do.
func Classify(c Candidate, w Window) (Kind, bool) {
	if c.CompanyID == nil {
		return "", false
	}
	if c.ReminderSentAt != nil && !c.ReminderSentAt.Before(w.RemindedSince) {
		return "", false
	}
	if c.DueDate.Equal(w.UpcomingDue) && (c.Status == invoicing.StatusPending || c.Status == invoicing.StatusOverdue) {
		return KindUpcoming, true
	}
	if !c.DueDate.After(w.OverdueCutoff.Time) && c.Status == invoicing.StatusPending {
		return KindOverdue, true
	}
	return "", false
}

// Selected is a candidate picked by Select.
type Selected struct {
	Candidate
	Kind Kind
}

// Select keeps the candidates that need a reminder, each at most once.
func Select(candidates []Candidate, w Window) []Selected {
	seen := make(map[int64]bool, len(candidates))
	var out []Selected
	for _, c := range candidates {
		if seen[c.InvoiceID] {
			continue
		}
		kind, ok := Classify(c, w)
		if !ok {
			continue
		}
		seen[c.InvoiceID] = true
		out = append(out, Selected{Candidate: c, Kind: kind})
	}
	return out
}
