package reminders

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/invoicepro/invoicepro/internal/money"
	"github.com/invoicepro/invoicepro/internal/shared"
)

// Reminder is the notification sent to an invoice owner.
type Reminder struct {
	InvoiceID     int64           `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	To            string          `json:"to"`
	OwnerName     string          `json:"owner_name"`
	ClientName    string          `json:"client_name"`
	Total         decimal.Decimal `json:"total"`
	DueDate       shared.Date     `json:"due_date"`
	DaysUntilDue  int             `json:"days_until_due"`
	URL           string          `json:"url"`
}

// Overdue reports whether the due date has passed.
func (r Reminder) Overdue() bool { return r.DaysUntilDue < 0 }

// Subject is the e-mail subject line.
func (r Reminder) Subject() string {
	if r.Overdue() {
		return fmt.Sprintf("Reminder: Invoice %s Overdue", r.InvoiceNumber)
	}
	return fmt.Sprintf("Reminder: Invoice %s Due Soon", r.InvoiceNumber)
}

// Body is the plain text e-mail body.
func (r Reminder) Body() string {
	state := fmt.Sprintf("due in %d day(s)", r.DaysUntilDue)
	if r.Overdue() {
		state = "OVERDUE"
	}
	name := r.OwnerName
	if name == "" {
		name = r.To
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", name)
	fmt.Fprintf(&b, "This is a reminder that invoice %s for %s is %s.\n\n", r.InvoiceNumber, r.ClientName, state)
	b.WriteString("Invoice Details:\n")
	fmt.Fprintf(&b, "- Invoice Number: %s\n", r.InvoiceNumber)
	fmt.Fprintf(&b, "- Client: %s\n", r.ClientName)
	fmt.Fprintf(&b, "- Amount: %s\n", money.FormatCurrency("₹", r.Total))
	fmt.Fprintf(&b, "- Due Date: %s\n\n", r.DueDate.Format("January 02, 2006"))
	b.WriteString("Please follow up with the client to ensure timely payment.\n")
	if r.URL != "" {
		fmt.Fprintf(&b, "\nView Invoice: %s\n", r.URL)
	}
	b.WriteString("\nBest regards,\nInvoicePro System\n")
	return b.String()
}
