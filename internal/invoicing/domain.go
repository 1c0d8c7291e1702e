package invoicing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoicepro/invoicepro/internal/money"
	"github.com/invoicepro/invoicepro/internal/shared"
)

// Default GST split applied when an invoice is created without rates.
var (
	DefaultCGSTRate = decimal.NewFromInt(9)
	DefaultSGSTRate = decimal.NewFromInt(9)
)

// Invoice is a tax invoice issued by a company to a client, optionally
// drawn against one purchase order.
type Invoice struct {
	ID                   int64           `json:"id"`
	InvoiceNumber        string          `json:"invoice_number"`
	CompanyID            *int64          `json:"company_id"`
	ClientID             int64           `json:"client_id"`
	ClientName           string          `json:"client_name,omitempty"`
	POReferenceID        *int64          `json:"po_reference_id"`
	PONumber             string          `json:"po_number,omitempty"`
	PODate               *shared.Date    `json:"po_date"`
	VendorCode           string          `json:"vendor_code,omitempty"`
	InvoiceDate          shared.Date     `json:"invoice_date"`
	DueDate              shared.Date     `json:"due_date"`
	TaxRate              decimal.Decimal `json:"tax_rate"`
	CGSTRate             decimal.Decimal `json:"cgst_rate"`
	SGSTRate             decimal.Decimal `json:"sgst_rate"`
	Discount             decimal.Decimal `json:"discount"`
	Subtotal             decimal.Decimal `json:"subtotal"`
	CGSTAmount           decimal.Decimal `json:"cgst_amount"`
	SGSTAmount           decimal.Decimal `json:"sgst_amount"`
	TaxAmount            decimal.Decimal `json:"tax_amount"`
	Total                decimal.Decimal `json:"total"`
	PlaceOfSupply        string          `json:"place_of_supply,omitempty"`
	StateCode            string          `json:"state_code,omitempty"`
	ReverseCharge        bool            `json:"reverse_charge"`
	ReverseChargeAmount  decimal.Decimal `json:"reverse_charge_amount"`
	Status               Status          `json:"status"`
	Notes                string          `json:"notes,omitempty"`
	MeasurementSheetPath string          `json:"measurement_sheet_path,omitempty"`
	BillSummaryPath      string          `json:"bill_summary_path,omitempty"`
	CreatedBy            int64           `json:"created_by"`
	ReminderSentAt       *time.Time      `json:"reminder_sent_at"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	Items                []Item          `json:"items"`
}

// TaxableAmount is the subtotal after discount.
func (inv Invoice) TaxableAmount() decimal.Decimal {
	return inv.Subtotal.Sub(inv.Discount)
}

// AmountInWords spells the invoice total for printed documents.
func (inv Invoice) AmountInWords() string {
	return money.InWords(inv.Total)
}

// Item is one invoice line. When POLineItemID is set the quantity is drawn
// from that purchase order line.
type Item struct {
	ID           int64           `json:"id"`
	InvoiceID    int64           `json:"invoice_id"`
	POLineItemID *int64          `json:"po_line_item_id"`
	Description  string          `json:"description"`
	SACCode      string          `json:"sac_code,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	Rate         decimal.Decimal `json:"rate"`
	Total        decimal.Decimal `json:"total"`
	CreatedAt    time.Time       `json:"created_at"`
}

// HeaderInput carries the editable invoice header fields.
type HeaderInput struct {
	InvoiceNumber       string           `json:"invoice_number" validate:"max=100"`
	CompanyID           *int64           `json:"company_id"`
	ClientID            int64            `json:"client_id" validate:"required"`
	POReferenceID       *int64           `json:"po_reference_id"`
	PONumber            string           `json:"po_number" validate:"max=100"`
	PODate              *shared.Date     `json:"po_date"`
	VendorCode          string           `json:"vendor_code" validate:"max=50"`
	InvoiceDate         shared.Date      `json:"invoice_date"`
	DueDate             *shared.Date     `json:"due_date"`
	CGSTRate            *decimal.Decimal `json:"cgst_rate"`
	SGSTRate            *decimal.Decimal `json:"sgst_rate"`
	Discount            decimal.Decimal  `json:"discount"`
	PlaceOfSupply       string           `json:"place_of_supply" validate:"max=200"`
	StateCode           string           `json:"state_code" validate:"omitempty,len=2"`
	ReverseCharge       bool             `json:"reverse_charge"`
	ReverseChargeAmount decimal.Decimal  `json:"reverse_charge_amount"`
	Status              Status           `json:"status" validate:"omitempty,oneof=DRAFT PENDING PAID OVERDUE"`
	Notes               string           `json:"notes"`
}

// ItemInput describes an item write. ID selects an existing item when the
// full item set of an invoice is replaced.
type ItemInput struct {
	ID           int64           `json:"id"`
	POLineItemID *int64          `json:"po_line_item_id"`
	Description  string          `json:"description" validate:"required,max=500"`
	SACCode      string          `json:"sac_code" validate:"max=10"`
	Quantity     decimal.Decimal `json:"quantity"`
	Rate         decimal.Decimal `json:"rate"`
}

// CreateInput is a new invoice with its items.
type CreateInput struct {
	HeaderInput
	Items []ItemInput `json:"items"`
}

// UpdateInput edits the header. A non-nil Items replaces the item set:
// entries with an ID are edited, entries without one are added and current
// items not listed are removed.
type UpdateInput struct {
	HeaderInput
	Items *[]ItemInput `json:"items"`
}

// ListFilter narrows invoice listings.
type ListFilter struct {
	Status    Status
	CompanyID int64
	ClientID  int64
	Search    string
	Limit     int
	Offset    int
}
