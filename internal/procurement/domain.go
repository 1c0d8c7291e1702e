package procurement

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrder is a client PO with one main line and its sublines.
type PurchaseOrder struct {
	ID                  int64      `json:"id"`
	CompanyID           int64      `json:"company_id"`
	PONumber            string     `json:"po_number"`
	MainLineNumber      string     `json:"main_line_number"`
	MainLineDescription string     `json:"main_line_description"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	Lines               []LineItem `json:"lines,omitempty"`
}

// Total sums the line totals.
func (po PurchaseOrder) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range po.Lines {
		total = total.Add(l.Total())
	}
	return total
}

// Display is the label used by selection lists.
func (po PurchaseOrder) Display() string {
	return po.PONumber + " - " + po.MainLineDescription
}

// LineItem is a PO subline whose quantity invoices draw down.
type LineItem struct {
	ID                 int64           `json:"id"`
	PurchaseOrderID    int64           `json:"purchase_order_id"`
	SublineNumber      string          `json:"subline_number"`
	SublineDescription string          `json:"subline_description"`
	Quantity           decimal.Decimal `json:"quantity"`
	Price              decimal.Decimal `json:"price"`
	UOMID              int64           `json:"uom_id"`
	UOMCode            string          `json:"uom_code,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// Total is quantity times price.
func (l LineItem) Total() decimal.Decimal {
	return l.Quantity.Mul(l.Price)
}

// Usage is one invoice item drawing quantity from a PO line.
type Usage struct {
	InvoiceID  int64
	LineItemID int64
	Quantity   decimal.Decimal
}

// LineAvailability is the read model exposed to invoice forms.
type LineAvailability struct {
	ID                int64           `json:"id"`
	SublineNumber     string          `json:"subline_number"`
	Description       string          `json:"description"`
	Quantity          decimal.Decimal `json:"quantity"`
	InvoicedQuantity  decimal.Decimal `json:"invoiced_quantity"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	Price             decimal.Decimal `json:"price"`
	UOMCode           string          `json:"uom_code,omitempty"`
}

// CreateInput carries a new purchase order with its lines.
type CreateInput struct {
	CompanyID           int64       `json:"company_id" validate:"required"`
	PONumber            string      `json:"po_number" validate:"required,max=100"`
	MainLineNumber      string      `json:"main_line_number" validate:"required,max=50"`
	MainLineDescription string      `json:"main_line_description" validate:"required,max=500"`
	Lines               []LineInput `json:"lines" validate:"required,min=1,dive"`
}

// UpdateInput replaces the header and line set. Lines carrying an ID are
// edited in place, lines without one are added, and missing lines are removed.
type UpdateInput struct {
	PONumber            string      `json:"po_number" validate:"required,max=100"`
	MainLineNumber      string      `json:"main_line_number" validate:"required,max=50"`
	MainLineDescription string      `json:"main_line_description" validate:"required,max=500"`
	Lines               []LineInput `json:"lines" validate:"required,min=1,dive"`
}

// LineInput describes one subline.
type LineInput struct {
	ID                 int64           `json:"id"`
	SublineNumber      string          `json:"subline_number" validate:"required,max=50"`
	SublineDescription string          `json:"subline_description" validate:"required,max=500"`
	Quantity           decimal.Decimal `json:"quantity"`
	Price              decimal.Decimal `json:"price"`
	UOMID              int64           `json:"uom_id" validate:"required"`
}

// ListFilter narrows purchase order listings.
type ListFilter struct {
	CompanyID int64
	Search    string
	Limit     int
	Offset    int
}
