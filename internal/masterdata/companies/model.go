package companies

import (
	"time"

	"github.com/shopspring/decimal"
)

// Defaults applied when a company is created without invoice settings.
const (
	DefaultInvoicePrefix = "INV-"
	DefaultDueDays       = 30
	DefaultCurrency      = "₹ INR"
)

// DefaultTaxRate is the tax rate suggested for new invoices.
var DefaultTaxRate = decimal.NewFromInt(18)

// Company is a billing entity owned by one user. Every purchase order and
// invoice is scoped through its company.
type Company struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	Name           string          `json:"name"`
	GSTIN          string          `json:"gstin,omitempty"`
	PAN            string          `json:"pan,omitempty"`
	CIN            string          `json:"cin,omitempty"`
	Address        string          `json:"address"`
	Email          string          `json:"email,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	InvoicePrefix  string          `json:"invoice_prefix"`
	DefaultDueDays int             `json:"default_due_days"`
	DefaultTaxRate decimal.Decimal `json:"default_tax_rate"`
	Currency       string          `json:"currency"`
	BankName       string          `json:"bank_name,omitempty"`
	AccountNumber  string          `json:"account_number,omitempty"`
	IFSCCode       string          `json:"ifsc_code,omitempty"`
	Branch         string          `json:"branch,omitempty"`
	StampPath      string          `json:"stamp_path,omitempty"`
	IsActive       bool            `json:"is_active"`
	IsDefault      bool            `json:"is_default"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// StateCode returns the two digit GST state code, taken from the GSTIN.
func (c Company) StateCode() string {
	if len(c.GSTIN) >= 2 {
		return c.GSTIN[:2]
	}
	return ""
}

func applyDefaults(c Company) Company {
	if c.InvoicePrefix == "" {
		c.InvoicePrefix = DefaultInvoicePrefix
	}
	if c.DefaultDueDays == 0 {
		c.DefaultDueDays = DefaultDueDays
	}
	if c.DefaultTaxRate.IsZero() {
		c.DefaultTaxRate = DefaultTaxRate
	}
	if c.Currency == "" {
		c.Currency = DefaultCurrency
	}
	return c
}
