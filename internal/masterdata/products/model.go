package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate applies when a product is created without a rate.
var DefaultTaxRate = decimal.NewFromInt(18)

// Product is a catalogue entry offered on invoices.
type Product struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku,omitempty"`
	Category  string          `json:"category,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
