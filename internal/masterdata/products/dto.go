package products

import "github.com/shopspring/decimal"

type productRequest struct {
	Name      string           `json:"name" validate:"required,max=200"`
	SKU       string           `json:"sku" validate:"max=100"`
	Category  string           `json:"category" validate:"max=100"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	TaxRate   *decimal.Decimal `json:"tax_rate"`
	IsActive  *bool            `json:"is_active"`
}

func (req productRequest) toProduct() Product {
	p := Product{
		Name:      req.Name,
		SKU:       req.SKU,
		Category:  req.Category,
		UnitPrice: req.UnitPrice,
		TaxRate:   DefaultTaxRate,
		IsActive:  true,
	}
	if req.TaxRate != nil {
		p.TaxRate = *req.TaxRate
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	return p
}
