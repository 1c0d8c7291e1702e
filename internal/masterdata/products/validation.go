package products

import (
	"strings"

	"github.com/invoicepro/invoicepro/internal/money"
	internalShared "github.com/invoicepro/invoicepro/internal/shared"
)

func (s *Service) validate(p Product) error {
	errs := internalShared.FieldErrors{}
	if strings.TrimSpace(p.Name) == "" {
		errs.Add("name", "is required")
	}
	if p.UnitPrice.IsNegative() {
		errs.Add("unit_price", "must not be negative")
	}
	if p.TaxRate.IsNegative() || p.TaxRate.GreaterThan(money.Hundred) {
		errs.Add("tax_rate", "must be between 0 and 100")
	}
	return errs.Err()
}

func normalize(p Product) Product {
	p.Name = strings.TrimSpace(p.Name)
	p.SKU = strings.TrimSpace(p.SKU)
	p.Category = strings.TrimSpace(p.Category)
	p.UnitPrice = money.Round(p.UnitPrice)
	p.TaxRate = money.Round(p.TaxRate)
	return p
}
