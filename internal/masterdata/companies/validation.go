package companies

import (
	"strings"

	"github.com/invoicepro/invoicepro/internal/money"
	internalShared "github.com/invoicepro/invoicepro/internal/shared"
)

func (s *Service) validate(c Company) error {
	errs := internalShared.FieldErrors{}
	if c.Name == "" {
		errs.Add("name", "is required")
	}
	if c.Address == "" {
		errs.Add("address", "is required")
	}
	if c.GSTIN != "" && len(c.GSTIN) != 15 {
		errs.Add("gstin", "must be exactly 15 characters")
	}
	if c.PAN != "" && len(c.PAN) != 10 {
		errs.Add("pan", "must be exactly 10 characters")
	}
	if c.DefaultDueDays < 0 {
		errs.Add("default_due_days", "must not be negative")
	}
	if c.DefaultTaxRate.IsNegative() || c.DefaultTaxRate.GreaterThan(money.Hundred) {
		errs.Add("default_tax_rate", "must be between 0 and 100")
	}
	if strings.ContainsAny(c.InvoicePrefix, " /") {
		errs.Add("invoice_prefix", "must not contain spaces or slashes")
	}
	if !c.IsActive && c.IsDefault {
		errs.Add("is_default", "an inactive company cannot be the default")
	}
	return errs.Err()
}

func normalize(c Company) Company {
	c.Name = strings.TrimSpace(c.Name)
	c.Address = strings.TrimSpace(c.Address)
	c.GSTIN = strings.ToUpper(strings.TrimSpace(c.GSTIN))
	c.PAN = strings.ToUpper(strings.TrimSpace(c.PAN))
	c.CIN = strings.ToUpper(strings.TrimSpace(c.CIN))
	c.Email = strings.TrimSpace(c.Email)
	c.InvoicePrefix = strings.TrimSpace(c.InvoicePrefix)
	c.IFSCCode = strings.ToUpper(strings.TrimSpace(c.IFSCCode))
	return applyDefaults(c)
}
