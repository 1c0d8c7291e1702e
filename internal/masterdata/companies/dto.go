package companies

import "github.com/shopspring/decimal"

type companyRequest struct {
	Name           string           `json:"name" validate:"required,max=200"`
	GSTIN          string           `json:"gstin" validate:"omitempty,len=15"`
	PAN            string           `json:"pan" validate:"omitempty,len=10"`
	CIN            string           `json:"cin" validate:"max=21"`
	Address        string           `json:"address" validate:"required"`
	Email          string           `json:"email" validate:"omitempty,email"`
	Phone          string           `json:"phone" validate:"max=20"`
	InvoicePrefix  string           `json:"invoice_prefix" validate:"max=20"`
	DefaultDueDays int              `json:"default_due_days" validate:"min=0"`
	DefaultTaxRate *decimal.Decimal `json:"default_tax_rate"`
	Currency       string           `json:"currency" validate:"max=10"`
	BankName       string           `json:"bank_name" validate:"max=200"`
	AccountNumber  string           `json:"account_number" validate:"max=50"`
	IFSCCode       string           `json:"ifsc_code" validate:"max=20"`
	Branch         string           `json:"branch" validate:"max=200"`
	IsActive       *bool            `json:"is_active"`
	IsDefault      bool             `json:"is_default"`
}

func (req companyRequest) toCompany() Company {
	c := Company{
		Name:           req.Name,
		GSTIN:          req.GSTIN,
		PAN:            req.PAN,
		CIN:            req.CIN,
		Address:        req.Address,
		Email:          req.Email,
		Phone:          req.Phone,
		InvoicePrefix:  req.InvoicePrefix,
		DefaultDueDays: req.DefaultDueDays,
		Currency:       req.Currency,
		BankName:       req.BankName,
		AccountNumber:  req.AccountNumber,
		IFSCCode:       req.IFSCCode,
		Branch:         req.Branch,
		IsActive:       true,
		IsDefault:      req.IsDefault,
	}
	if req.DefaultTaxRate != nil {
		c.DefaultTaxRate = *req.DefaultTaxRate
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	return c
}

type nextNumberResponse struct {
	CompanyID     int64  `json:"company_id"`
	InvoiceNumber string `json:"invoice_number"`
}
