package payments

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoicepro/invoicepro/internal/shared"
)

// Method is how a payment was received.
type Method string

const (
	MethodCash         Method = "CASH"
	MethodCheque       Method = "CHEQUE"
	MethodBankTransfer Method = "BANK_TRANSFER"
	MethodUPI          Method = "UPI"
	MethodCreditCard   Method = "CREDIT_CARD"
	MethodDebitCard    Method = "DEBIT_CARD"
	MethodNEFT         Method = "NEFT"
	MethodRTGS         Method = "RTGS"
	MethodOther        Method = "OTHER"
)

// Status is the clearing state of a payment.
type Status string

const (
	StatusReceived  Status = "RECEIVED"
	StatusOnHold    Status = "ON_HOLD"
	StatusPending   Status = "PENDING"
	StatusCancelled Status = "CANCELLED"
)

// StatusClass is the badge style used by presentation layers.
func (s Status) StatusClass() string {
	switch s {
	case StatusReceived:
		return "paid"
	case StatusCancelled:
		return "overdue"
	default:
		return "pending"
	}
}

// Payment is money received against one invoice.
type Payment struct {
	ID               int64           `json:"id"`
	InvoiceID        int64           `json:"invoice_id"`
	PaymentDate      shared.Date     `json:"payment_date"`
	Amount           decimal.Decimal `json:"amount"`
	TDSAmount        decimal.Decimal `json:"tds_amount"`
	TDSPercentage    decimal.Decimal `json:"tds_percentage"`
	FineAmount       decimal.Decimal `json:"fine_amount"`
	AdjustmentAmount decimal.Decimal `json:"adjustment_amount"`
	NetAmount        decimal.Decimal `json:"net_amount"`
	PaymentMethod    Method          `json:"payment_method"`
	ReferenceNumber  string          `json:"reference_number,omitempty"`
	BankName         string          `json:"bank_name,omitempty"`
	Remarks          string          `json:"remarks,omitempty"`
	Status           Status          `json:"status"`
	IsOnHold         bool            `json:"is_on_hold"`
	HoldReason       string          `json:"hold_reason,omitempty"`
	CreatedBy        int64           `json:"created_by"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Input is the writable part of a payment.
type Input struct {
	PaymentDate      shared.Date     `json:"payment_date"`
	Amount           decimal.Decimal `json:"amount"`
	TDSAmount        decimal.Decimal `json:"tds_amount"`
	TDSPercentage    decimal.Decimal `json:"tds_percentage"`
	FineAmount       decimal.Decimal `json:"fine_amount"`
	AdjustmentAmount decimal.Decimal `json:"adjustment_amount"`
	PaymentMethod    Method          `json:"payment_method" validate:"omitempty,oneof=CASH CHEQUE BANK_TRANSFER UPI CREDIT_CARD DEBIT_CARD NEFT RTGS OTHER"`
	ReferenceNumber  string          `json:"reference_number" validate:"max=100"`
	BankName         string          `json:"bank_name" validate:"max=200"`
	Remarks          string          `json:"remarks"`
	Status           Status          `json:"status" validate:"omitempty,oneof=RECEIVED ON_HOLD PENDING CANCELLED"`
	IsOnHold         bool            `json:"is_on_hold"`
	HoldReason       string          `json:"hold_reason"`
}

func (in Input) apply(p *Payment) {
	p.PaymentDate = in.PaymentDate
	p.Amount = in.Amount
	p.TDSAmount = in.TDSAmount
	p.TDSPercentage = in.TDSPercentage
	p.FineAmount = in.FineAmount
	p.AdjustmentAmount = in.AdjustmentAmount
	p.PaymentMethod = in.PaymentMethod
	if p.PaymentMethod == "" {
		p.PaymentMethod = MethodBankTransfer
	}
	p.ReferenceNumber = in.ReferenceNumber
	p.BankName = in.BankName
	p.Remarks = in.Remarks
	p.Status = in.Status
	if p.Status == "" {
		p.Status = StatusReceived
	}
	p.IsOnHold = in.IsOnHold
	p.HoldReason = in.HoldReason
}
