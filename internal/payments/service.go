package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/invoicepro/invoicepro/internal/invoicing"
	"github.com/invoicepro/invoicepro/internal/platform/httpx"
	"github.com/invoicepro/invoicepro/internal/shared"
)

// ErrNotFound indicates the payment does not exist for the caller.
var ErrNotFound = fmt.Errorf("payments: %w", httpx.ErrNotFound)

// RepositoryPort abstracts payment persistence.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Payment, error)
	ListByInvoice(ctx context.Context, invoiceID int64) ([]Payment, error)
}

// InvoicePort resolves invoices visible to the caller.
type InvoicePort interface {
	Get(ctx context.Context, userID, id int64) (invoicing.Invoice, error)
}

// Service records payments and keeps the invoice status in step with them.
type Service struct {
	repo     RepositoryPort
	invoices InvoicePort
	audit    shared.AuditRecorder
}

// NewService builds payment service.
func NewService(repo RepositoryPort, invoices InvoicePort, audit shared.AuditRecorder) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	return &Service{repo: repo, invoices: invoices, audit: audit}
}

// Add records a payment against an invoice.
func (s *Service) Add(ctx context.Context, userID, invoiceID int64, input Input) (Payment, error) {
	if err := shared.ValidateStruct(input); err != nil {
		return Payment{}, err
	}
	if _, err := s.invoices.Get(ctx, userID, invoiceID); err != nil {
		return Payment{}, err
	}
	p := Payment{InvoiceID: invoiceID, CreatedBy: userID}
	input.apply(&p)
	trim(&p)
	if err := Prepare(&p); err != nil {
		return Payment{}, err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.LockInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		p.ID, err = tx.Insert(ctx, p)
		if err != nil {
			return err
		}
		return syncInvoiceStatus(ctx, tx, inv)
	})
	if err != nil {
		return Payment{}, err
	}
	s.record(ctx, userID, "payment.create", p.ID, map[string]any{"invoice_id": invoiceID, "net_amount": p.NetAmount.String()})
	return s.repo.Get(ctx, p.ID)
}

// Get returns a payment whose invoice is visible to userID.
func (s *Service) Get(ctx context.Context, userID, id int64) (Payment, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Payment{}, err
	}
	if _, err := s.invoices.Get(ctx, userID, p.InvoiceID); err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return Payment{}, fmt.Errorf("payment %d: %w", id, ErrNotFound)
		}
		return Payment{}, err
	}
	return p, nil
}

// ListByInvoice returns the payments of one invoice.
func (s *Service) ListByInvoice(ctx context.Context, userID, invoiceID int64) ([]Payment, error) {
	if _, err := s.invoices.Get(ctx, userID, invoiceID); err != nil {
		return nil, err
	}
	return s.repo.ListByInvoice(ctx, invoiceID)
}

// Update rewrites a payment.
func (s *Service) Update(ctx context.Context, userID, id int64, input Input) (Payment, error) {
	if err := shared.ValidateStruct(input); err != nil {
		return Payment{}, err
	}
	p, err := s.Get(ctx, userID, id)
	if err != nil {
		return Payment{}, err
	}
	input.apply(&p)
	trim(&p)
	if err := Prepare(&p); err != nil {
		return Payment{}, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.LockInvoice(ctx, p.InvoiceID)
		if err != nil {
			return err
		}
		if err := tx.Update(ctx, p); err != nil {
			return err
		}
		return syncInvoiceStatus(ctx, tx, inv)
	})
	if err != nil {
		return Payment{}, err
	}
	s.record(ctx, userID, "payment.update", id, map[string]any{"net_amount": p.NetAmount.String()})
	return s.repo.Get(ctx, id)
}

// Delete removes a payment. A paid invoice stays paid.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	p, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.LockInvoice(ctx, p.InvoiceID)
		if err != nil {
			return err
		}
		if err := tx.Delete(ctx, id); err != nil {
			return err
		}
		return syncInvoiceStatus(ctx, tx, inv)
	})
	if err != nil {
		return err
	}
	s.record(ctx, userID, "payment.delete", id, map[string]any{"invoice_id": p.InvoiceID})
	return nil
}

// Summary aggregates the payments of an invoice visible to userID.
func (s *Service) Summary(ctx context.Context, userID, invoiceID int64) (invoicing.PaymentSummary, error) {
	inv, err := s.invoices.Get(ctx, userID, invoiceID)
	if err != nil {
		return invoicing.PaymentSummary{}, err
	}
	payments, err := s.repo.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return invoicing.PaymentSummary{}, err
	}
	return Summarize(inv.Total, payments), nil
}

// syncInvoiceStatus promotes the invoice to PAID once received payments
// cover its total. It never moves an invoice away from PAID.
func syncInvoiceStatus(ctx context.Context, tx TxRepository, inv invoicing.StatusRow) error {
	payments, err := tx.ListByInvoice(ctx, inv.ID)
	if err != nil {
		return err
	}
	if Summarize(inv.Total, payments).Status != invoicing.PaymentPaid {
		return nil
	}
	next, changed := invoicing.Promote(inv.Status, invoicing.StatusPaid)
	if !changed {
		return nil
	}
	return tx.SetInvoiceStatus(ctx, inv.ID, next)
}

func (s *Service) record(ctx context.Context, userID int64, action string, id int64, meta map[string]any) {
	shared.Audit(ctx, s.audit, userID, shared.EntityPayment, action, id, meta)
}

func trim(p *Payment) {
	p.ReferenceNumber = strings.TrimSpace(p.ReferenceNumber)
	p.BankName = strings.TrimSpace(p.BankName)
	p.Remarks = strings.TrimSpace(p.Remarks)
	p.HoldReason = strings.TrimSpace(p.HoldReason)
}
