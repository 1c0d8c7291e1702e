package procurement

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/invoicepro/invoicepro/internal/masterdata/companies"
	"github.com/invoicepro/invoicepro/internal/money"
	"github.com/invoicepro/invoicepro/internal/platform/httpx"
	"github.com/invoicepro/invoicepro/internal/shared"
)

// RepositoryPort abstracts persistence.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetPO(ctx context.Context, id int64) (PurchaseOrder, error)
	ListPOs(ctx context.Context, filter ListFilter) ([]PurchaseOrder, int, error)
	GetLine(ctx context.Context, id int64) (LineItem, error)
	InvoicedQuantities(ctx context.Context, lineIDs []int64, excludeInvoiceID int64) (map[int64]decimal.Decimal, error)
	CountInvoiceReferences(ctx context.Context, poID int64) (int, error)
}

// CompanyPort resolves companies owned by the caller.
type CompanyPort interface {
	Get(ctx context.Context, userID, id int64) (companies.Company, error)
}

// Service coordinates purchase order workflows.
type Service struct {
	repo      RepositoryPort
	companies CompanyPort
	audit     shared.AuditRecorder
}

// NewService builds procurement service.
func NewService(repo RepositoryPort, companies CompanyPort, audit shared.AuditRecorder) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	return &Service{repo: repo, companies: companies, audit: audit}
}

// Create stores a purchase order and its lines.
func (s *Service) Create(ctx context.Context, userID int64, input CreateInput) (PurchaseOrder, error) {
	if err := shared.ValidateStruct(input); err != nil {
		return PurchaseOrder{}, err
	}
	if err := validateLines(input.Lines); err != nil {
		return PurchaseOrder{}, err
	}
	if err := s.ownCompany(ctx, userID, input.CompanyID); err != nil {
		return PurchaseOrder{}, err
	}
	po := PurchaseOrder{
		CompanyID:           input.CompanyID,
		PONumber:            strings.TrimSpace(input.PONumber),
		MainLineNumber:      strings.TrimSpace(input.MainLineNumber),
		MainLineDescription: strings.TrimSpace(input.MainLineDescription),
	}
	var id int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		id, err = tx.InsertPO(ctx, po)
		if err != nil {
			return err
		}
		for _, in := range input.Lines {
			line := lineFromInput(id, in)
			if _, err := tx.InsertLine(ctx, line); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.record(ctx, userID, "po.create", id, map[string]any{"po_number": po.PONumber})
	return s.repo.GetPO(ctx, id)
}

// Get returns a purchase order visible to userID.
func (s *Service) Get(ctx context.Context, userID, id int64) (PurchaseOrder, error) {
	po, err := s.repo.GetPO(ctx, id)
	if err != nil {
		return PurchaseOrder{}, err
	}
	if err := s.ownCompany(ctx, userID, po.CompanyID); err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return PurchaseOrder{}, fmt.Errorf("purchase order %d: %w", id, ErrNotFound)
		}
		return PurchaseOrder{}, err
	}
	return po, nil
}

// ListByCompany lists the company's purchase orders.
func (s *Service) ListByCompany(ctx context.Context, userID int64, filter ListFilter) ([]PurchaseOrder, int, error) {
	if filter.CompanyID <= 0 {
		return nil, 0, validationf("company_id is required")
	}
	if err := s.ownCompany(ctx, userID, filter.CompanyID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListPOs(ctx, filter)
}

// Update replaces header and lines. A line cannot drop below what invoices
// already draw from it, and a line referenced by invoice items cannot be removed.
func (s *Service) Update(ctx context.Context, userID, id int64, input UpdateInput) (PurchaseOrder, error) {
	if err := shared.ValidateStruct(input); err != nil {
		return PurchaseOrder{}, err
	}
	if err := validateLines(input.Lines); err != nil {
		return PurchaseOrder{}, err
	}
	po, err := s.Get(ctx, userID, id)
	if err != nil {
		return PurchaseOrder{}, err
	}
	po.PONumber = strings.TrimSpace(input.PONumber)
	po.MainLineNumber = strings.TrimSpace(input.MainLineNumber)
	po.MainLineDescription = strings.TrimSpace(input.MainLineDescription)

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.LockLines(ctx, id)
		if err != nil {
			return err
		}
		byID := make(map[int64]LineItem, len(existing))
		ids := make([]int64, 0, len(existing))
		for _, l := range existing {
			byID[l.ID] = l
			ids = append(ids, l.ID)
		}
		invoiced, err := tx.InvoicedQuantities(ctx, ids, 0)
		if err != nil {
			return err
		}
		if err := tx.UpdatePO(ctx, po); err != nil {
			return err
		}

		kept := map[int64]bool{}
		for _, in := range input.Lines {
			line := lineFromInput(id, in)
			if in.ID == 0 {
				if _, err := tx.InsertLine(ctx, line); err != nil {
					return err
				}
				continue
			}
			if _, ok := byID[in.ID]; !ok {
				return validationf("line %d does not belong to purchase order %d", in.ID, id)
			}
			if kept[in.ID] {
				return validationf("line %d listed twice", in.ID)
			}
			kept[in.ID] = true
			used := invoiced[in.ID]
			if line.Quantity.LessThan(used) {
				return &OverAllocationError{
					LineID:        in.ID,
					SublineNumber: line.SublineNumber,
					Description:   line.SublineDescription,
					Requested:     used,
					Available:     line.Quantity.Sub(used),
					Ordered:       line.Quantity,
					Invoiced:      used,
				}
			}
			if err := tx.UpdateLine(ctx, line); err != nil {
				return err
			}
		}

		for _, l := range existing {
			if kept[l.ID] {
				continue
			}
			refs, err := tx.CountLineReferences(ctx, l.ID)
			if err != nil {
				return err
			}
			if refs > 0 {
				return &shared.ReferentialBlockError{Entity: "purchase order line", Name: l.SublineNumber, Dependent: "invoice items", Count: refs}
			}
			if err := tx.DeleteLine(ctx, l.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.record(ctx, userID, "po.update", id, nil)
	return s.repo.GetPO(ctx, id)
}

// Delete removes a purchase order that no invoice item draws from.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	po, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	refs, err := s.repo.CountInvoiceReferences(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return &shared.ReferentialBlockError{Entity: "purchase order", Name: po.PONumber, Dependent: "invoice items", Count: refs}
	}
	if err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.DeletePO(ctx, id)
	}); err != nil {
		return err
	}
	s.record(ctx, userID, "po.delete", id, map[string]any{"po_number": po.PONumber})
	return nil
}

// LineItems lists the PO lines with their available quantity. Items of
// excludeInvoiceID do not count, which lets an invoice edit form show what
// the invoice itself may still use.
func (s *Service) LineItems(ctx context.Context, userID, poID, excludeInvoiceID int64) ([]LineAvailability, error) {
	po, err := s.Get(ctx, userID, poID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(po.Lines))
	for _, l := range po.Lines {
		ids = append(ids, l.ID)
	}
	invoiced, err := s.repo.InvoicedQuantities(ctx, ids, excludeInvoiceID)
	if err != nil {
		return nil, err
	}
	out := make([]LineAvailability, 0, len(po.Lines))
	for _, l := range po.Lines {
		out = append(out, Availability(l, invoiced[l.ID]))
	}
	return out, nil
}

// LineItem returns one line with its available quantity.
func (s *Service) LineItem(ctx context.Context, userID, lineID, excludeInvoiceID int64) (LineAvailability, error) {
	line, err := s.repo.GetLine(ctx, lineID)
	if err != nil {
		return LineAvailability{}, err
	}
	if _, err := s.Get(ctx, userID, line.PurchaseOrderID); err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return LineAvailability{}, fmt.Errorf("po line %d: %w", lineID, ErrNotFound)
		}
		return LineAvailability{}, err
	}
	invoiced, err := s.repo.InvoicedQuantities(ctx, []int64{lineID}, excludeInvoiceID)
	if err != nil {
		return LineAvailability{}, err
	}
	return Availability(line, invoiced[lineID]), nil
}

func (s *Service) ownCompany(ctx context.Context, userID, companyID int64) error {
	if _, err := s.companies.Get(ctx, userID, companyID); err != nil {
		return fmt.Errorf("procurement: company %d: %w", companyID, err)
	}
	return nil
}

func (s *Service) record(ctx context.Context, userID int64, action string, id int64, meta map[string]any) {
	shared.Audit(ctx, s.audit, userID, shared.EntityPurchaseOrder, action, id, meta)
}

func validateLines(lines []LineInput) error {
	errs := shared.FieldErrors{}
	for i, l := range lines {
		if l.Quantity.IsNegative() {
			errs.Add(fmt.Sprintf("lines[%d].quantity", i), "must not be negative")
		}
		if l.Price.IsNegative() {
			errs.Add(fmt.Sprintf("lines[%d].price", i), "must not be negative")
		}
	}
	return errs.Err()
}

func lineFromInput(poID int64, in LineInput) LineItem {
	return LineItem{
		ID:                 in.ID,
		PurchaseOrderID:    poID,
		SublineNumber:      strings.TrimSpace(in.SublineNumber),
		SublineDescription: strings.TrimSpace(in.SublineDescription),
		Quantity:           money.Round(in.Quantity),
		Price:              money.Round(in.Price),
		UOMID:              in.UOMID,
	}
}
