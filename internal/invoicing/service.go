package invoicing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoicepro/invoicepro/internal/masterdata/clients"
	"github.com/invoicepro/invoicepro/internal/masterdata/companies"
	"github.com/invoicepro/invoicepro/internal/money"
	"github.com/invoicepro/invoicepro/internal/platform/httpx"
	"github.com/invoicepro/invoicepro/internal/procurement"
	"github.com/invoicepro/invoicepro/internal/shared"
)

// maxNumberAttempts bounds retries when an auto-assigned invoice number
// collides with a concurrent insert.
const maxNumberAttempts = 3

// RepositoryPort abstracts invoice persistence.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, userID, id int64) (Invoice, error)
	List(ctx context.Context, userID int64, filter ListFilter) ([]Invoice, int, error)
}

// CompanyPort resolves companies owned by the caller.
type CompanyPort interface {
	Get(ctx context.Context, userID, id int64) (companies.Company, error)
}

// ClientPort resolves clients.
type ClientPort interface {
	Get(ctx context.Context, id int64) (clients.Client, error)
}

// PurchaseOrderPort resolves purchase orders visible to the caller.
type PurchaseOrderPort interface {
	Get(ctx context.Context, userID, id int64) (procurement.PurchaseOrder, error)
}

// Service coordinates invoice writes. Every write recomputes the invoice
// totals before its transaction commits.
type Service struct {
	repo      RepositoryPort
	companies CompanyPort
	clients   ClientPort
	pos       PurchaseOrderPort
	audit     shared.AuditRecorder
	now       func() time.Time
}

// NewService builds invoicing service.
func NewService(repo RepositoryPort, companies CompanyPort, clients ClientPort, pos PurchaseOrderPort, audit shared.AuditRecorder) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	return &Service{repo: repo, companies: companies, clients: clients, pos: pos, audit: audit, now: time.Now}
}

// WithClock overrides the clock used for default dates and numbering.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Get returns an invoice with its items.
func (s *Service) Get(ctx context.Context, userID, id int64) (Invoice, error) {
	return s.repo.Get(ctx, userID, id)
}

// List returns a page of the caller's invoices.
func (s *Service) List(ctx context.Context, userID int64, filter ListFilter) ([]Invoice, int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, validationf("unknown status %q", filter.Status)
	}
	return s.repo.List(ctx, userID, filter)
}

// Create stores an invoice and its items. An empty invoice number is
// allocated from the company sequence inside the insert transaction and
// retried when a concurrent writer took the same number.
func (s *Service) Create(ctx context.Context, userID int64, input CreateInput) (Invoice, error) {
	if err := shared.ValidateStruct(input.HeaderInput); err != nil {
		return Invoice{}, err
	}
	inv := Invoice{
		CGSTRate:  DefaultCGSTRate,
		SGSTRate:  DefaultSGSTRate,
		Status:    StatusDraft,
		CreatedBy: userID,
	}
	company, err := s.applyHeader(ctx, userID, &inv, input.HeaderInput, true)
	if err != nil {
		return Invoice{}, err
	}
	items, err := buildItems(input.Items)
	if err != nil {
		return Invoice{}, err
	}

	auto := inv.InvoiceNumber == ""
	var id int64
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			if err := checkAllocations(ctx, tx, inv, items); err != nil {
				return err
			}
			draft := inv
			if auto {
				number, err := s.allocateNumber(ctx, tx, company)
				if err != nil {
					return err
				}
				draft.InvoiceNumber = number
			}
			var err error
			id, err = tx.InsertInvoice(ctx, draft)
			if err != nil {
				return err
			}
			draft.ID = id
			for _, it := range items {
				it.InvoiceID = id
				if _, err := tx.InsertItem(ctx, it); err != nil {
					return err
				}
			}
			return saveTotals(ctx, tx, &draft)
		})
		if !auto || !errors.Is(err, ErrNumberTaken) {
			break
		}
	}
	if err != nil {
		return Invoice{}, err
	}
	s.record(ctx, userID, "invoice.create", id, map[string]any{"items": len(items)})
	return s.repo.Get(ctx, userID, id)
}

// Update edits the header and, when input.Items is set, replaces the item
// set. The quantity check covers the final item set so an item may move
// quantity between lines within one request.
func (s *Service) Update(ctx context.Context, userID, id int64, input UpdateInput) (Invoice, error) {
	if err := shared.ValidateStruct(input.HeaderInput); err != nil {
		return Invoice{}, err
	}
	var replacement []ItemInput
	if input.Items != nil {
		replacement = *input.Items
		if err := validateItems(replacement); err != nil {
			return Invoice{}, err
		}
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.LockInvoice(ctx, userID, id)
		if err != nil {
			return err
		}
		if _, err := s.applyHeader(ctx, userID, &inv, input.HeaderInput, false); err != nil {
			return err
		}
		if input.Items == nil {
			if err := checkAllocations(ctx, tx, inv, inv.Items); err != nil {
				return err
			}
			return saveTotals(ctx, tx, &inv)
		}

		final, removed, err := planItems(inv, replacement)
		if err != nil {
			return err
		}
		if err := checkAllocations(ctx, tx, inv, final); err != nil {
			return err
		}
		for _, itemID := range removed {
			if err := tx.DeleteItem(ctx, itemID); err != nil {
				return err
			}
		}
		for _, it := range final {
			if it.ID == 0 {
				if _, err := tx.InsertItem(ctx, it); err != nil {
					return err
				}
				continue
			}
			if err := tx.UpdateItem(ctx, it); err != nil {
				return err
			}
		}
		return saveTotals(ctx, tx, &inv)
	})
	if err != nil {
		return Invoice{}, err
	}
	s.record(ctx, userID, "invoice.update", id, nil)
	return s.repo.Get(ctx, userID, id)
}

// Delete removes an invoice. Its items and payments go with it.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	var number string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.LockInvoice(ctx, userID, id)
		if err != nil {
			return err
		}
		number = inv.InvoiceNumber
		return tx.DeleteInvoice(ctx, id)
	})
	if err != nil {
		return err
	}
	s.record(ctx, userID, "invoice.delete", id, map[string]any{"invoice_number": number})
	return nil
}

// AddItem appends one item to an invoice.
func (s *Service) AddItem(ctx context.Context, userID, invoiceID int64, input ItemInput) (Item, error) {
	if err := validateItem(input); err != nil {
		return Item{}, err
	}
	var created Item
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.LockInvoice(ctx, userID, invoiceID)
		if err != nil {
			return err
		}
		it := buildItem(invoiceID, input)
		if err := checkAllocations(ctx, tx, inv, append(cloneItems(inv.Items), it)); err != nil {
			return err
		}
		it.ID, err = tx.InsertItem(ctx, it)
		if err != nil {
			return err
		}
		created = it
		return saveTotals(ctx, tx, &inv)
	})
	if err != nil {
		return Item{}, err
	}
	s.record(ctx, userID, "invoice.item.add", invoiceID, map[string]any{"item_id": created.ID})
	return created, nil
}

// UpdateItem rewrites one item of an invoice.
func (s *Service) UpdateItem(ctx context.Context, userID, invoiceID, itemID int64, input ItemInput) (Item, error) {
	if err := validateItem(input); err != nil {
		return Item{}, err
	}
	var updated Item
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.LockInvoice(ctx, userID, invoiceID)
		if err != nil {
			return err
		}
		items := cloneItems(inv.Items)
		idx := indexOfItem(items, itemID)
		if idx < 0 {
			return fmt.Errorf("invoice item %d: %w", itemID, ErrNotFound)
		}
		it := buildItem(invoiceID, input)
		it.ID = itemID
		it.CreatedAt = items[idx].CreatedAt
		items[idx] = it
		if err := checkAllocations(ctx, tx, inv, items); err != nil {
			return err
		}
		if err := tx.UpdateItem(ctx, it); err != nil {
			return err
		}
		updated = it
		return saveTotals(ctx, tx, &inv)
	})
	if err != nil {
		return Item{}, err
	}
	s.record(ctx, userID, "invoice.item.update", invoiceID, map[string]any{"item_id": itemID})
	return updated, nil
}

// DeleteItem removes one item of an invoice.
func (s *Service) DeleteItem(ctx context.Context, userID, invoiceID, itemID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.LockInvoice(ctx, userID, invoiceID)
		if err != nil {
			return err
		}
		if indexOfItem(inv.Items, itemID) < 0 {
			return fmt.Errorf("invoice item %d: %w", itemID, ErrNotFound)
		}
		if err := tx.DeleteItem(ctx, itemID); err != nil {
			return err
		}
		return saveTotals(ctx, tx, &inv)
	})
	if err != nil {
		return err
	}
	s.record(ctx, userID, "invoice.item.delete", invoiceID, map[string]any{"item_id": itemID})
	return nil
}

// SetStatus is the manual status override. Unlike automatic promotion it
// accepts any known status, including moving a paid invoice back.
func (s *Service) SetStatus(ctx context.Context, userID, id int64, status Status) (Invoice, error) {
	if !status.Valid() {
		return Invoice{}, validationf("unknown status %q", status)
	}
	var from Status
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.LockInvoice(ctx, userID, id)
		if err != nil {
			return err
		}
		from = inv.Status
		inv.Status = status
		return saveTotals(ctx, tx, &inv)
	})
	if err != nil {
		return Invoice{}, err
	}
	s.record(ctx, userID, "invoice.status", id, map[string]any{"from": string(from), "to": string(status)})
	return s.repo.Get(ctx, userID, id)
}

// Recalculate recomputes the stored totals from the current items.
func (s *Service) Recalculate(ctx context.Context, userID, id int64) (Invoice, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.LockInvoice(ctx, userID, id)
		if err != nil {
			return err
		}
		return saveTotals(ctx, tx, &inv)
	})
	if err != nil {
		return Invoice{}, err
	}
	return s.repo.Get(ctx, userID, id)
}

// applyHeader copies input onto inv, resolving company, client and purchase
// order references. On create, omitted rates and due date fall back to the
// company defaults; on update they, and an omitted invoice date, keep their
// stored values.
func (s *Service) applyHeader(ctx context.Context, userID int64, inv *Invoice, in HeaderInput, creating bool) (*companies.Company, error) {
	var company *companies.Company
	if in.CompanyID != nil {
		c, err := s.companies.Get(ctx, userID, *in.CompanyID)
		if err != nil {
			if errors.Is(err, httpx.ErrNotFound) {
				return nil, validationf("company_id: company %d not found", *in.CompanyID)
			}
			return nil, err
		}
		company = &c
	}
	if _, err := s.clients.Get(ctx, in.ClientID); err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return nil, validationf("client_id: client %d not found", in.ClientID)
		}
		return nil, err
	}
	if in.POReferenceID != nil {
		po, err := s.pos.Get(ctx, userID, *in.POReferenceID)
		if err != nil {
			if errors.Is(err, httpx.ErrNotFound) {
				return nil, validationf("po_reference_id: purchase order %d not found", *in.POReferenceID)
			}
			return nil, err
		}
		if company == nil {
			c, err := s.companies.Get(ctx, userID, po.CompanyID)
			if err != nil {
				return nil, err
			}
			company = &c
		} else if po.CompanyID != company.ID {
			return nil, validationf("po_reference_id: purchase order belongs to another company")
		}
		if strings.TrimSpace(in.PONumber) == "" {
			in.PONumber = po.PONumber
		}
	}

	inv.InvoiceNumber = strings.TrimSpace(in.InvoiceNumber)
	if !creating && inv.InvoiceNumber == "" {
		return nil, validationf("invoice_number is required")
	}
	inv.CompanyID = nil
	if company != nil {
		id := company.ID
		inv.CompanyID = &id
	}
	inv.ClientID = in.ClientID
	inv.POReferenceID = in.POReferenceID
	inv.PONumber = strings.TrimSpace(in.PONumber)
	inv.PODate = in.PODate
	inv.VendorCode = strings.TrimSpace(in.VendorCode)
	inv.Discount = in.Discount
	inv.PlaceOfSupply = strings.TrimSpace(in.PlaceOfSupply)
	inv.StateCode = strings.TrimSpace(in.StateCode)
	inv.ReverseCharge = in.ReverseCharge
	inv.ReverseChargeAmount = in.ReverseChargeAmount
	inv.Notes = strings.TrimSpace(in.Notes)
	if in.Status != "" {
		inv.Status = in.Status
	}

	if creating || !in.InvoiceDate.IsZero() {
		inv.InvoiceDate = in.InvoiceDate
	}
	if inv.InvoiceDate.IsZero() {
		inv.InvoiceDate = shared.DateOf(s.now())
	}
	if creating && company != nil {
		inv.CGSTRate = money.Round(company.DefaultTaxRate.Div(decimal.NewFromInt(2)))
		inv.SGSTRate = company.DefaultTaxRate.Sub(inv.CGSTRate)
	}
	if in.CGSTRate != nil {
		inv.CGSTRate = *in.CGSTRate
	}
	if in.SGSTRate != nil {
		inv.SGSTRate = *in.SGSTRate
	}
	inv.TaxRate = inv.CGSTRate.Add(inv.SGSTRate)
	switch {
	case in.DueDate != nil && !in.DueDate.IsZero():
		inv.DueDate = *in.DueDate
	case creating || inv.DueDate.IsZero():
		days := companies.DefaultDueDays
		if company != nil && company.DefaultDueDays > 0 {
			days = company.DefaultDueDays
		}
		inv.DueDate = inv.InvoiceDate.AddDays(days)
	}
	if inv.StateCode == "" && company != nil {
		inv.StateCode = company.StateCode()
	}
	return company, validateHeader(*inv)
}

// allocateNumber locks the numbering scope and returns the next free number.
// Invoices without a company draw from the global INV- sequence.
func (s *Service) allocateNumber(ctx context.Context, tx TxRepository, company *companies.Company) (string, error) {
	var (
		companyID int64
		prefix    = companies.DefaultInvoicePrefix
	)
	if company != nil {
		companyID = company.ID
		if company.InvoicePrefix != "" {
			prefix = company.InvoicePrefix
		}
	}
	if err := tx.LockNumbering(ctx, companyID); err != nil {
		return "", err
	}
	year := s.now().Year()
	existing, err := tx.InvoiceNumbers(ctx, companyID, companies.SequencePrefix(prefix, year))
	if err != nil {
		return "", err
	}
	return companies.NextInvoiceNumber(prefix, year, existing), nil
}

func (s *Service) record(ctx context.Context, userID int64, action string, id int64, meta map[string]any) {
	shared.Audit(ctx, s.audit, userID, shared.EntityInvoice, action, id, meta)
}

// saveTotals reloads the items inside tx, recomputes the totals and writes
// the invoice row.
func saveTotals(ctx context.Context, tx TxRepository, inv *Invoice) error {
	items, err := tx.Items(ctx, inv.ID)
	if err != nil {
		return err
	}
	CalculateTotals(inv, items)
	inv.Items = items
	return tx.UpdateInvoice(ctx, *inv)
}

// planItems matches a full replacement item set against the current items.
// It returns the final set, carrying ids for edited items, and the ids of
// items to remove.
func planItems(inv Invoice, inputs []ItemInput) ([]Item, []int64, error) {
	current := make(map[int64]Item, len(inv.Items))
	for _, it := range inv.Items {
		current[it.ID] = it
	}
	seen := map[int64]bool{}
	final := make([]Item, 0, len(inputs))
	for _, in := range inputs {
		it := buildItem(inv.ID, in)
		if in.ID != 0 {
			prev, ok := current[in.ID]
			if !ok {
				return nil, nil, validationf("item %d does not belong to invoice %d", in.ID, inv.ID)
			}
			if seen[in.ID] {
				return nil, nil, validationf("item %d listed twice", in.ID)
			}
			seen[in.ID] = true
			it.ID = in.ID
			it.CreatedAt = prev.CreatedAt
		}
		final = append(final, it)
	}
	var removed []int64
	for _, it := range inv.Items {
		if !seen[it.ID] {
			removed = append(removed, it.ID)
		}
	}
	return final, removed, nil
}

func buildItems(inputs []ItemInput) ([]Item, error) {
	if err := validateItems(inputs); err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(inputs))
	for _, in := range inputs {
		items = append(items, buildItem(0, in))
	}
	return items, nil
}

func buildItem(invoiceID int64, in ItemInput) Item {
	return Item{
		InvoiceID:    invoiceID,
		POLineItemID: in.POLineItemID,
		Description:  strings.TrimSpace(in.Description),
		SACCode:      strings.TrimSpace(in.SACCode),
		Quantity:     in.Quantity,
		Rate:         in.Rate,
		Total:        ItemTotal(in.Quantity, in.Rate),
	}
}

func validateItems(inputs []ItemInput) error {
	for i, in := range inputs {
		if err := validateItem(in); err != nil {
			return fmt.Errorf("items[%d]: %w", i, err)
		}
	}
	return nil
}

func validateItem(in ItemInput) error {
	if err := shared.ValidateStruct(in); err != nil {
		return err
	}
	errs := shared.FieldErrors{}
	if in.Quantity.IsNegative() {
		errs.Add("quantity", "must not be negative")
	} else if !money.FitsScale(in.Quantity) {
		errs.Add("quantity", "must have at most 2 decimal places")
	}
	if in.Rate.IsNegative() {
		errs.Add("rate", "must not be negative")
	} else if !money.FitsScale(in.Rate) {
		errs.Add("rate", "must have at most 2 decimal places")
	}
	if in.POLineItemID != nil && *in.POLineItemID <= 0 {
		errs.Add("po_line_item_id", "must be a positive id")
	}
	return errs.Err()
}

func validateHeader(inv Invoice) error {
	errs := shared.FieldErrors{}
	for field, rate := range map[string]decimal.Decimal{"cgst_rate": inv.CGSTRate, "sgst_rate": inv.SGSTRate} {
		if rate.IsNegative() || rate.GreaterThan(money.Hundred) {
			errs.Add(field, "must be between 0 and 100")
		} else if !money.FitsScale(rate) {
			errs.Add(field, "must have at most 2 decimal places")
		}
	}
	for field, amount := range map[string]decimal.Decimal{"discount": inv.Discount, "reverse_charge_amount": inv.ReverseChargeAmount} {
		if amount.IsNegative() {
			errs.Add(field, "must not be negative")
		} else if !money.FitsScale(amount) {
			errs.Add(field, "must have at most 2 decimal places")
		}
	}
	if inv.DueDate.Before(inv.InvoiceDate.Time) {
		errs.Add("due_date", "must not be before invoice_date")
	}
	return errs.Err()
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

func indexOfItem(items []Item, id int64) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
