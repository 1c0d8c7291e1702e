package invoicing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/invoicepro/invoicepro/internal/masterdata/companies"
	"github.com/invoicepro/invoicepro/internal/platform/db"
	"github.com/invoicepro/invoicepro/internal/procurement"
	"github.com/invoicepro/invoicepro/internal/shared"
)

const numberConstraint = "invoices_invoice_number_key"

// globalNumberingLock keys the advisory lock taken when numbering invoices
// that have no company.
const globalNumberingLock int64 = 0x1a7e_0001

// TxRepository exposes the statements of one invoice write.
type TxRepository interface {
	LockInvoice(ctx context.Context, userID, id int64) (Invoice, error)
	LockNumbering(ctx context.Context, companyID int64) error
	InvoiceNumbers(ctx context.Context, companyID int64, stem string) ([]string, error)
	InsertInvoice(ctx context.Context, inv Invoice) (int64, error)
	UpdateInvoice(ctx context.Context, inv Invoice) error
	DeleteInvoice(ctx context.Context, id int64) error
	Items(ctx context.Context, invoiceID int64) ([]Item, error)
	InsertItem(ctx context.Context, it Item) (int64, error)
	UpdateItem(ctx context.Context, it Item) error
	DeleteItem(ctx context.Context, id int64) error
	LockPOLines(ctx context.Context, ids []int64) ([]procurement.LineItem, error)
	InvoicedQuantities(ctx context.Context, lineIDs []int64, excludeInvoiceID int64) (map[int64]decimal.Decimal, error)
}

// Repository persists invoices in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs fn in a read-committed transaction; writes lock the rows they
// depend on.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithReadCommitted(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// VisibleTo restricts invoices aliased i to those of the user's companies
// plus the company-less invoices the user created. $1 is the user id.
const VisibleTo = `(i.company_id IN (SELECT id FROM companies WHERE user_id = $1)
 OR (i.company_id IS NULL AND i.created_by = $1))`

const invoiceColumns = `i.id, i.invoice_number, i.company_id, i.client_id, c.name, i.po_reference_id,
i.po_number, i.po_date, i.vendor_code, i.invoice_date, i.due_date, i.tax_rate, i.cgst_rate, i.sgst_rate,
i.discount, i.subtotal, i.cgst_amount, i.sgst_amount, i.tax_amount, i.total, i.place_of_supply,
i.state_code, i.reverse_charge, i.reverse_charge_amount, i.status, i.notes, i.measurement_sheet_path,
i.bill_summary_path, i.created_by, i.reminder_sent_at, i.created_at, i.updated_at`

const invoiceFrom = ` FROM invoices i JOIN clients c ON c.id = i.client_id`

// Get returns an invoice with items when visible to userID.
func (r *Repository) Get(ctx context.Context, userID, id int64) (Invoice, error) {
	return getInvoice(ctx, r.pool, userID, id, "")
}

// GetByID returns an invoice regardless of owner. Batch jobs use it.
func (r *Repository) GetByID(ctx context.Context, id int64) (Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+invoiceFrom+` WHERE i.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, fmt.Errorf("invoice %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Invoice{}, err
	}
	inv.Items, err = listItems(ctx, r.pool, id)
	return inv, err
}

// List returns one page of visible invoices, newest first.
func (r *Repository) List(ctx context.Context, userID int64, filter ListFilter) ([]Invoice, int, error) {
	var (
		conds = []string{VisibleTo}
		args  = []any{userID}
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Status != "" {
		add("i.status = $%d", string(filter.Status))
	}
	if filter.CompanyID > 0 {
		add("i.company_id = $%d", filter.CompanyID)
	}
	if filter.ClientID > 0 {
		add("i.client_id = $%d", filter.ClientID)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		add("(i.invoice_number ILIKE $%[1]d OR c.name ILIKE $%[1]d OR i.po_number ILIKE $%[1]d)", "%"+s+"%")
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+invoiceFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("invoicing: count invoices: %w", err)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)
	rows, err := r.pool.Query(ctx, `SELECT `+invoiceColumns+invoiceFrom+where+
		fmt.Sprintf(` ORDER BY i.invoice_date DESC, i.id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("invoicing: list invoices: %w", err)
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}

func getInvoice(ctx context.Context, q db.Querier, userID, id int64, suffix string) (Invoice, error) {
	inv, err := scanInvoice(q.QueryRow(ctx, `SELECT `+invoiceColumns+invoiceFrom+
		` WHERE i.id = $2 AND `+VisibleTo+suffix, userID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, fmt.Errorf("invoice %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Invoice{}, err
	}
	inv.Items, err = listItems(ctx, q, id)
	return inv, err
}

func listItems(ctx context.Context, q db.Querier, invoiceID int64) ([]Item, error) {
	rows, err := q.Query(ctx, `SELECT id, invoice_id, po_line_item_id, description, sac_code, quantity, rate, total, created_at
FROM invoice_items WHERE invoice_id = $1 ORDER BY id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("invoicing: list items: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Item, error) {
		var it Item
		err := row.Scan(&it.ID, &it.InvoiceID, &it.POLineItemID, &it.Description, &it.SACCode,
			&it.Quantity, &it.Rate, &it.Total, &it.CreatedAt)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("invoicing: scan items: %w", err)
	}
	return items, nil
}

func scanInvoice(row pgx.Row) (Invoice, error) {
	var (
		inv         Invoice
		poDate      *time.Time
		invoiceDate time.Time
		dueDate     time.Time
		status      string
	)
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.CompanyID, &inv.ClientID, &inv.ClientName, &inv.POReferenceID,
		&inv.PONumber, &poDate, &inv.VendorCode, &invoiceDate, &dueDate, &inv.TaxRate, &inv.CGSTRate, &inv.SGSTRate,
		&inv.Discount, &inv.Subtotal, &inv.CGSTAmount, &inv.SGSTAmount, &inv.TaxAmount, &inv.Total, &inv.PlaceOfSupply,
		&inv.StateCode, &inv.ReverseCharge, &inv.ReverseChargeAmount, &status, &inv.Notes, &inv.MeasurementSheetPath,
		&inv.BillSummaryPath, &inv.CreatedBy, &inv.ReminderSentAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return Invoice{}, err
	}
	inv.Status = Status(status)
	inv.InvoiceDate = shared.DateOf(invoiceDate)
	inv.DueDate = shared.DateOf(dueDate)
	if poDate != nil {
		d := shared.DateOf(*poDate)
		inv.PODate = &d
	}
	return inv, nil
}

func dateArg(d *shared.Date) *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	return &d.Time
}

type txRepo struct {
	tx pgx.Tx
}

func (t *txRepo) LockInvoice(ctx context.Context, userID, id int64) (Invoice, error) {
	return getInvoice(ctx, t.tx, userID, id, ` FOR UPDATE OF i`)
}

// LockNumbering serializes number allocation: the company row for company
// invoices, a transaction advisory lock for the global fallback sequence.
func (t *txRepo) LockNumbering(ctx context.Context, companyID int64) error {
	if companyID == 0 {
		_, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, globalNumberingLock)
		return err
	}
	var id int64
	err := t.tx.QueryRow(ctx, `SELECT id FROM companies WHERE id = $1 FOR UPDATE`, companyID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("company %d: %w", companyID, ErrNotFound)
	}
	return err
}

func (t *txRepo) InvoiceNumbers(ctx context.Context, companyID int64, stem string) ([]string, error) {
	return companies.InvoiceNumbers(ctx, t.tx, companyID, stem)
}

func (t *txRepo) InsertInvoice(ctx context.Context, inv Invoice) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO invoices (invoice_number, company_id, client_id, po_reference_id, po_number,
po_date, vendor_code, invoice_date, due_date, tax_rate, cgst_rate, sgst_rate, discount, subtotal, cgst_amount,
sgst_amount, tax_amount, total, place_of_supply, state_code, reverse_charge, reverse_charge_amount, status, notes,
created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,NOW(),NOW())
RETURNING id`,
		inv.InvoiceNumber, inv.CompanyID, inv.ClientID, inv.POReferenceID, inv.PONumber, dateArg(inv.PODate),
		inv.VendorCode, inv.InvoiceDate.Time, inv.DueDate.Time, inv.TaxRate, inv.CGSTRate, inv.SGSTRate, inv.Discount,
		inv.Subtotal, inv.CGSTAmount, inv.SGSTAmount, inv.TaxAmount, inv.Total, inv.PlaceOfSupply, inv.StateCode,
		inv.ReverseCharge, inv.ReverseChargeAmount, string(inv.Status), inv.Notes, inv.CreatedBy).Scan(&id)
	if db.IsUniqueViolation(err, numberConstraint) {
		return 0, fmt.Errorf("%q: %w", inv.InvoiceNumber, ErrNumberTaken)
	}
	return id, err
}

func (t *txRepo) UpdateInvoice(ctx context.Context, inv Invoice) error {
	_, err := t.tx.Exec(ctx, `UPDATE invoices SET invoice_number=$2, company_id=$3, client_id=$4, po_reference_id=$5,
po_number=$6, po_date=$7, vendor_code=$8, invoice_date=$9, due_date=$10, tax_rate=$11, cgst_rate=$12, sgst_rate=$13,
discount=$14, subtotal=$15, cgst_amount=$16, sgst_amount=$17, tax_amount=$18, total=$19, place_of_supply=$20,
state_code=$21, reverse_charge=$22, reverse_charge_amount=$23, status=$24, notes=$25, updated_at=NOW()
WHERE id=$1`,
		inv.ID, inv.InvoiceNumber, inv.CompanyID, inv.ClientID, inv.POReferenceID, inv.PONumber, dateArg(inv.PODate),
		inv.VendorCode, inv.InvoiceDate.Time, inv.DueDate.Time, inv.TaxRate, inv.CGSTRate, inv.SGSTRate, inv.Discount,
		inv.Subtotal, inv.CGSTAmount, inv.SGSTAmount, inv.TaxAmount, inv.Total, inv.PlaceOfSupply, inv.StateCode,
		inv.ReverseCharge, inv.ReverseChargeAmount, string(inv.Status), inv.Notes)
	if db.IsUniqueViolation(err, numberConstraint) {
		return fmt.Errorf("%q: %w", inv.InvoiceNumber, ErrNumberTaken)
	}
	return err
}

func (t *txRepo) DeleteInvoice(ctx context.Context, id int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	return err
}

func (t *txRepo) Items(ctx context.Context, invoiceID int64) ([]Item, error) {
	return listItems(ctx, t.tx, invoiceID)
}

func (t *txRepo) InsertItem(ctx context.Context, it Item) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO invoice_items (invoice_id, po_line_item_id, description, sac_code, quantity, rate, total, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW()) RETURNING id`,
		it.InvoiceID, it.POLineItemID, it.Description, it.SACCode, it.Quantity, it.Rate, it.Total).Scan(&id)
	if db.IsForeignKeyViolation(err) {
		return 0, validationf("purchase order line does not exist")
	}
	return id, err
}

func (t *txRepo) UpdateItem(ctx context.Context, it Item) error {
	_, err := t.tx.Exec(ctx, `UPDATE invoice_items SET po_line_item_id=$2, description=$3, sac_code=$4, quantity=$5,
rate=$6, total=$7 WHERE id=$1`, it.ID, it.POLineItemID, it.Description, it.SACCode, it.Quantity, it.Rate, it.Total)
	if db.IsForeignKeyViolation(err) {
		return validationf("purchase order line does not exist")
	}
	return err
}

func (t *txRepo) DeleteItem(ctx context.Context, id int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM invoice_items WHERE id = $1`, id)
	return err
}

func (t *txRepo) LockPOLines(ctx context.Context, ids []int64) ([]procurement.LineItem, error) {
	return procurement.LockLinesByID(ctx, t.tx, ids)
}

func (t *txRepo) InvoicedQuantities(ctx context.Context, lineIDs []int64, excludeInvoiceID int64) (map[int64]decimal.Decimal, error) {
	return procurement.InvoicedQuantities(ctx, t.tx, lineIDs, excludeInvoiceID)
}

// StatusRow is the slice of an invoice that status promotion needs.
type StatusRow struct {
	ID        int64
	CreatedBy int64
	CompanyID *int64
	Total     decimal.Decimal
	Status    Status
}

// LockStatus loads the status row of one invoice with FOR UPDATE. Payment
// and reminder writers take it before promoting the status.
func LockStatus(ctx context.Context, q db.Querier, id int64) (StatusRow, error) {
	var (
		row    StatusRow
		status string
	)
	err := q.QueryRow(ctx, `SELECT id, created_by, company_id, total, status FROM invoices WHERE id = $1 FOR UPDATE`, id).
		Scan(&row.ID, &row.CreatedBy, &row.CompanyID, &row.Total, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return StatusRow{}, fmt.Errorf("invoice %d: %w", id, ErrNotFound)
	}
	row.Status = Status(status)
	return row, err
}

// SaveStatus stores a new status for one invoice.
func SaveStatus(ctx context.Context, q db.Querier, id int64, status Status) error {
	_, err := q.Exec(ctx, `UPDATE invoices SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	return err
}
