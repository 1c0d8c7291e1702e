package companies

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invoicepro/invoicepro/internal/masterdata/shared"
	"github.com/invoicepro/invoicepro/internal/platform/db"
	"github.com/invoicepro/invoicepro/internal/platform/httpx"
)

// RepositoryPort is the persistence contract used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, userID int64) ([]Company, error)
	Get(ctx context.Context, userID, id int64) (Company, error)
	FindDefault(ctx context.Context, userID int64) (Company, error)
	CountInvoices(ctx context.Context, id int64) (int, error)
	InvoiceNumbers(ctx context.Context, companyID int64, stem string) ([]string, error)
	Delete(ctx context.Context, userID, id int64) error
	SetStampPath(ctx context.Context, userID, id int64, path string) error
}

// TxRepository exposes the statements that must run together.
type TxRepository interface {
	Insert(ctx context.Context, c Company) (Company, error)
	Update(ctx context.Context, c Company) error
	ClearDefault(ctx context.Context, userID, exceptID int64) error
}

// Repository is the pgx implementation.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const companyColumns = `id, user_id, name, COALESCE(gstin, ''), COALESCE(pan, ''), COALESCE(cin, ''), address,
COALESCE(email, ''), COALESCE(phone, ''), invoice_prefix, default_due_days, default_tax_rate, currency,
COALESCE(bank_name, ''), COALESCE(account_number, ''), COALESCE(ifsc_code, ''), COALESCE(branch, ''),
COALESCE(stamp_path, ''), is_active, is_default, created_at, updated_at`

// WithTx wraps callback in a single transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

func (r *Repository) List(ctx context.Context, userID int64) ([]Company, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+companyColumns+` FROM companies WHERE user_id = $1 ORDER BY is_default DESC, name`, userID)
	if err != nil {
		return nil, fmt.Errorf("companies: list: %w", err)
	}
	defer rows.Close()
	var out []Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) Get(ctx context.Context, userID, id int64) (Company, error) {
	c, err := scanCompany(r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, fmt.Errorf("company %d: %w", id, shared.ErrNotFound)
	}
	return c, err
}

// FindDefault returns the flagged default company, else the first active one.
func (r *Repository) FindDefault(ctx context.Context, userID int64) (Company, error) {
	c, err := scanCompany(r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies
WHERE user_id = $1 AND (is_default OR is_active)
ORDER BY is_default DESC, name, id LIMIT 1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, fmt.Errorf("default company: %w", shared.ErrNotFound)
	}
	return c, err
}

func (r *Repository) CountInvoices(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoices WHERE company_id = $1`, id).Scan(&n)
	return n, err
}

func (r *Repository) InvoiceNumbers(ctx context.Context, companyID int64, stem string) ([]string, error) {
	return InvoiceNumbers(ctx, r.pool, companyID, stem)
}

func (r *Repository) Delete(ctx context.Context, userID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("companies: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("company %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) SetStampPath(ctx context.Context, userID, id int64, path string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE companies SET stamp_path = NULLIF($3, ''), updated_at = NOW() WHERE id = $1 AND user_id = $2`, id, userID, path)
	if err != nil {
		return fmt.Errorf("companies: set stamp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("company %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

// InvoiceNumbers lists invoice numbers starting with stem for one company. A
// zero companyID searches every invoice, which backs the global fallback
// sequence. Transactional callers pass their pgx.Tx after locking the company.
func InvoiceNumbers(ctx context.Context, q db.Querier, companyID int64, stem string) ([]string, error) {
	rows, err := q.Query(ctx, `SELECT invoice_number FROM invoices
WHERE (CASE WHEN $1::bigint = 0 THEN TRUE ELSE company_id = $1 END) AND starts_with(invoice_number, $2)`, companyID, stem)
	if err != nil {
		return nil, fmt.Errorf("companies: invoice numbers: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

type txRepo struct {
	tx pgx.Tx
}

// oneDefaultIndex allows a single is_default company per user.
const oneDefaultIndex = "companies_one_default_idx"

// ErrDefaultTaken reports a concurrent writer that flagged another default
// company first.
var ErrDefaultTaken = fmt.Errorf("%w: another company is already the default", httpx.ErrConflict)

func mapWriteError(err error) error {
	if db.IsUniqueViolation(err, oneDefaultIndex) {
		return ErrDefaultTaken
	}
	return err
}

func (t *txRepo) Insert(ctx context.Context, c Company) (Company, error) {
	created, err := scanCompany(t.tx.QueryRow(ctx, `INSERT INTO companies (user_id, name, gstin, pan, cin, address, email, phone,
invoice_prefix, default_due_days, default_tax_rate, currency, bank_name, account_number, ifsc_code, branch, is_active, is_default)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, NULLIF($7, ''), NULLIF($8, ''),
$9, $10, $11, $12, NULLIF($13, ''), NULLIF($14, ''), NULLIF($15, ''), NULLIF($16, ''), $17, $18)
RETURNING `+companyColumns,
		c.UserID, c.Name, c.GSTIN, c.PAN, c.CIN, c.Address, c.Email, c.Phone,
		c.InvoicePrefix, c.DefaultDueDays, c.DefaultTaxRate, c.Currency, c.BankName, c.AccountNumber, c.IFSCCode, c.Branch,
		c.IsActive, c.IsDefault))
	return created, mapWriteError(err)
}

func (t *txRepo) Update(ctx context.Context, c Company) error {
	tag, err := t.tx.Exec(ctx, `UPDATE companies SET name = $3, gstin = NULLIF($4, ''), pan = NULLIF($5, ''), cin = NULLIF($6, ''),
address = $7, email = NULLIF($8, ''), phone = NULLIF($9, ''), invoice_prefix = $10, default_due_days = $11,
default_tax_rate = $12, currency = $13, bank_name = NULLIF($14, ''), account_number = NULLIF($15, ''),
ifsc_code = NULLIF($16, ''), branch = NULLIF($17, ''), is_active = $18, is_default = $19, updated_at = NOW()
WHERE id = $1 AND user_id = $2`,
		c.ID, c.UserID, c.Name, c.GSTIN, c.PAN, c.CIN, c.Address, c.Email, c.Phone, c.InvoicePrefix, c.DefaultDueDays,
		c.DefaultTaxRate, c.Currency, c.BankName, c.AccountNumber, c.IFSCCode, c.Branch, c.IsActive, c.IsDefault)
	if err != nil {
		return fmt.Errorf("companies: update: %w", mapWriteError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("company %d: %w", c.ID, shared.ErrNotFound)
	}
	return nil
}

func (t *txRepo) ClearDefault(ctx context.Context, userID, exceptID int64) error {
	_, err := t.tx.Exec(ctx, `UPDATE companies SET is_default = FALSE, updated_at = NOW()
WHERE user_id = $1 AND is_default AND id <> $2`, userID, exceptID)
	return err
}

func scanCompany(row pgx.Row) (Company, error) {
	var c Company
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.GSTIN, &c.PAN, &c.CIN, &c.Address, &c.Email, &c.Phone,
		&c.InvoicePrefix, &c.DefaultDueDays, &c.DefaultTaxRate, &c.Currency, &c.BankName, &c.AccountNumber,
		&c.IFSCCode, &c.Branch, &c.StampPath, &c.IsActive, &c.IsDefault, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
