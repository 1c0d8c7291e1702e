package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invoicepro/invoicepro/internal/invoicing"
	"github.com/invoicepro/invoicepro/internal/platform/db"
	"github.com/invoicepro/invoicepro/internal/shared"
)

// TxRepository exposes the statements of one payment write.
type TxRepository interface {
	LockInvoice(ctx context.Context, invoiceID int64) (invoicing.StatusRow, error)
	ListByInvoice(ctx context.Context, invoiceID int64) ([]Payment, error)
	Insert(ctx context.Context, p Payment) (int64, error)
	Update(ctx context.Context, p Payment) error
	Delete(ctx context.Context, id int64) error
	SetInvoiceStatus(ctx context.Context, invoiceID int64, status invoicing.Status) error
}

// Repository persists payments in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs fn in a read-committed transaction that locks the invoice row.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithReadCommitted(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

const paymentColumns = `id, invoice_id, payment_date, amount, tds_amount, tds_percentage, fine_amount,
adjustment_amount, net_amount, payment_method, reference_number, bank_name, remarks, status, is_on_hold,
hold_reason, created_by, created_at, updated_at`

// Get returns one payment.
func (r *Repository) Get(ctx context.Context, id int64) (Payment, error) {
	p, err := scanPayment(r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Payment{}, fmt.Errorf("payment %d: %w", id, ErrNotFound)
	}
	return p, err
}

// ListByInvoice returns an invoice's payments, latest first.
func (r *Repository) ListByInvoice(ctx context.Context, invoiceID int64) ([]Payment, error) {
	return listByInvoice(ctx, r.pool, invoiceID)
}

func listByInvoice(ctx context.Context, q db.Querier, invoiceID int64) ([]Payment, error) {
	rows, err := q.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE invoice_id = $1
ORDER BY payment_date DESC, created_at DESC`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("payments: list: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Payment, error) {
		return scanPayment(row)
	})
	if err != nil {
		return nil, fmt.Errorf("payments: scan: %w", err)
	}
	return out, nil
}

func scanPayment(row pgx.Row) (Payment, error) {
	var (
		p       Payment
		date    time.Time
		method  string
		status  string
		ref     *string
		bank    *string
		remarks *string
		reason  *string
	)
	err := row.Scan(&p.ID, &p.InvoiceID, &date, &p.Amount, &p.TDSAmount, &p.TDSPercentage, &p.FineAmount,
		&p.AdjustmentAmount, &p.NetAmount, &method, &ref, &bank, &remarks, &status, &p.IsOnHold,
		&reason, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Payment{}, err
	}
	p.PaymentDate = shared.DateOf(date)
	p.PaymentMethod = Method(method)
	p.Status = Status(status)
	p.ReferenceNumber = deref(ref)
	p.BankName = deref(bank)
	p.Remarks = deref(remarks)
	p.HoldReason = deref(reason)
	return p, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type txRepo struct {
	tx pgx.Tx
}

func (t *txRepo) LockInvoice(ctx context.Context, invoiceID int64) (invoicing.StatusRow, error) {
	return invoicing.LockStatus(ctx, t.tx, invoiceID)
}

func (t *txRepo) ListByInvoice(ctx context.Context, invoiceID int64) ([]Payment, error) {
	return listByInvoice(ctx, t.tx, invoiceID)
}

func (t *txRepo) Insert(ctx context.Context, p Payment) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO payments (invoice_id, payment_date, amount, tds_amount, tds_percentage,
fine_amount, adjustment_amount, net_amount, payment_method, reference_number, bank_name, remarks, status,
is_on_hold, hold_reason, created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,NOW(),NOW()) RETURNING id`,
		p.InvoiceID, p.PaymentDate.Time, p.Amount, p.TDSAmount, p.TDSPercentage, p.FineAmount, p.AdjustmentAmount,
		p.NetAmount, string(p.PaymentMethod), nullable(p.ReferenceNumber), nullable(p.BankName), nullable(p.Remarks),
		string(p.Status), p.IsOnHold, nullable(p.HoldReason), p.CreatedBy).Scan(&id)
	return id, err
}

func (t *txRepo) Update(ctx context.Context, p Payment) error {
	_, err := t.tx.Exec(ctx, `UPDATE payments SET payment_date=$2, amount=$3, tds_amount=$4, tds_percentage=$5,
fine_amount=$6, adjustment_amount=$7, net_amount=$8, payment_method=$9, reference_number=$10, bank_name=$11,
remarks=$12, status=$13, is_on_hold=$14, hold_reason=$15, updated_at=NOW() WHERE id=$1`,
		p.ID, p.PaymentDate.Time, p.Amount, p.TDSAmount, p.TDSPercentage, p.FineAmount, p.AdjustmentAmount,
		p.NetAmount, string(p.PaymentMethod), nullable(p.ReferenceNumber), nullable(p.BankName), nullable(p.Remarks),
		string(p.Status), p.IsOnHold, nullable(p.HoldReason))
	return err
}

func (t *txRepo) Delete(ctx context.Context, id int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	return err
}

func (t *txRepo) SetInvoiceStatus(ctx context.Context, invoiceID int64, status invoicing.Status) error {
	return invoicing.SaveStatus(ctx, t.tx, invoiceID, status)
}
