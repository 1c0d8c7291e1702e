package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invoicepro/invoicepro/internal/invoicing"
	"github.com/invoicepro/invoicepro/internal/platform/db"
	"github.com/invoicepro/invoicepro/internal/shared"
)

// Repository reads reminder candidates from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Candidates returns invoices matching either reminder rule in w. Classify
// applies the same rules again, so the query only has to be a superset.
func (r *Repository) Candidates(ctx context.Context, w Window) ([]Candidate, error) {
	rows, err := r.pool.Query(ctx, `SELECT i.id, i.invoice_number, i.company_id, co.name, cl.name,
COALESCE(u.email, ''), COALESCE(u.full_name, ''), i.due_date, i.total, i.status, i.reminder_sent_at
FROM invoices i
JOIN companies co ON co.id = i.company_id
JOIN clients cl ON cl.id = i.client_id
LEFT JOIN users u ON u.id = co.user_id
WHERE (i.reminder_sent_at IS NULL OR i.reminder_sent_at < $3)
  AND ((i.due_date = $1 AND i.status IN ('PENDING', 'OVERDUE'))
    OR (i.due_date <= $2 AND i.status = 'PENDING'))
ORDER BY i.due_date, i.id`, w.UpcomingDue.Time, w.OverdueCutoff.Time, w.RemindedSince)
	if err != nil {
		return nil, fmt.Errorf("reminders: query candidates: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Candidate, error) {
		var (
			c      Candidate
			due    time.Time
			status string
		)
		err := row.Scan(&c.InvoiceID, &c.InvoiceNumber, &c.CompanyID, &c.CompanyName, &c.ClientName,
			&c.OwnerEmail, &c.OwnerName, &due, &c.Total, &status, &c.ReminderSentAt)
		c.DueDate = shared.DateOf(due)
		c.Status = invoicing.Status(status)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("reminders: scan candidates: %w", err)
	}
	return out, nil
}

// MarkReminded stamps reminder_sent_at and, for overdue invoices, promotes
// the status through the automatic transition table.
func (r *Repository) MarkReminded(ctx context.Context, invoiceID int64, at time.Time, overdue bool) error {
	return db.WithReadCommitted(ctx, r.pool, func(tx pgx.Tx) error {
		row, err := invoicing.LockStatus(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE invoices SET reminder_sent_at = $2 WHERE id = $1`, invoiceID, at); err != nil {
			return err
		}
		if !overdue {
			return nil
		}
		if next, ok := invoicing.Promote(row.Status, invoicing.StatusOverdue); ok {
			return invoicing.SaveStatus(ctx, tx, invoiceID, next)
		}
		return nil
	})
}
