package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/invoicepro/invoicepro/internal/invoicing"
	"github.com/invoicepro/invoicepro/internal/shared"
)

// Repository runs the aggregate queries on Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// StatusTotals counts and sums invoices per status.
func (r *Repository) StatusTotals(ctx context.Context, userID int64) ([]StatusTotal, error) {
	rows, err := r.pool.Query(ctx, `SELECT i.status, COUNT(*), COALESCE(SUM(i.total), 0)
FROM invoices i WHERE `+invoicing.VisibleTo+`
GROUP BY i.status`, userID)
	if err != nil {
		return nil, fmt.Errorf("dashboard: status totals: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (StatusTotal, error) {
		var (
			t      StatusTotal
			status string
		)
		err := row.Scan(&status, &t.Count, &t.Amount)
		t.Status = invoicing.Status(status)
		return t, err
	})
}

// ActiveClients counts active clients.
func (r *Repository) ActiveClients(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clients WHERE is_active`).Scan(&n); err != nil {
		return 0, fmt.Errorf("dashboard: active clients: %w", err)
	}
	return n, nil
}

// MonthlyRevenue sums invoice totals per calendar month of the invoice date.
func (r *Repository) MonthlyRevenue(ctx context.Context, userID int64, from, to shared.Date, paidOnly bool) ([]MonthAmount, error) {
	rows, err := r.pool.Query(ctx, `SELECT date_trunc('month', i.invoice_date)::date, COALESCE(SUM(i.total), 0)
FROM invoices i
WHERE `+invoicing.VisibleTo+`
  AND i.invoice_date BETWEEN $2 AND $3
  AND (NOT $4 OR i.status = 'PAID')
GROUP BY 1 ORDER BY 1`, userID, from.Time, to.Time, paidOnly)
	if err != nil {
		return nil, fmt.Errorf("dashboard: monthly revenue: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (MonthAmount, error) {
		var (
			start  time.Time
			amount decimal.Decimal
		)
		err := row.Scan(&start, &amount)
		return MonthAmount{Start: shared.DateOf(start), Amount: amount}, err
	})
}

// RecentInvoices lists the latest created invoices.
func (r *Repository) RecentInvoices(ctx context.Context, userID int64, limit int) ([]RecentInvoice, error) {
	rows, err := r.pool.Query(ctx, `SELECT i.id, i.invoice_number, c.name, i.invoice_date, i.total, i.status, i.created_at
FROM invoices i JOIN clients c ON c.id = i.client_id
WHERE `+invoicing.VisibleTo+`
ORDER BY i.created_at DESC, i.id DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("dashboard: recent invoices: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (RecentInvoice, error) {
		var (
			inv    RecentInvoice
			date   time.Time
			status string
		)
		err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.ClientName, &date, &inv.Total, &status, &inv.CreatedAt)
		inv.InvoiceDate = shared.DateOf(date)
		inv.Status = invoicing.Status(status)
		return inv, err
	})
}

// TopClients ranks clients by the total of their visible invoices.
func (r *Repository) TopClients(ctx context.Context, userID int64, limit int, activeOnly bool) ([]ClientRevenue, error) {
	rows, err := r.pool.Query(ctx, `SELECT c.id, c.name, COUNT(i.id), COALESCE(SUM(i.total), 0) AS revenue
FROM clients c JOIN invoices i ON i.client_id = c.id
WHERE `+invoicing.VisibleTo+`
  AND (NOT $3 OR c.is_active)
GROUP BY c.id, c.name
ORDER BY revenue DESC, c.id LIMIT $2`, userID, limit, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("dashboard: top clients: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ClientRevenue, error) {
		var c ClientRevenue
		err := row.Scan(&c.ClientID, &c.Name, &c.InvoiceCount, &c.Revenue)
		return c, err
	})
}
