package clients

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invoicepro/invoicepro/internal/masterdata/shared"
	internalShared "github.com/invoicepro/invoicepro/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters internalShared.ListFilter) ([]Client, int, error)
	Get(ctx context.Context, id int64) (Client, error)
	Create(ctx context.Context, c Client) (Client, error)
	Update(ctx context.Context, id int64, c Client) error
	Delete(ctx context.Context, id int64) error
	CountInvoices(ctx context.Context, id int64) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

var sortColumns = map[string]string{"name": "name", "email": "email", "created_at": "created_at"}

const clientColumns = `id, name, email, COALESCE(phone, ''), COALESCE(address, ''), COALESCE(gstin, ''), is_active, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters internalShared.ListFilter) ([]Client, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (name ILIKE $` + n + ` OR email ILIKE $` + n + ` OR phone ILIKE $` + n + `)`
	}
	if filters.Active != nil {
		args = append(args, *filters.Active)
		where += ` AND is_active = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clients`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("clients: count: %w", err)
	}

	query := `SELECT ` + clientColumns + ` FROM clients` + where +
		` ORDER BY ` + shared.SortClause(sortColumns, filters.SortBy, filters.SortDir, "name")
	if filters.PerPage > 0 {
		args = append(args, filters.PerPage, filters.Offset())
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("clients: list: %w", err)
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Client, error) {
	c, err := scanClient(r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, fmt.Errorf("client %d: %w", id, shared.ErrNotFound)
	}
	return c, err
}

func (r *repository) Create(ctx context.Context, c Client) (Client, error) {
	return scanClient(r.pool.QueryRow(ctx, `INSERT INTO clients (name, email, phone, address, gstin, is_active)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6)
RETURNING `+clientColumns, c.Name, c.Email, c.Phone, c.Address, c.GSTIN, c.IsActive))
}

func (r *repository) Update(ctx context.Context, id int64, c Client) error {
	tag, err := r.pool.Exec(ctx, `UPDATE clients SET name = $2, email = $3, phone = NULLIF($4, ''), address = NULLIF($5, ''),
gstin = NULLIF($6, ''), is_active = $7, updated_at = NOW() WHERE id = $1`,
		id, c.Name, c.Email, c.Phone, c.Address, c.GSTIN, c.IsActive)
	if err != nil {
		return fmt.Errorf("clients: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("client %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("clients: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("client %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) CountInvoices(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoices WHERE client_id = $1`, id).Scan(&n)
	return n, err
}

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.GSTIN, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
