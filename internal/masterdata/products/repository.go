package products

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invoicepro/invoicepro/internal/masterdata/shared"
	"github.com/invoicepro/invoicepro/internal/platform/db"
	internalShared "github.com/invoicepro/invoicepro/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters internalShared.ListFilter) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, id int64, p Product) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

var sortColumns = map[string]string{
	"name": "name", "sku": "sku", "category": "category", "unit_price": "unit_price", "created_at": "created_at",
}

const productColumns = `id, name, COALESCE(sku, ''), COALESCE(category, ''), unit_price, tax_rate, is_active, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters internalShared.ListFilter) ([]Product, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (name ILIKE $` + n + ` OR sku ILIKE $` + n + ` OR category ILIKE $` + n + `)`
	}
	if filters.Active != nil {
		args = append(args, *filters.Active)
		where += ` AND is_active = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("products: count: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products` + where +
		` ORDER BY ` + shared.SortClause(sortColumns, filters.SortBy, filters.SortDir, "name")
	if filters.PerPage > 0 {
		args = append(args, filters.PerPage, filters.Offset())
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("products: list: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("product %d: %w", id, shared.ErrNotFound)
	}
	return p, err
}

func (r *repository) Create(ctx context.Context, p Product) (Product, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO products (name, sku, category, unit_price, tax_rate, is_active)
VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6)
RETURNING `+productColumns, p.Name, p.SKU, p.Category, p.UnitPrice, p.TaxRate, p.IsActive)
	created, err := scanProduct(row)
	if db.IsUniqueViolation(err, "") {
		return Product{}, fmt.Errorf("product sku %q: %w", p.SKU, shared.ErrDuplicate)
	}
	return created, err
}

func (r *repository) Update(ctx context.Context, id int64, p Product) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET name = $2, sku = NULLIF($3, ''), category = NULLIF($4, ''),
unit_price = $5, tax_rate = $6, is_active = $7, updated_at = NOW() WHERE id = $1`,
		id, p.Name, p.SKU, p.Category, p.UnitPrice, p.TaxRate, p.IsActive)
	if db.IsUniqueViolation(err, "") {
		return fmt.Errorf("product sku %q: %w", p.SKU, shared.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("products: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("products: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Category, &p.UnitPrice, &p.TaxRate, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
