package units

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
	List(ctx context.Context, filters internalShared.ListFilter) ([]Unit, int, error)
	Get(ctx context.Context, id int64) (Unit, error)
	GetByName(ctx context.Context, name string) (Unit, error)
	Create(ctx context.Context, unit Unit) (Unit, error)
	Update(ctx context.Context, id int64, unit Unit) error
	Delete(ctx context.Context, id int64) error
	CountLineReferences(ctx context.Context, id int64) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

var sortColumns = map[string]string{"name": "name", "code": "code", "created_at": "created_at"}

const unitColumns = `id, name, COALESCE(code, ''), COALESCE(description, ''), is_active, created_at, updated_at`

// List uses a dynamic query because of the optional filters.
func (r *repository) List(ctx context.Context, filters internalShared.ListFilter) ([]Unit, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		where += ` AND (name ILIKE $` + strconv.Itoa(len(args)) + ` OR code ILIKE $` + strconv.Itoa(len(args)) + `)`
	}
	if filters.Active != nil {
		args = append(args, *filters.Active)
		where += ` AND is_active = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM uoms`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("units: count: %w", err)
	}

	query := `SELECT ` + unitColumns + ` FROM uoms` + where +
		` ORDER BY ` + shared.SortClause(sortColumns, filters.SortBy, filters.SortDir, "name")
	if filters.PerPage > 0 {
		args = append(args, filters.PerPage, filters.Offset())
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("units: list: %w", err)
	}
	defer rows.Close()

	var units []Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, 0, err
		}
		units = append(units, u)
	}
	return units, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Unit, error) {
	u, err := scanUnit(r.pool.QueryRow(ctx, `SELECT `+unitColumns+` FROM uoms WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Unit{}, fmt.Errorf("unit %d: %w", id, shared.ErrNotFound)
	}
	return u, err
}

func (r *repository) GetByName(ctx context.Context, name string) (Unit, error) {
	u, err := scanUnit(r.pool.QueryRow(ctx, `SELECT `+unitColumns+` FROM uoms WHERE lower(name) = lower($1)`, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return Unit{}, fmt.Errorf("unit %q: %w", name, shared.ErrNotFound)
	}
	return u, err
}

func (r *repository) Create(ctx context.Context, unit Unit) (Unit, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO uoms (name, code, description, is_active)
VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4)
RETURNING `+unitColumns, unit.Name, unit.Code, unit.Description, unit.IsActive)
	created, err := scanUnit(row)
	if db.IsUniqueViolation(err, "") {
		return Unit{}, fmt.Errorf("unit %q: %w", unit.Name, shared.ErrDuplicate)
	}
	return created, err
}

func (r *repository) Update(ctx context.Context, id int64, unit Unit) error {
	tag, err := r.pool.Exec(ctx, `UPDATE uoms SET name = $2, code = NULLIF($3, ''), description = NULLIF($4, ''),
is_active = $5, updated_at = NOW() WHERE id = $1`, id, unit.Name, unit.Code, unit.Description, unit.IsActive)
	if db.IsUniqueViolation(err, "") {
		return fmt.Errorf("unit %q: %w", unit.Name, shared.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("units: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("unit %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM uoms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("units: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("unit %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) CountLineReferences(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM po_line_items WHERE uom_id = $1`, id).Scan(&n)
	return n, err
}

func scanUnit(row pgx.Row) (Unit, error) {
	var u Unit
	err := row.Scan(&u.ID, &u.Name, &u.Code, &u.Description, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
