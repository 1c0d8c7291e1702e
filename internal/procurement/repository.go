package procurement

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/invoicepro/invoicepro/internal/platform/db"
)

// TxRepository exposes transactional operations.
type TxRepository interface {
	InsertPO(ctx context.Context, po PurchaseOrder) (int64, error)
	UpdatePO(ctx context.Context, po PurchaseOrder) error
	DeletePO(ctx context.Context, id int64) error
	InsertLine(ctx context.Context, line LineItem) (int64, error)
	UpdateLine(ctx context.Context, line LineItem) error
	DeleteLine(ctx context.Context, id int64) error
	LockLines(ctx context.Context, poID int64) ([]LineItem, error)
	InvoicedQuantities(ctx context.Context, lineIDs []int64, excludeInvoiceID int64) (map[int64]decimal.Decimal, error)
	CountLineReferences(ctx context.Context, lineID int64) (int, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx wraps callback in repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

const poColumns = `id, company_id, po_number, main_line_number, main_line_description, created_at, updated_at`

const lineColumns = `l.id, l.purchase_order_id, l.subline_number, l.subline_description, l.quantity, l.price,
l.uom_id, COALESCE(u.code, u.name), l.created_at`

// GetPO returns the purchase order and its lines.
func (r *Repository) GetPO(ctx context.Context, id int64) (PurchaseOrder, error) {
	po, err := scanPO(r.pool.QueryRow(ctx, `SELECT `+poColumns+` FROM purchase_orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return PurchaseOrder{}, fmt.Errorf("purchase order %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return PurchaseOrder{}, err
	}
	po.Lines, err = queryLines(ctx, r.pool, `WHERE l.purchase_order_id = $1 ORDER BY l.subline_number, l.id`, id)
	return po, err
}

// ListPOs returns purchase orders for one company, newest first.
func (r *Repository) ListPOs(ctx context.Context, filter ListFilter) ([]PurchaseOrder, int, error) {
	args := []any{filter.CompanyID, "%" + filter.Search + "%"}
	where := ` WHERE company_id = $1 AND (po_number ILIKE $2 OR main_line_description ILIKE $2)`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchase_orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("procurement: count pos: %w", err)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, filter.Offset)
	rows, err := r.pool.Query(ctx, `SELECT `+poColumns+` FROM purchase_orders`+where+
		` ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("procurement: list pos: %w", err)
	}
	defer rows.Close()
	var out []PurchaseOrder
	for rows.Next() {
		po, err := scanPO(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, po)
	}
	return out, total, rows.Err()
}

// GetLine returns a single PO line.
func (r *Repository) GetLine(ctx context.Context, id int64) (LineItem, error) {
	lines, err := queryLines(ctx, r.pool, `WHERE l.id = $1`, id)
	if err != nil {
		return LineItem{}, err
	}
	if len(lines) == 0 {
		return LineItem{}, fmt.Errorf("po line %d: %w", id, ErrNotFound)
	}
	return lines[0], nil
}

// InvoicedQuantities sums invoice item quantities per line.
func (r *Repository) InvoicedQuantities(ctx context.Context, lineIDs []int64, excludeInvoiceID int64) (map[int64]decimal.Decimal, error) {
	return InvoicedQuantities(ctx, r.pool, lineIDs, excludeInvoiceID)
}

// CountInvoiceReferences counts invoice items pointing at any line of the PO.
func (r *Repository) CountInvoiceReferences(ctx context.Context, poID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoice_items ii
JOIN po_line_items l ON l.id = ii.po_line_item_id WHERE l.purchase_order_id = $1`, poID).Scan(&n)
	return n, err
}

// InvoicedQuantities sums invoice item quantities per PO line, skipping the
// items of excludeInvoiceID when non-zero. Lines without items are absent
// from the map.
func InvoicedQuantities(ctx context.Context, q db.Querier, lineIDs []int64, excludeInvoiceID int64) (map[int64]decimal.Decimal, error) {
	out := make(map[int64]decimal.Decimal, len(lineIDs))
	if len(lineIDs) == 0 {
		return out, nil
	}
	rows, err := q.Query(ctx, `SELECT po_line_item_id, COALESCE(SUM(quantity), 0) FROM invoice_items
WHERE po_line_item_id = ANY($1) AND ($2::bigint = 0 OR invoice_id <> $2)
GROUP BY po_line_item_id`, lineIDs, excludeInvoiceID)
	if err != nil {
		return nil, fmt.Errorf("procurement: invoiced quantities: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var qty decimal.Decimal
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, err
		}
		out[id] = qty
	}
	return out, rows.Err()
}

// LockLinesByID loads the given PO lines with FOR UPDATE so concurrent
// invoice writers drawing on the same lines serialize.
func LockLinesByID(ctx context.Context, q db.Querier, ids []int64) ([]LineItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return queryLines(ctx, q, `WHERE l.id = ANY($1) ORDER BY l.id FOR UPDATE OF l`, ids)
}

func queryLines(ctx context.Context, q db.Querier, tail string, args ...any) ([]LineItem, error) {
	rows, err := q.Query(ctx, `SELECT `+lineColumns+` FROM po_line_items l JOIN uoms u ON u.id = l.uom_id `+tail, args...)
	if err != nil {
		return nil, fmt.Errorf("procurement: query lines: %w", err)
	}
	defer rows.Close()
	var out []LineItem
	for rows.Next() {
		var l LineItem
		if err := rows.Scan(&l.ID, &l.PurchaseOrderID, &l.SublineNumber, &l.SublineDescription, &l.Quantity, &l.Price,
			&l.UOMID, &l.UOMCode, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanPO(row pgx.Row) (PurchaseOrder, error) {
	var po PurchaseOrder
	err := row.Scan(&po.ID, &po.CompanyID, &po.PONumber, &po.MainLineNumber, &po.MainLineDescription, &po.CreatedAt, &po.UpdatedAt)
	return po, err
}

type txRepo struct {
	tx pgx.Tx
}

func (t *txRepo) InsertPO(ctx context.Context, po PurchaseOrder) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO purchase_orders (company_id, po_number, main_line_number, main_line_description)
VALUES ($1, $2, $3, $4) RETURNING id`, po.CompanyID, po.PONumber, po.MainLineNumber, po.MainLineDescription).Scan(&id)
	if db.IsUniqueViolation(err, "") {
		return 0, fmt.Errorf("%q: %w", po.PONumber, ErrDuplicate)
	}
	return id, err
}

func (t *txRepo) UpdatePO(ctx context.Context, po PurchaseOrder) error {
	_, err := t.tx.Exec(ctx, `UPDATE purchase_orders SET po_number = $2, main_line_number = $3,
main_line_description = $4, updated_at = NOW() WHERE id = $1`, po.ID, po.PONumber, po.MainLineNumber, po.MainLineDescription)
	if db.IsUniqueViolation(err, "") {
		return fmt.Errorf("%q: %w", po.PONumber, ErrDuplicate)
	}
	return err
}

func (t *txRepo) DeletePO(ctx context.Context, id int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM purchase_orders WHERE id = $1`, id)
	return err
}

func (t *txRepo) InsertLine(ctx context.Context, line LineItem) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO po_line_items (purchase_order_id, subline_number, subline_description, quantity, price, uom_id)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		line.PurchaseOrderID, line.SublineNumber, line.SublineDescription, line.Quantity, line.Price, line.UOMID).Scan(&id)
	if db.IsForeignKeyViolation(err) {
		return 0, validationf("unknown uom %d", line.UOMID)
	}
	return id, err
}

func (t *txRepo) UpdateLine(ctx context.Context, line LineItem) error {
	_, err := t.tx.Exec(ctx, `UPDATE po_line_items SET subline_number = $2, subline_description = $3, quantity = $4,
price = $5, uom_id = $6 WHERE id = $1`, line.ID, line.SublineNumber, line.SublineDescription, line.Quantity, line.Price, line.UOMID)
	if db.IsForeignKeyViolation(err) {
		return validationf("unknown uom %d", line.UOMID)
	}
	return err
}

func (t *txRepo) DeleteLine(ctx context.Context, id int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM po_line_items WHERE id = $1`, id)
	return err
}

func (t *txRepo) LockLines(ctx context.Context, poID int64) ([]LineItem, error) {
	return queryLines(ctx, t.tx, `WHERE l.purchase_order_id = $1 ORDER BY l.id FOR UPDATE OF l`, poID)
}

func (t *txRepo) InvoicedQuantities(ctx context.Context, lineIDs []int64, excludeInvoiceID int64) (map[int64]decimal.Decimal, error) {
	return InvoicedQuantities(ctx, t.tx, lineIDs, excludeInvoiceID)
}

func (t *txRepo) CountLineReferences(ctx context.Context, lineID int64) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM invoice_items WHERE po_line_item_id = $1`, lineID).Scan(&n)
	return n, err
}
