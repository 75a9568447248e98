package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductStock is the slice of a product the engine locks and mutates.
type ProductStock struct {
	ID           string
	Name         string
	Price        float64
	Quantity     int
	QuantitySold int
	DeletedAt    *time.Time
}

// SizeStock is the slice of a product size the engine locks and mutates.
type SizeStock struct {
	ID        string
	ProductID string
	Label     string
	Quantity  int
}

// TxRepository exposes the operations available inside a sale transaction.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, id string) (*ProductStock, error)
	GetSizeForUpdate(ctx context.Context, id string) (*SizeStock, error)
	UpdateSizeQuantity(ctx context.Context, id string, quantity int) error
	UpdateProductCounters(ctx context.Context, id string, quantity, quantitySold int) error
	InsertSale(ctx context.Context, sale *Sale) error
	InsertSaleItem(ctx context.Context, item *SaleItem) error
	UpdateSaleTotals(ctx context.Context, saleID string, total, discount, subtotal float64) error
	GetSaleForUpdate(ctx context.Context, id string) (*Sale, error)
	DeleteSaleItems(ctx context.Context, saleID string) error
	DeleteSale(ctx context.Context, saleID string) error
}

// Repository provides PostgreSQL backed persistence for sales.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps the callback in a repeatable-read transaction. Row locks
// taken via the ForUpdate queries serialize concurrent sales against the
// same size so stock cannot be oversold.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	wrapper := &txRepo{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetProductForUpdate loads soft-deleted products too: a reversal must be
// able to restore stock onto a product that was deleted after the sale.
// Callers that only accept live products check DeletedAt themselves.
func (t *txRepo) GetProductForUpdate(ctx context.Context, id string) (*ProductStock, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT id, name, price, quantity, quantity_sold, deleted_at
		FROM products
		WHERE id = $1
		FOR UPDATE`, id)
	var p ProductStock
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.QuantitySold, &p.DeletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (t *txRepo) GetSizeForUpdate(ctx context.Context, id string) (*SizeStock, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT id, product_id, label, quantity
		FROM product_sizes
		WHERE id = $1
		FOR UPDATE`, id)
	var s SizeStock
	if err := row.Scan(&s.ID, &s.ProductID, &s.Label, &s.Quantity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSizeNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (t *txRepo) UpdateSizeQuantity(ctx context.Context, id string, quantity int) error {
	_, err := t.tx.Exec(ctx, `UPDATE product_sizes SET quantity = $2 WHERE id = $1`, id, quantity)
	return err
}

func (t *txRepo) UpdateProductCounters(ctx context.Context, id string, quantity, quantitySold int) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE products SET quantity = $2, quantity_sold = $3, updated_at = NOW()
		WHERE id = $1`, id, quantity, quantitySold)
	return err
}

func (t *txRepo) InsertSale(ctx context.Context, sale *Sale) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO sales (id, sold_at, total_amount, discount, subtotal, payment_method,
		                   gift, observation, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sale.ID, sale.Timestamp, sale.TotalAmount, sale.Discount, sale.Subtotal,
		string(sale.PaymentMethod), sale.Gift, sale.Observation, sale.UserID)
	return err
}

func (t *txRepo) InsertSaleItem(ctx context.Context, item *SaleItem) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO sale_items (id, sale_id, product_id, size_id, quantity)
		VALUES ($1, $2, $3, $4, $5)`,
		item.ID, item.SaleID, item.ProductID, item.SizeID, item.Quantity)
	return err
}

func (t *txRepo) UpdateSaleTotals(ctx context.Context, saleID string, total, discount, subtotal float64) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE sales SET total_amount = $2, discount = $3, subtotal = $4
		WHERE id = $1`, saleID, total, discount, subtotal)
	return err
}

func (t *txRepo) GetSaleForUpdate(ctx context.Context, id string) (*Sale, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT id, sold_at, total_amount, discount, subtotal, payment_method,
		       gift, observation, user_id
		FROM sales WHERE id = $1
		FOR UPDATE`, id)
	var sale Sale
	var method string
	err := row.Scan(&sale.ID, &sale.Timestamp, &sale.TotalAmount, &sale.Discount,
		&sale.Subtotal, &method, &sale.Gift, &sale.Observation, &sale.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	sale.PaymentMethod = PaymentMethod(method)

	rows, err := t.tx.Query(ctx, `
		SELECT id, sale_id, product_id, size_id, quantity
		FROM sale_items WHERE sale_id = $1
		ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var item SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.SizeID, &item.Quantity); err != nil {
			return nil, err
		}
		sale.Items = append(sale.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &sale, nil
}

func (t *txRepo) DeleteSaleItems(ctx context.Context, saleID string) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, saleID)
	return err
}

func (t *txRepo) DeleteSale(ctx context.Context, saleID string) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM sales WHERE id = $1`, saleID)
	return err
}

const saleViewQuery = `
	SELECT s.id, s.sold_at, s.total_amount, s.discount, s.subtotal, s.payment_method,
	       s.gift, s.observation, s.user_id, COALESCE(u.name, '')
	FROM sales s
	LEFT JOIN users u ON u.id = s.user_id`

// FindView loads one sale in its outward-facing shape.
func (r *Repository) FindView(ctx context.Context, id string) (*SaleView, error) {
	row := r.pool.QueryRow(ctx, saleViewQuery+` WHERE s.id = $1`, id)
	view, err := scanSaleView(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	items, err := r.loadItemViews(ctx, []string{view.ID})
	if err != nil {
		return nil, err
	}
	view.Items = items[view.ID]
	if view.Items == nil {
		view.Items = []SaleItemView{}
	}
	return view, nil
}

// ListFilter narrows sale listings.
type ListFilter struct {
	Start *time.Time
	End   *time.Time
	Gift  *bool
	Limit int
}

// ListViews returns sales newest first, honoring the filter.
func (r *Repository) ListViews(ctx context.Context, filter ListFilter) ([]SaleView, error) {
	query := saleViewQuery
	var conditions []string
	var args []any
	argPos := 1
	if filter.Start != nil {
		conditions = append(conditions, fmt.Sprintf("s.sold_at >= $%d", argPos))
		args = append(args, *filter.Start)
		argPos++
	}
	if filter.End != nil {
		conditions = append(conditions, fmt.Sprintf("s.sold_at <= $%d", argPos))
		args = append(args, *filter.End)
		argPos++
	}
	if filter.Gift != nil {
		conditions = append(conditions, fmt.Sprintf("s.gift = $%d", argPos))
		args = append(args, *filter.Gift)
		argPos++
	}
	if len(conditions) > 0 {
		query += " WHERE " + conditions[0]
		for i := 1; i < len(conditions); i++ {
			query += " AND " + conditions[i]
		}
	}
	query += " ORDER BY s.sold_at DESC, s.id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, filter.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []SaleView
	var ids []string
	for rows.Next() {
		view, err := scanSaleView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
		ids = append(ids, view.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return []SaleView{}, nil
	}

	itemsBySale, err := r.loadItemViews(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range views {
		views[i].Items = itemsBySale[views[i].ID]
		if views[i].Items == nil {
			views[i].Items = []SaleItemView{}
		}
	}
	return views, nil
}

func scanSaleView(row pgx.Row) (*SaleView, error) {
	var view SaleView
	var method string
	err := row.Scan(&view.ID, &view.Timestamp, &view.TotalAmount, &view.Discount,
		&view.Subtotal, &method, &view.Gift, &view.Observation, &view.UserID, &view.UserName)
	if err != nil {
		return nil, err
	}
	view.PaymentMethod = PaymentMethod(method)
	return &view, nil
}

func (r *Repository) loadItemViews(ctx context.Context, saleIDs []string) (map[string][]SaleItemView, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT i.sale_id, i.product_id, COALESCE(p.name, ''), i.size_id,
		       COALESCE(ps.label, ''), i.quantity, COALESCE(p.price, 0)
		FROM sale_items i
		LEFT JOIN products p ON p.id = i.product_id
		LEFT JOIN product_sizes ps ON ps.id = i.size_id
		WHERE i.sale_id = ANY($1)
		ORDER BY i.id`, saleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]SaleItemView)
	for rows.Next() {
		var saleID string
		var item SaleItemView
		if err := rows.Scan(&saleID, &item.ProductID, &item.ProductName, &item.SizeID,
			&item.SizeLabel, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		out[saleID] = append(out[saleID], item)
	}
	return out, rows.Err()
}
