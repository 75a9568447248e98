package products

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitrine-pos/vitrine-pos/internal/shared"
)

// ListFilter selects which products a listing returns.
type ListFilter string

const (
	// ListLive returns only non-deleted products.
	ListLive ListFilter = "live"
	// ListDeleted returns only soft-deleted products.
	ListDeleted ListFilter = "deleted"
	// ListAll returns every product row.
	ListAll ListFilter = "all"
)

// Repository provides PostgreSQL backed persistence for products.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations available inside a transaction.
type TxRepository interface {
	InsertProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) error
	InsertSize(ctx context.Context, s *Size) error
	UpdateSizeQuantity(ctx context.Context, sizeID string, quantity int) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps the callback in a repeatable-read transaction.
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

// FindByID returns a product with its sizes, regardless of deleted state.
func (r *Repository) FindByID(ctx context.Context, id string) (*Product, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, description, price, cost, quantity, quantity_sold,
		       category_id, created_at, updated_at, deleted_at
		FROM products WHERE id = $1`, id)
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Cost, &p.Quantity,
		&p.QuantitySold, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	sizes, err := r.loadSizes(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Sizes = sizes
	return &p, nil
}

func (r *Repository) loadSizes(ctx context.Context, productID string) ([]Size, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, label, quantity
		FROM product_sizes WHERE product_id = $1
		ORDER BY label`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sizes []Size
	for rows.Next() {
		var s Size
		if err := rows.Scan(&s.ID, &s.ProductID, &s.Label, &s.Quantity); err != nil {
			return nil, err
		}
		sizes = append(sizes, s)
	}
	return sizes, rows.Err()
}

// List returns products according to the filter, newest first, sizes attached.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	query := `
		SELECT id, name, description, price, cost, quantity, quantity_sold,
		       category_id, created_at, updated_at, deleted_at
		FROM products`
	switch filter {
	case ListLive:
		query += ` WHERE deleted_at IS NULL`
	case ListDeleted:
		query += ` WHERE deleted_at IS NOT NULL`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Cost, &p.Quantity,
			&p.QuantitySold, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range list {
		sizes, err := r.loadSizes(ctx, list[i].ID)
		if err != nil {
			return nil, err
		}
		list[i].Sizes = sizes
	}
	return list, nil
}

// CountAll counts every product row, soft-deleted included.
func (r *Repository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// CountLive counts non-deleted products.
func (r *Repository) CountLive(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE deleted_at IS NULL`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// NameExists reports whether any product row uses the exact name.
// Soft-deleted rows count too, so a deleted product still reserves its name.
// The comparison is case-sensitive, matching the UNIQUE constraint.
func (r *Repository) NameExists(ctx context.Context, name, excludeID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM products WHERE name = $1 AND id <> $2)`,
		name, excludeID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// CategoryExists reports whether a live category with the id exists.
func (r *Repository) CategoryExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1 AND deleted_at IS NULL)`, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// UpdateName renames a product.
func (r *Repository) UpdateName(ctx context.Context, id, name string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE products SET name = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id, name)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrNameTaken
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SoftDelete marks the product as deleted. Its sizes stay in place so a
// restore brings the stock back unchanged.
func (r *Repository) SoftDelete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE products SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Restore clears the deleted flag.
func (r *Repository) Restore(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE products SET deleted_at = NULL, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NOT NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *txRepo) InsertProduct(ctx context.Context, p *Product) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO products (id, name, description, price, cost, quantity, quantity_sold,
		                      category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, NOW(), NOW())`,
		p.ID, p.Name, p.Description, p.Price, p.Cost, p.Quantity, p.CategoryID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrNameTaken
		}
		return err
	}
	return nil
}

func (t *txRepo) UpdateProduct(ctx context.Context, p *Product) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE products
		SET name = $2, description = $3, price = $4, cost = $5, quantity = $6,
		    category_id = $7, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		p.ID, p.Name, p.Description, p.Price, p.Cost, p.Quantity, p.CategoryID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrNameTaken
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *txRepo) InsertSize(ctx context.Context, s *Size) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO product_sizes (id, product_id, label, quantity)
		VALUES ($1, $2, $3, $4)`, s.ID, s.ProductID, s.Label, s.Quantity)
	return err
}

func (t *txRepo) UpdateSizeQuantity(ctx context.Context, sizeID string, quantity int) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE product_sizes SET quantity = $2 WHERE id = $1`, sizeID, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
