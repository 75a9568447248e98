package categories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitrine-pos/vitrine-pos/internal/shared"
)

// Repository provides PostgreSQL backed persistence for categories.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns categories, optionally including soft-deleted rows.
func (r *Repository) List(ctx context.Context, includeDeleted bool) ([]Category, error) {
	query := `
		SELECT id, name, created_at, updated_at, deleted_at
		FROM categories`
	if !includeDeleted {
		query += ` WHERE deleted_at IS NULL`
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// FindByID returns a category regardless of its deleted state.
func (r *Repository) FindByID(ctx context.Context, id string) (*Category, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, created_at, updated_at, deleted_at
		FROM categories WHERE id = $1`, id)
	var c Category
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a new category.
func (r *Repository) Create(ctx context.Context, c *Category) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO categories (id, name, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())`, c.ID, c.Name)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrNameTaken
		}
		return err
	}
	return nil
}

// UpdateName renames a category.
func (r *Repository) UpdateName(ctx context.Context, id, name string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE categories SET name = $2, updated_at = NOW()
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

// CountProducts counts live products still referencing the category.
func (r *Repository) CountProducts(ctx context.Context, id string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM products
		WHERE category_id = $1 AND deleted_at IS NULL`, id).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// SoftDelete marks the category as deleted.
func (r *Repository) SoftDelete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE categories SET deleted_at = NOW(), updated_at = NOW()
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
		UPDATE categories SET deleted_at = NULL, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NOT NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
