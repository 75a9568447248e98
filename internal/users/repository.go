package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitrine-pos/vitrine-pos/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListUsers returns all non-deleted users ordered by creation time.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, role, authorized, created_at, updated_at
		FROM users
		WHERE deleted_at IS NULL
		ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.Authorized, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// FindByID returns a single non-deleted user.
func (r *Repository) FindByID(ctx context.Context, id string) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, role, authorized, created_at, updated_at
		FROM users
		WHERE id = $1 AND deleted_at IS NULL`, id)
	var user User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.Authorized, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateRole changes the user's role.
func (r *Repository) UpdateRole(ctx context.Context, id, role string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET role = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Authorize flips the authorized flag on.
func (r *Repository) Authorize(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET authorized = TRUE, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
