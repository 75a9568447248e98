package categories

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// RepositoryPort defines data access methods for categories.
type RepositoryPort interface {
	List(ctx context.Context, includeDeleted bool) ([]Category, error)
	FindByID(ctx context.Context, id string) (*Category, error)
	Create(ctx context.Context, c *Category) error
	UpdateName(ctx context.Context, id, name string) error
	CountProducts(ctx context.Context, id string) (int, error)
	SoftDelete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
}

// Service handles category business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns categories.
func (s *Service) List(ctx context.Context, includeDeleted bool) ([]Category, error) {
	return s.repo.List(ctx, includeDeleted)
}

// FindByID returns a single category.
func (s *Service) FindByID(ctx context.Context, id string) (*Category, error) {
	return s.repo.FindByID(ctx, id)
}

// Create adds a new category with a unique name.
func (s *Service) Create(ctx context.Context, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	c := &Category{ID: uuid.NewString(), Name: name}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Rename changes a category name.
func (s *Service) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	return s.repo.UpdateName(ctx, id, name)
}

// Delete soft-deletes a category. A category with live products attached
// cannot be removed.
func (s *Service) Delete(ctx context.Context, id string) error {
	count, err := s.repo.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrInUse
	}
	return s.repo.SoftDelete(ctx, id)
}

// Restore brings a soft-deleted category back.
func (s *Service) Restore(ctx context.Context, id string) error {
	return s.repo.Restore(ctx, id)
}
