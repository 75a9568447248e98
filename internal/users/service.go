package users

import (
	"context"

	"github.com/vitrine-pos/vitrine-pos/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	UpdateRole(ctx context.Context, id, role string) error
	Authorize(ctx context.Context, id string) error
}

// Service handles user business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// FindByID returns a single user.
func (s *Service) FindByID(ctx context.Context, id string) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// ChangeRole sets the user's role after validating the value.
func (s *Service) ChangeRole(ctx context.Context, id, role string) error {
	if role != shared.RoleAdmin && role != shared.RoleSeller {
		return ErrInvalidRole
	}
	return s.repo.UpdateRole(ctx, id, role)
}

// Authorize approves an account so it can log in.
func (s *Service) Authorize(ctx context.Context, id string) error {
	return s.repo.Authorize(ctx, id)
}
