package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vitrine-pos/vitrine-pos/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo        Repository
	maxAccounts int
}

// NewService constructs a new Service.
func NewService(repo Repository, maxAccounts int) *Service {
	return &Service{repo: repo, maxAccounts: maxAccounts}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	account, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !account.Authorized {
		return nil, shared.ErrNotAuthorized
	}
	return account, nil
}

// Register creates a new account. The store supports a small fixed number
// of accounts; once the cap is reached registration is closed. New accounts
// start unauthorized with the SELLER role and wait for an admin to approve.
func (s *Service) Register(ctx context.Context, name, email, password string) (*Account, error) {
	count, err := s.repo.CountAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if count >= s.maxAccounts {
		return nil, ErrAccountLimitReached
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	account := &Account{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		Role:         shared.RoleSeller,
		Authorized:   false,
	}
	if err := s.repo.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return account, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
