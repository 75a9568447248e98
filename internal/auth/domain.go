package auth

import (
	"errors"
	"time"
)

// Account represents a login-capable user account.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Authorized   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

var (
	// ErrEmailTaken signals a duplicate registration email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrAccountLimitReached signals the registration cap was hit.
	ErrAccountLimitReached = errors.New("account limit reached")
)
