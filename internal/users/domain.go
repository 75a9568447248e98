package users

import (
	"errors"
	"time"
)

// User is a back-office account as exposed to administrators.
type User struct {
	ID         string
	Name       string
	Email      string
	Role       string
	Authorized bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ErrInvalidRole signals an unknown role value.
var ErrInvalidRole = errors.New("invalid role")
