package categories

import (
	"errors"
	"time"
)

// Category groups products for browsing and reporting.
type Category struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

var (
	// ErrNameTaken signals a duplicate category name.
	ErrNameTaken = errors.New("category name already in use")
	// ErrInUse signals the category still has products attached.
	ErrInUse = errors.New("category has products attached")
	// ErrEmptyName signals a blank category name.
	ErrEmptyName = errors.New("category name must not be empty")
)
