package products

import (
	"errors"
	"time"
)

// Product is a catalog item carrying denormalized stock counters.
// Quantity mirrors the sum of its size quantities.
type Product struct {
	ID           string
	Name         string
	Description  string
	Price        float64
	Cost         float64
	Quantity     int
	QuantitySold int
	CategoryID   string
	Sizes        []Size
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// Size is a per-label stock bucket of a product.
type Size struct {
	ID        string
	ProductID string
	Label     string
	Quantity  int
}

var (
	// ErrProductLimitReached signals the catalog cap was hit.
	ErrProductLimitReached = errors.New("product limit reached")
	// ErrNameTaken signals a duplicate product name.
	ErrNameTaken = errors.New("product name already in use")
	// ErrCategoryNotFound signals a reference to a missing category.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrTooManySizes signals more than the allowed distinct size labels.
	ErrTooManySizes = errors.New("too many sizes")
	// ErrEmptySizeLabel signals a blank size label.
	ErrEmptySizeLabel = errors.New("size label must not be empty")
	// ErrNegativeSizeQuantity signals a negative size quantity.
	ErrNegativeSizeQuantity = errors.New("size quantity must not be negative")
	// ErrInvalidPrice signals a negative price or cost.
	ErrInvalidPrice = errors.New("price and cost must not be negative")
	// ErrEmptyName signals a blank product name.
	ErrEmptyName = errors.New("product name must not be empty")
)
