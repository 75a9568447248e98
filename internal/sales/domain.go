package sales

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// PaymentMethod is the settlement method of a sale.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "CASH"
	PaymentDebit  PaymentMethod = "DEBIT"
	PaymentCredit PaymentMethod = "CREDIT"
	PaymentPix    PaymentMethod = "PIX"
	PaymentOther  PaymentMethod = "OTHER"
)

// PaymentMethods lists every accepted method.
var PaymentMethods = []PaymentMethod{PaymentCash, PaymentDebit, PaymentCredit, PaymentPix, PaymentOther}

// ParsePaymentMethod maps a client token onto a PaymentMethod.
func ParsePaymentMethod(token string) (PaymentMethod, error) {
	candidate := PaymentMethod(strings.ToUpper(strings.TrimSpace(token)))
	for _, m := range PaymentMethods {
		if m == candidate {
			return m, nil
		}
	}
	return "", ErrInvalidPaymentMethod
}

// Sale is a committed point-of-sale transaction.
type Sale struct {
	ID            string
	Timestamp     time.Time
	TotalAmount   float64
	Discount      float64
	Subtotal      float64
	PaymentMethod PaymentMethod
	Gift          bool
	Observation   string
	UserID        string
	Items         []SaleItem
}

// SaleItem is one reserved line of a sale.
type SaleItem struct {
	ID        string
	SaleID    string
	ProductID string
	SizeID    string
	Quantity  int
}

// CreateSaleItem is one cart line as submitted.
type CreateSaleItem struct {
	ProductID string
	SizeID    string
	Quantity  int
}

// CreateSaleRequest carries everything needed to record a sale.
type CreateSaleRequest struct {
	UserID        string
	PaymentMethod string
	Discount      float64
	Gift          bool
	Observation   string
	Items         []CreateSaleItem
}

// SaleItemView is the read model of a sale line. Product and size names and
// the unit price are resolved at read time.
type SaleItemView struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	SizeID      string  `json:"sizeId"`
	SizeLabel   string  `json:"sizeLabel"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

// SaleView is the read model exposed to listings and reports.
type SaleView struct {
	ID            string         `json:"id"`
	Timestamp     time.Time      `json:"timestamp"`
	TotalAmount   float64        `json:"totalAmount"`
	Discount      float64        `json:"discount"`
	Subtotal      float64        `json:"subtotal"`
	PaymentMethod PaymentMethod  `json:"paymentMethod"`
	Gift          bool           `json:"gift"`
	Observation   string         `json:"observation,omitempty"`
	UserID        string         `json:"userId"`
	UserName      string         `json:"userName"`
	Items         []SaleItemView `json:"items"`
}

var (
	// ErrInvalidPaymentMethod signals an unknown payment method token.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	// ErrInvalidDiscount signals a negative discount.
	ErrInvalidDiscount = errors.New("discount must not be negative")
	// ErrUserNotFound signals an unknown sale owner.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmptyCart signals a sale without line items.
	ErrEmptyCart = errors.New("sale has no items")
	// ErrInvalidQuantity signals a non-positive line quantity.
	ErrInvalidQuantity = errors.New("item quantity must be positive")
	// ErrProductNotFound signals an unknown product reference.
	ErrProductNotFound = errors.New("product not found")
	// ErrSizeNotFound signals an unknown size reference.
	ErrSizeNotFound = errors.New("size not found")
	// ErrSizeMismatch signals a size that belongs to a different product.
	ErrSizeMismatch = errors.New("size does not belong to product")
	// ErrDiscountExceedsTotal signals a discount larger than the cart total.
	ErrDiscountExceedsTotal = errors.New("discount exceeds sale total")
	// ErrSaleNotFound signals an unknown sale id.
	ErrSaleNotFound = errors.New("sale not found")
)

// InsufficientStockError reports a stock shortfall with enough context for
// the seller to fix the cart.
type InsufficientStockError struct {
	ProductName string
	SizeLabel   string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s size %s: %d available, %d requested",
		e.ProductName, e.SizeLabel, e.Available, e.Requested)
}
