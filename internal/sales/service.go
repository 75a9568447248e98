package sales

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/vitrine-pos/vitrine-pos/internal/observability"
	"github.com/vitrine-pos/vitrine-pos/internal/shared"
	"github.com/vitrine-pos/vitrine-pos/internal/users"
)

// RepositoryPort defines data access methods for sales.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	FindView(ctx context.Context, id string) (*SaleView, error)
	ListViews(ctx context.Context, filter ListFilter) ([]SaleView, error)
}

// UserDirectory resolves sale owners.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*users.User, error)
}

// Service implements the sale transaction and reversal engines.
type Service struct {
	repo    RepositoryPort
	users   UserDirectory
	metrics *observability.Metrics
	now     func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, directory UserDirectory, metrics *observability.Metrics) *Service {
	return &Service{repo: repo, users: directory, metrics: metrics, now: time.Now}
}

// CreateSale validates the request, reserves stock line by line and persists
// the sale with its items as one transaction. Any failure rolls the whole
// operation back, stock decrements included.
func (s *Service) CreateSale(ctx context.Context, req CreateSaleRequest) (*SaleView, error) {
	method, err := ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, s.reject(err)
	}
	if req.Discount < 0 {
		return nil, s.reject(ErrInvalidDiscount)
	}
	if _, err := s.users.FindByID(ctx, req.UserID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, s.reject(ErrUserNotFound)
		}
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, s.reject(ErrEmptyCart)
	}

	sale := &Sale{
		ID:            uuid.NewString(),
		Timestamp:     s.now().UTC(),
		PaymentMethod: method,
		Discount:      req.Discount,
		Gift:          req.Gift,
		Observation:   req.Observation,
		UserID:        req.UserID,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.InsertSale(ctx, sale); err != nil {
			return err
		}

		total := 0.0
		for _, line := range req.Items {
			if line.Quantity <= 0 {
				return ErrInvalidQuantity
			}
			product, err := tx.GetProductForUpdate(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if product.DeletedAt != nil {
				return ErrProductNotFound
			}
			size, err := tx.GetSizeForUpdate(ctx, line.SizeID)
			if err != nil {
				return err
			}
			if size.ProductID != product.ID {
				return ErrSizeMismatch
			}
			if size.Quantity < line.Quantity {
				return &InsufficientStockError{
					ProductName: product.Name,
					SizeLabel:   size.Label,
					Available:   size.Quantity,
					Requested:   line.Quantity,
				}
			}

			if err := tx.UpdateSizeQuantity(ctx, size.ID, size.Quantity-line.Quantity); err != nil {
				return err
			}
			if err := tx.UpdateProductCounters(ctx, product.ID,
				product.Quantity-line.Quantity, product.QuantitySold+line.Quantity); err != nil {
				return err
			}

			item := SaleItem{
				ID:        uuid.NewString(),
				SaleID:    sale.ID,
				ProductID: product.ID,
				SizeID:    size.ID,
				Quantity:  line.Quantity,
			}
			if err := tx.InsertSaleItem(ctx, &item); err != nil {
				return err
			}
			sale.Items = append(sale.Items, item)
			total += product.Price * float64(line.Quantity)
		}

		if req.Discount > total {
			return ErrDiscountExceedsTotal
		}
		sale.TotalAmount = total
		sale.Subtotal = total - req.Discount
		if sale.Subtotal < 0 {
			sale.Subtotal = 0
		}
		return tx.UpdateSaleTotals(ctx, sale.ID, sale.TotalAmount, sale.Discount, sale.Subtotal)
	})
	if err != nil {
		return nil, s.reject(err)
	}

	s.metrics.SaleCommitted()
	return s.repo.FindView(ctx, sale.ID)
}

// DeleteSale reverses a sale: every reserved quantity goes back to its size
// and product, quantitySold is clamped at zero, and the sale with its items
// is removed. One transaction, all or nothing.
func (s *Service) DeleteSale(ctx context.Context, id string) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSaleForUpdate(ctx, id)
		if err != nil {
			return err
		}
		// Lock product before size, matching CreateSale, so a concurrent
		// create and reversal on the same product cannot deadlock.
		for _, item := range sale.Items {
			product, err := tx.GetProductForUpdate(ctx, item.ProductID)
			if err != nil {
				return err
			}
			size, err := tx.GetSizeForUpdate(ctx, item.SizeID)
			if err != nil {
				return err
			}
			if err := tx.UpdateSizeQuantity(ctx, size.ID, size.Quantity+item.Quantity); err != nil {
				return err
			}
			sold := product.QuantitySold - item.Quantity
			if sold < 0 {
				sold = 0
			}
			if err := tx.UpdateProductCounters(ctx, product.ID,
				product.Quantity+item.Quantity, sold); err != nil {
				return err
			}
		}
		if err := tx.DeleteSaleItems(ctx, sale.ID); err != nil {
			return err
		}
		return tx.DeleteSale(ctx, sale.ID)
	})
}

// Get returns a single sale view.
func (s *Service) Get(ctx context.Context, id string) (*SaleView, error) {
	return s.repo.FindView(ctx, id)
}

// ListAll returns every sale, newest first.
func (s *Service) ListAll(ctx context.Context) ([]SaleView, error) {
	return s.repo.ListViews(ctx, ListFilter{})
}

// ListLastFive returns the five most recent sales.
func (s *Service) ListLastFive(ctx context.Context) ([]SaleView, error) {
	return s.repo.ListViews(ctx, ListFilter{Limit: 5})
}

// ListByDateRange returns sales inside [start, end].
func (s *Service) ListByDateRange(ctx context.Context, start, end time.Time) ([]SaleView, error) {
	return s.repo.ListViews(ctx, ListFilter{Start: &start, End: &end})
}

// ListByGift returns sales matching the gift flag.
func (s *Service) ListByGift(ctx context.Context, gift bool) ([]SaleView, error) {
	return s.repo.ListViews(ctx, ListFilter{Gift: &gift})
}

// ListByDateRangeAndGift combines both filters.
func (s *Service) ListByDateRangeAndGift(ctx context.Context, start, end time.Time, gift bool) ([]SaleView, error) {
	return s.repo.ListViews(ctx, ListFilter{Start: &start, End: &end, Gift: &gift})
}

func (s *Service) reject(err error) error {
	s.metrics.SaleRejected(rejectionReason(err))
	return err
}

func rejectionReason(err error) string {
	var stockErr *InsufficientStockError
	switch {
	case errors.Is(err, ErrInvalidPaymentMethod):
		return "invalid_payment_method"
	case errors.Is(err, ErrInvalidDiscount):
		return "invalid_discount"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, ErrSizeNotFound):
		return "size_not_found"
	case errors.Is(err, ErrSizeMismatch):
		return "size_mismatch"
	case errors.As(err, &stockErr):
		return "insufficient_stock"
	case errors.Is(err, ErrDiscountExceedsTotal):
		return "discount_exceeds_total"
	default:
		return "internal"
	}
}
