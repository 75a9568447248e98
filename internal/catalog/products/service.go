package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RepositoryPort defines data access methods for products.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	FindByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, filter ListFilter) ([]Product, error)
	CountAll(ctx context.Context) (int, error)
	CountLive(ctx context.Context) (int, error)
	NameExists(ctx context.Context, name, excludeID string) (bool, error)
	CategoryExists(ctx context.Context, id string) (bool, error)
	UpdateName(ctx context.Context, id, name string) error
	SoftDelete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
}

// CreateProductRequest carries the fields for a new product.
type CreateProductRequest struct {
	Name        string
	Description string
	Price       float64
	Cost        float64
	CategoryID  string
	Sizes       []SizeInput
}

// UpdateProductRequest carries a full product update. Sizes follow merge
// semantics: matched labels are overwritten, omitted sizes are kept.
type UpdateProductRequest struct {
	Name        string
	Description string
	Price       float64
	Cost        float64
	CategoryID  string
	Sizes       []SizeInput
}

// Service handles product business logic.
type Service struct {
	repo        RepositoryPort
	maxProducts int
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, maxProducts int) *Service {
	return &Service{repo: repo, maxProducts: maxProducts}
}

// Create validates and persists a new product with its sizes in one
// transaction. The catalog cap counts every row, deleted rows included.
func (s *Service) Create(ctx context.Context, req CreateProductRequest) (*Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if req.Price < 0 || req.Cost < 0 {
		return nil, ErrInvalidPrice
	}

	count, err := s.repo.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	if count >= s.maxProducts {
		return nil, ErrProductLimitReached
	}

	taken, err := s.repo.NameExists(ctx, name, "")
	if err != nil {
		return nil, fmt.Errorf("check product name: %w", err)
	}
	if taken {
		return nil, ErrNameTaken
	}

	exists, err := s.repo.CategoryExists(ctx, req.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("check category: %w", err)
	}
	if !exists {
		return nil, ErrCategoryNotFound
	}

	sizes, total, err := CombineSizes(req.Sizes)
	if err != nil {
		return nil, err
	}

	product := &Product{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		Cost:        req.Cost,
		Quantity:    total,
		CategoryID:  req.CategoryID,
	}
	for i := range sizes {
		sizes[i].ID = uuid.NewString()
		sizes[i].ProductID = product.ID
	}
	product.Sizes = sizes

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.InsertProduct(ctx, product); err != nil {
			return err
		}
		for i := range product.Sizes {
			if err := tx.InsertSize(ctx, &product.Sizes[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Update applies a full update over a live product. Size entries overwrite
// label-matched existing sizes; sizes the payload omits stay as they are.
func (s *Service) Update(ctx context.Context, id string, req UpdateProductRequest) (*Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if req.Price < 0 || req.Cost < 0 {
		return nil, ErrInvalidPrice
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Names are case-sensitive; a case-only change is a real rename.
	if current.Name != name {
		taken, err := s.repo.NameExists(ctx, name, id)
		if err != nil {
			return nil, fmt.Errorf("check product name: %w", err)
		}
		if taken {
			return nil, ErrNameTaken
		}
	}

	exists, err := s.repo.CategoryExists(ctx, req.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("check category: %w", err)
	}
	if !exists {
		return nil, ErrCategoryNotFound
	}

	merged, total, err := MergeSizes(current.Sizes, req.Sizes)
	if err != nil {
		return nil, err
	}

	updated := &Product{
		ID:           id,
		Name:         name,
		Description:  strings.TrimSpace(req.Description),
		Price:        req.Price,
		Cost:         req.Cost,
		Quantity:     total,
		QuantitySold: current.QuantitySold,
		CategoryID:   req.CategoryID,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateProduct(ctx, updated); err != nil {
			return err
		}
		for i := range merged {
			if merged[i].ID == "" {
				merged[i].ID = uuid.NewString()
				merged[i].ProductID = id
				if err := tx.InsertSize(ctx, &merged[i]); err != nil {
					return err
				}
				continue
			}
			if err := tx.UpdateSizeQuantity(ctx, merged[i].ID, merged[i].Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	updated.Sizes = merged
	return updated, nil
}

// Rename changes only the product name.
func (s *Service) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	taken, err := s.repo.NameExists(ctx, name, id)
	if err != nil {
		return fmt.Errorf("check product name: %w", err)
	}
	if taken {
		return ErrNameTaken
	}
	return s.repo.UpdateName(ctx, id, name)
}

// Get returns a single product with sizes.
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns products for the given filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	return s.repo.List(ctx, filter)
}

// CountLive returns the number of non-deleted products.
func (s *Service) CountLive(ctx context.Context) (int, error) {
	return s.repo.CountLive(ctx)
}

// Delete soft-deletes a product.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.SoftDelete(ctx, id)
}

// Restore brings a soft-deleted product back.
func (s *Service) Restore(ctx context.Context, id string) error {
	return s.repo.Restore(ctx, id)
}
