package products_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vitrine-pos/vitrine-pos/internal/catalog/products"
	"github.com/vitrine-pos/vitrine-pos/internal/shared"
	_ "github.com/vitrine-pos/vitrine-pos/testing"
)

type mockRepo struct {
	existing        *products.Product
	totalCount      int
	nameTaken       bool
	categoryMissing bool
	nameChecks      []string
	inserted        []*products.Product
	insertedSizes   []*products.Size
	updated         []*products.Product
	sizeUpdates     map[string]int
	txErr           error
}

func newMockRepo() *mockRepo {
	return &mockRepo{sizeUpdates: make(map[string]int)}
}

type mockTx struct{ repo *mockRepo }

func (m *mockRepo) WithTx(ctx context.Context, fn func(context.Context, products.TxRepository) error) error {
	if m.txErr != nil {
		return m.txErr
	}
	return fn(ctx, &mockTx{repo: m})
}

func (m *mockRepo) FindByID(ctx context.Context, id string) (*products.Product, error) {
	if m.existing == nil || m.existing.ID != id {
		return nil, shared.ErrNotFound
	}
	return m.existing, nil
}

func (m *mockRepo) List(ctx context.Context, filter products.ListFilter) ([]products.Product, error) {
	return nil, nil
}

func (m *mockRepo) CountAll(ctx context.Context) (int, error) { return m.totalCount, nil }

func (m *mockRepo) CountLive(ctx context.Context) (int, error) { return m.totalCount, nil }

func (m *mockRepo) NameExists(ctx context.Context, name, excludeID string) (bool, error) {
	m.nameChecks = append(m.nameChecks, name)
	return m.nameTaken, nil
}

func (m *mockRepo) CategoryExists(ctx context.Context, id string) (bool, error) {
	return !m.categoryMissing, nil
}

func (m *mockRepo) UpdateName(ctx context.Context, id, name string) error { return nil }

func (m *mockRepo) SoftDelete(ctx context.Context, id string) error { return nil }

func (m *mockRepo) Restore(ctx context.Context, id string) error { return nil }

func (t *mockTx) InsertProduct(ctx context.Context, p *products.Product) error {
	t.repo.inserted = append(t.repo.inserted, p)
	return nil
}

func (t *mockTx) UpdateProduct(ctx context.Context, p *products.Product) error {
	t.repo.updated = append(t.repo.updated, p)
	return nil
}

func (t *mockTx) InsertSize(ctx context.Context, s *products.Size) error {
	t.repo.insertedSizes = append(t.repo.insertedSizes, s)
	return nil
}

func (t *mockTx) UpdateSizeQuantity(ctx context.Context, sizeID string, quantity int) error {
	t.repo.sizeUpdates[sizeID] = quantity
	return nil
}

func validCreate() products.CreateProductRequest {
	return products.CreateProductRequest{
		Name:       "Camiseta Azul",
		Price:      49.9,
		Cost:       20,
		CategoryID: "cat-1",
		Sizes: []products.SizeInput{
			{Label: "P", Quantity: 3},
			{Label: "M", Quantity: 2},
			{Label: "P", Quantity: 1},
		},
	}
}

func TestCreateProductCombinesSizesAndSetsQuantity(t *testing.T) {
	repo := newMockRepo()
	svc := products.NewService(repo, 300)

	p, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)
	require.Equal(t, 6, p.Quantity)
	require.Len(t, p.Sizes, 2)
	require.Len(t, repo.inserted, 1)
	require.Len(t, repo.insertedSizes, 2)
	require.Equal(t, p.ID, repo.insertedSizes[0].ProductID)
}

func TestCreateProductCapCountsAllRows(t *testing.T) {
	repo := newMockRepo()
	repo.totalCount = 300
	svc := products.NewService(repo, 300)

	_, err := svc.Create(context.Background(), validCreate())
	require.ErrorIs(t, err, products.ErrProductLimitReached)
	require.Empty(t, repo.inserted)
}

func TestCreateProductRejectsDuplicateName(t *testing.T) {
	repo := newMockRepo()
	repo.nameTaken = true
	svc := products.NewService(repo, 300)

	_, err := svc.Create(context.Background(), validCreate())
	require.ErrorIs(t, err, products.ErrNameTaken)
}

func TestCreateProductRejectsMissingCategory(t *testing.T) {
	repo := newMockRepo()
	repo.categoryMissing = true
	svc := products.NewService(repo, 300)

	_, err := svc.Create(context.Background(), validCreate())
	require.ErrorIs(t, err, products.ErrCategoryNotFound)
}

func TestCreateProductRejectsNegativePrice(t *testing.T) {
	repo := newMockRepo()
	svc := products.NewService(repo, 300)

	req := validCreate()
	req.Price = -1
	_, err := svc.Create(context.Background(), req)
	require.ErrorIs(t, err, products.ErrInvalidPrice)
}

func TestUpdateProductMergesSizes(t *testing.T) {
	repo := newMockRepo()
	repo.existing = &products.Product{
		ID:           "p-1",
		Name:         "Camiseta Azul",
		QuantitySold: 4,
		CategoryID:   "cat-1",
		Sizes: []products.Size{
			{ID: "s-p", ProductID: "p-1", Label: "P", Quantity: 5},
			{ID: "s-m", ProductID: "p-1", Label: "M", Quantity: 3},
		},
	}
	svc := products.NewService(repo, 300)

	p, err := svc.Update(context.Background(), "p-1", products.UpdateProductRequest{
		Name:       "Camiseta Azul",
		Price:      59.9,
		Cost:       25,
		CategoryID: "cat-1",
		Sizes: []products.SizeInput{
			{Label: "P", Quantity: 10},
			{Label: "G", Quantity: 2},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 15, p.Quantity)
	require.Equal(t, 4, p.QuantitySold)
	require.Equal(t, 10, repo.sizeUpdates["s-p"])
	require.Equal(t, 3, repo.sizeUpdates["s-m"])
	require.Len(t, repo.insertedSizes, 1)
	require.Equal(t, "G", repo.insertedSizes[0].Label)
}

// Product names are case-sensitive, so changing only the casing is a real
// rename: the uniqueness check runs against the exact new spelling.
func TestUpdateProductNameIsCaseSensitive(t *testing.T) {
	repo := newMockRepo()
	repo.existing = &products.Product{
		ID:         "p-1",
		Name:       "Camiseta Azul",
		CategoryID: "cat-1",
	}
	svc := products.NewService(repo, 300)

	p, err := svc.Update(context.Background(), "p-1", products.UpdateProductRequest{
		Name:       "CAMISETA AZUL",
		Price:      49.9,
		CategoryID: "cat-1",
	})
	require.NoError(t, err)
	require.Equal(t, "CAMISETA AZUL", p.Name)
	require.Equal(t, []string{"CAMISETA AZUL"}, repo.nameChecks)
}

func TestUpdateProductUnchangedNameSkipsUniquenessCheck(t *testing.T) {
	repo := newMockRepo()
	repo.existing = &products.Product{
		ID:         "p-1",
		Name:       "Camiseta Azul",
		CategoryID: "cat-1",
	}
	repo.nameTaken = true
	svc := products.NewService(repo, 300)

	_, err := svc.Update(context.Background(), "p-1", products.UpdateProductRequest{
		Name:       "Camiseta Azul",
		Price:      49.9,
		CategoryID: "cat-1",
	})
	require.NoError(t, err)
	require.Empty(t, repo.nameChecks)
}

func TestUpdateProductNotFound(t *testing.T) {
	repo := newMockRepo()
	svc := products.NewService(repo, 300)

	_, err := svc.Update(context.Background(), "missing", products.UpdateProductRequest{
		Name: "X", CategoryID: "cat-1",
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRenameRejectsTakenName(t *testing.T) {
	repo := newMockRepo()
	repo.nameTaken = true
	svc := products.NewService(repo, 300)

	err := svc.Rename(context.Background(), "p-1", "Camiseta Azul")
	require.ErrorIs(t, err, products.ErrNameTaken)
}
