package sales_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vitrine-pos/vitrine-pos/internal/sales"
	"github.com/vitrine-pos/vitrine-pos/internal/shared"
	"github.com/vitrine-pos/vitrine-pos/internal/users"
	_ "github.com/vitrine-pos/vitrine-pos/testing"
)

// mockRepository keeps catalog and sale state in memory. WithTx snapshots
// the state and restores it when the callback fails, mirroring a database
// rollback.
type mockRepository struct {
	products map[string]*sales.ProductStock
	sizes    map[string]*sales.SizeStock
	sales    map[string]*sales.Sale
	locks    []string
	txErr    error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		products: make(map[string]*sales.ProductStock),
		sizes:    make(map[string]*sales.SizeStock),
		sales:    make(map[string]*sales.Sale),
	}
}

func (m *mockRepository) snapshot() (map[string]*sales.ProductStock, map[string]*sales.SizeStock, map[string]*sales.Sale) {
	products := make(map[string]*sales.ProductStock, len(m.products))
	for k, v := range m.products {
		cp := *v
		products[k] = &cp
	}
	sizes := make(map[string]*sales.SizeStock, len(m.sizes))
	for k, v := range m.sizes {
		cp := *v
		sizes[k] = &cp
	}
	salesCopy := make(map[string]*sales.Sale, len(m.sales))
	for k, v := range m.sales {
		cp := *v
		cp.Items = append([]sales.SaleItem(nil), v.Items...)
		salesCopy[k] = &cp
	}
	return products, sizes, salesCopy
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, sales.TxRepository) error) error {
	if m.txErr != nil {
		return m.txErr
	}
	products, sizes, salesCopy := m.snapshot()
	if err := fn(ctx, &mockTx{repo: m}); err != nil {
		m.products, m.sizes, m.sales = products, sizes, salesCopy
		return err
	}
	return nil
}

func (m *mockRepository) FindView(ctx context.Context, id string) (*sales.SaleView, error) {
	sale, ok := m.sales[id]
	if !ok {
		return nil, sales.ErrSaleNotFound
	}
	view := &sales.SaleView{
		ID:            sale.ID,
		Timestamp:     sale.Timestamp,
		TotalAmount:   sale.TotalAmount,
		Discount:      sale.Discount,
		Subtotal:      sale.Subtotal,
		PaymentMethod: sale.PaymentMethod,
		Gift:          sale.Gift,
		Observation:   sale.Observation,
		UserID:        sale.UserID,
		Items:         []sales.SaleItemView{},
	}
	for _, item := range sale.Items {
		itemView := sales.SaleItemView{
			ProductID: item.ProductID,
			SizeID:    item.SizeID,
			Quantity:  item.Quantity,
		}
		if p, ok := m.products[item.ProductID]; ok {
			itemView.ProductName = p.Name
			itemView.UnitPrice = p.Price
		}
		if s, ok := m.sizes[item.SizeID]; ok {
			itemView.SizeLabel = s.Label
		}
		view.Items = append(view.Items, itemView)
	}
	return view, nil
}

func (m *mockRepository) ListViews(ctx context.Context, filter sales.ListFilter) ([]sales.SaleView, error) {
	var out []sales.SaleView
	for id := range m.sales {
		view, err := m.FindView(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *view)
	}
	return out, nil
}

type mockTx struct {
	repo *mockRepository
}

func (t *mockTx) GetProductForUpdate(ctx context.Context, id string) (*sales.ProductStock, error) {
	t.repo.locks = append(t.repo.locks, "product:"+id)
	p, ok := t.repo.products[id]
	if !ok {
		return nil, sales.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (t *mockTx) GetSizeForUpdate(ctx context.Context, id string) (*sales.SizeStock, error) {
	t.repo.locks = append(t.repo.locks, "size:"+id)
	s, ok := t.repo.sizes[id]
	if !ok {
		return nil, sales.ErrSizeNotFound
	}
	cp := *s
	return &cp, nil
}

func (t *mockTx) UpdateSizeQuantity(ctx context.Context, id string, quantity int) error {
	s, ok := t.repo.sizes[id]
	if !ok {
		return sales.ErrSizeNotFound
	}
	s.Quantity = quantity
	return nil
}

func (t *mockTx) UpdateProductCounters(ctx context.Context, id string, quantity, quantitySold int) error {
	p, ok := t.repo.products[id]
	if !ok {
		return sales.ErrProductNotFound
	}
	p.Quantity = quantity
	p.QuantitySold = quantitySold
	return nil
}

func (t *mockTx) InsertSale(ctx context.Context, sale *sales.Sale) error {
	cp := *sale
	cp.Items = nil
	t.repo.sales[sale.ID] = &cp
	return nil
}

func (t *mockTx) InsertSaleItem(ctx context.Context, item *sales.SaleItem) error {
	sale, ok := t.repo.sales[item.SaleID]
	if !ok {
		return sales.ErrSaleNotFound
	}
	sale.Items = append(sale.Items, *item)
	return nil
}

func (t *mockTx) UpdateSaleTotals(ctx context.Context, saleID string, total, discount, subtotal float64) error {
	sale, ok := t.repo.sales[saleID]
	if !ok {
		return sales.ErrSaleNotFound
	}
	sale.TotalAmount = total
	sale.Discount = discount
	sale.Subtotal = subtotal
	return nil
}

func (t *mockTx) GetSaleForUpdate(ctx context.Context, id string) (*sales.Sale, error) {
	sale, ok := t.repo.sales[id]
	if !ok {
		return nil, sales.ErrSaleNotFound
	}
	cp := *sale
	cp.Items = append([]sales.SaleItem(nil), sale.Items...)
	return &cp, nil
}

func (t *mockTx) DeleteSaleItems(ctx context.Context, saleID string) error {
	if sale, ok := t.repo.sales[saleID]; ok {
		sale.Items = nil
	}
	return nil
}

func (t *mockTx) DeleteSale(ctx context.Context, saleID string) error {
	delete(t.repo.sales, saleID)
	return nil
}

type stubDirectory struct {
	users map[string]*users.User
}

func (d *stubDirectory) FindByID(ctx context.Context, id string) (*users.User, error) {
	if u, ok := d.users[id]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

type testSetup struct {
	repo *mockRepository
	svc  *sales.Service
}

func newTestSetup() *testSetup {
	repo := newMockRepository()
	repo.products["prod-1"] = &sales.ProductStock{ID: "prod-1", Name: "Camiseta Azul", Price: 10.0, Quantity: 5, QuantitySold: 0}
	repo.sizes["size-m"] = &sales.SizeStock{ID: "size-m", ProductID: "prod-1", Label: "M", Quantity: 5}
	repo.products["prod-2"] = &sales.ProductStock{ID: "prod-2", Name: "Calça Preta", Price: 30.0, Quantity: 2, QuantitySold: 1}
	repo.sizes["size-42"] = &sales.SizeStock{ID: "size-42", ProductID: "prod-2", Label: "42", Quantity: 2}
	directory := &stubDirectory{users: map[string]*users.User{
		"user-1": {ID: "user-1", Name: "Ana"},
	}}
	return &testSetup{repo: repo, svc: sales.NewService(repo, directory, nil)}
}

func validRequest() sales.CreateSaleRequest {
	return sales.CreateSaleRequest{
		UserID:        "user-1",
		PaymentMethod: "PIX",
		Discount:      5.0,
		Items: []sales.CreateSaleItem{
			{ProductID: "prod-1", SizeID: "size-m", Quantity: 2},
		},
	}
}

func TestCreateSaleComputesTotalsAndReservesStock(t *testing.T) {
	ts := newTestSetup()

	view, err := ts.svc.CreateSale(context.Background(), validRequest())
	require.NoError(t, err)

	require.Equal(t, 20.0, view.TotalAmount)
	require.Equal(t, 5.0, view.Discount)
	require.Equal(t, 15.0, view.Subtotal)
	require.Equal(t, sales.PaymentPix, view.PaymentMethod)
	require.Len(t, view.Items, 1)
	require.Equal(t, "Camiseta Azul", view.Items[0].ProductName)
	require.Equal(t, "M", view.Items[0].SizeLabel)
	require.Equal(t, 10.0, view.Items[0].UnitPrice)

	require.Equal(t, 3, ts.repo.sizes["size-m"].Quantity)
	require.Equal(t, 3, ts.repo.products["prod-1"].Quantity)
	require.Equal(t, 2, ts.repo.products["prod-1"].QuantitySold)
}

func TestCreateSaleSubtotalReachesZero(t *testing.T) {
	ts := newTestSetup()
	req := validRequest()
	req.Discount = 20.0

	view, err := ts.svc.CreateSale(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 20.0, view.TotalAmount)
	require.Equal(t, 0.0, view.Subtotal)
}

func TestCreateSaleInvalidPaymentMethod(t *testing.T) {
	ts := newTestSetup()
	req := validRequest()
	req.PaymentMethod = "CHEQUE"

	_, err := ts.svc.CreateSale(context.Background(), req)
	require.ErrorIs(t, err, sales.ErrInvalidPaymentMethod)
	require.Equal(t, 5, ts.repo.sizes["size-m"].Quantity)
}

func TestCreateSalePaymentMethodIsCaseInsensitive(t *testing.T) {
	ts := newTestSetup()
	req := validRequest()
	req.PaymentMethod = " pix "

	view, err := ts.svc.CreateSale(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, sales.PaymentPix, view.PaymentMethod)
}

func TestCreateSaleNegativeDiscount(t *testing.T) {
	ts := newTestSetup()
	req := validRequest()
	req.Discount = -1

	_, err := ts.svc.CreateSale(context.Background(), req)
	require.ErrorIs(t, err, sales.ErrInvalidDiscount)
}

func TestCreateSaleUnknownUser(t *testing.T) {
	ts := newTestSetup()
	req := validRequest()
	req.UserID = "ghost"

	_, err := ts.svc.CreateSale(context.Background(), req)
	require.ErrorIs(t, err, sales.ErrUserNotFound)
}

func TestCreateSaleEmptyCart(t *testing.T) {
	ts := newTestSetup()
	req := validRequest()
	req.Items = nil

	_, err := ts.svc.CreateSale(context.Background(), req)
	require.ErrorIs(t, err, sales.ErrEmptyCart)
}

func TestCreateSaleInvalidQuantity(t *testing.T) {
	ts := newTestSetup()
	req := validRequest()
	req.Items[0].Quantity = 0

	_, err := ts.svc.CreateSale(context.Background(), req)
	require.ErrorIs(t, err, sales.ErrInvalidQuantity)
	require.Empty(t, ts.repo.sales)
}

func TestCreateSaleProductNotFound(t *testing.T) {
	ts := newTestSetup()
	req := validRequest()
	req.Items[0].ProductID = "ghost"

	_, err := ts.svc.CreateSale(context.Background(), req)
	require.ErrorIs(t, err, sales.ErrProductNotFound)
}

func TestCreateSaleSizeNotFound(t *testing.T) {
	ts := newTestSetup()
	req := validRequest()
	req.Items[0].SizeID = "ghost"

	_, err := ts.svc.CreateSale(context.Background(), req)
	require.ErrorIs(t, err, sales.ErrSizeNotFound)
}

// Mismatched product/size pairs are rejected rather than silently
// decrementing an unrelated product's stock. This is a deliberate behavior
// choice; see ErrSizeMismatch.
func TestCreateSaleSizeOwnershipEnforced(t *testing.T) {
	ts := newTestSetup()
	req := validRequest()
	req.Items[0].SizeID = "size-42"

	_, err := ts.svc.CreateSale(context.Background(), req)
	require.ErrorIs(t, err, sales.ErrSizeMismatch)
	require.Equal(t, 2, ts.repo.sizes["size-42"].Quantity)
	require.Equal(t, 5, ts.repo.sizes["size-m"].Quantity)
}

func TestCreateSaleInsufficientStock(t *testing.T) {
	ts := newTestSetup()
	req := validRequest()
	req.Items[0].Quantity = 6

	_, err := ts.svc.CreateSale(context.Background(), req)
	var stockErr *sales.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, "Camiseta Azul", stockErr.ProductName)
	require.Equal(t, "M", stockErr.SizeLabel)
	require.Equal(t, 5, stockErr.Available)
	require.Equal(t, 6, stockErr.Requested)

	require.Equal(t, 5, ts.repo.sizes["size-m"].Quantity)
	require.Empty(t, ts.repo.sales)
}

func TestCreateSaleDiscountExceedsTotalRollsBackStock(t *testing.T) {
	ts := newTestSetup()
	req := validRequest()
	req.Discount = 25.0

	_, err := ts.svc.CreateSale(context.Background(), req)
	require.ErrorIs(t, err, sales.ErrDiscountExceedsTotal)

	require.Equal(t, 5, ts.repo.sizes["size-m"].Quantity)
	require.Equal(t, 5, ts.repo.products["prod-1"].Quantity)
	require.Zero(t, ts.repo.products["prod-1"].QuantitySold)
	require.Empty(t, ts.repo.sales)
}

func TestCreateSaleFailingLineRollsBackEarlierLines(t *testing.T) {
	ts := newTestSetup()
	req := validRequest()
	req.Items = append(req.Items, sales.CreateSaleItem{ProductID: "prod-2", SizeID: "size-42", Quantity: 3})

	_, err := ts.svc.CreateSale(context.Background(), req)
	var stockErr *sales.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)

	require.Equal(t, 5, ts.repo.sizes["size-m"].Quantity)
	require.Equal(t, 5, ts.repo.products["prod-1"].Quantity)
	require.Equal(t, 2, ts.repo.sizes["size-42"].Quantity)
	require.Empty(t, ts.repo.sales)
}

func TestCreateSaleSameProductTwiceAccumulatesCounters(t *testing.T) {
	ts := newTestSetup()
	req := validRequest()
	req.Discount = 0
	req.Items = []sales.CreateSaleItem{
		{ProductID: "prod-1", SizeID: "size-m", Quantity: 2},
		{ProductID: "prod-1", SizeID: "size-m", Quantity: 1},
	}

	view, err := ts.svc.CreateSale(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 30.0, view.TotalAmount)
	require.Equal(t, 2, ts.repo.sizes["size-m"].Quantity)
	require.Equal(t, 2, ts.repo.products["prod-1"].Quantity)
	require.Equal(t, 3, ts.repo.products["prod-1"].QuantitySold)
}

func TestDeleteSaleRestoresStock(t *testing.T) {
	ts := newTestSetup()
	view, err := ts.svc.CreateSale(context.Background(), validRequest())
	require.NoError(t, err)

	require.NoError(t, ts.svc.DeleteSale(context.Background(), view.ID))

	require.Equal(t, 5, ts.repo.sizes["size-m"].Quantity)
	require.Equal(t, 5, ts.repo.products["prod-1"].Quantity)
	require.Zero(t, ts.repo.products["prod-1"].QuantitySold)
	require.Empty(t, ts.repo.sales)
}

// A product soft-deleted after the sale must not block the reversal:
// its stock and counters are restored in place.
func TestDeleteSaleRestoresStockOfDeletedProduct(t *testing.T) {
	ts := newTestSetup()
	view, err := ts.svc.CreateSale(context.Background(), validRequest())
	require.NoError(t, err)

	deletedAt := time.Now()
	ts.repo.products["prod-1"].DeletedAt = &deletedAt

	require.NoError(t, ts.svc.DeleteSale(context.Background(), view.ID))

	require.Equal(t, 5, ts.repo.sizes["size-m"].Quantity)
	require.Equal(t, 5, ts.repo.products["prod-1"].Quantity)
	require.Zero(t, ts.repo.products["prod-1"].QuantitySold)
	require.Empty(t, ts.repo.sales)
}

func TestCreateSaleRejectsDeletedProduct(t *testing.T) {
	ts := newTestSetup()
	deletedAt := time.Now()
	ts.repo.products["prod-1"].DeletedAt = &deletedAt

	_, err := ts.svc.CreateSale(context.Background(), validRequest())
	require.ErrorIs(t, err, sales.ErrProductNotFound)
	require.Equal(t, 5, ts.repo.sizes["size-m"].Quantity)
	require.Empty(t, ts.repo.sales)
}

// Both engines acquire the product lock before the size lock; an inverted
// order on one side could deadlock concurrent transactions on the same rows.
func TestSaleEnginesShareLockOrder(t *testing.T) {
	ts := newTestSetup()
	view, err := ts.svc.CreateSale(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, []string{"product:prod-1", "size:size-m"}, ts.repo.locks)

	ts.repo.locks = nil
	require.NoError(t, ts.svc.DeleteSale(context.Background(), view.ID))
	require.Equal(t, []string{"product:prod-1", "size:size-m"}, ts.repo.locks)
}

func TestDeleteSaleClampsQuantitySold(t *testing.T) {
	ts := newTestSetup()
	view, err := ts.svc.CreateSale(context.Background(), validRequest())
	require.NoError(t, err)

	// Simulate an out-of-band reset of the counter between sale and reversal.
	ts.repo.products["prod-1"].QuantitySold = 1

	require.NoError(t, ts.svc.DeleteSale(context.Background(), view.ID))
	require.Zero(t, ts.repo.products["prod-1"].QuantitySold)
	require.Equal(t, 5, ts.repo.sizes["size-m"].Quantity)
}

func TestDeleteSaleTwiceFailsWithoutTouchingStock(t *testing.T) {
	ts := newTestSetup()
	view, err := ts.svc.CreateSale(context.Background(), validRequest())
	require.NoError(t, err)

	require.NoError(t, ts.svc.DeleteSale(context.Background(), view.ID))
	sizeAfter := ts.repo.sizes["size-m"].Quantity

	err = ts.svc.DeleteSale(context.Background(), view.ID)
	require.ErrorIs(t, err, sales.ErrSaleNotFound)
	require.Equal(t, sizeAfter, ts.repo.sizes["size-m"].Quantity)
}

func TestDeleteSaleUnknownID(t *testing.T) {
	ts := newTestSetup()
	err := ts.svc.DeleteSale(context.Background(), "ghost")
	require.ErrorIs(t, err, sales.ErrSaleNotFound)
}

func TestCreateSalePropagatesInfrastructureError(t *testing.T) {
	ts := newTestSetup()
	ts.repo.txErr = errors.New("connection refused")

	_, err := ts.svc.CreateSale(context.Background(), validRequest())
	require.Error(t, err)
	require.NotErrorIs(t, err, sales.ErrDiscountExceedsTotal)
}

func TestListByDateRangeUsesFilter(t *testing.T) {
	ts := newTestSetup()
	_, err := ts.svc.ListByDateRange(context.Background(), time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
}
