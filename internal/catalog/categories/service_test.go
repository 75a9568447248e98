package categories_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vitrine-pos/vitrine-pos/internal/catalog/categories"
	"github.com/vitrine-pos/vitrine-pos/internal/shared"
	_ "github.com/vitrine-pos/vitrine-pos/testing"
)

type mockRepo struct {
	created      []*categories.Category
	deleted      []string
	restored     []string
	productCount int
	createErr    error
	countErr     error
}

func (m *mockRepo) List(ctx context.Context, includeDeleted bool) ([]categories.Category, error) {
	return nil, nil
}

func (m *mockRepo) FindByID(ctx context.Context, id string) (*categories.Category, error) {
	return nil, shared.ErrNotFound
}

func (m *mockRepo) Create(ctx context.Context, c *categories.Category) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, c)
	return nil
}

func (m *mockRepo) UpdateName(ctx context.Context, id, name string) error {
	return nil
}

func (m *mockRepo) CountProducts(ctx context.Context, id string) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.productCount, nil
}

func (m *mockRepo) SoftDelete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockRepo) Restore(ctx context.Context, id string) error {
	m.restored = append(m.restored, id)
	return nil
}

func TestCreateTrimsName(t *testing.T) {
	repo := &mockRepo{}
	svc := categories.NewService(repo)

	c, err := svc.Create(context.Background(), "  Camisetas  ")
	require.NoError(t, err)
	require.Equal(t, "Camisetas", c.Name)
	require.NotEmpty(t, c.ID)
}

func TestCreateRejectsEmptyName(t *testing.T) {
	svc := categories.NewService(&mockRepo{})

	_, err := svc.Create(context.Background(), "   ")
	require.ErrorIs(t, err, categories.ErrEmptyName)
}

func TestCreatePropagatesNameTaken(t *testing.T) {
	repo := &mockRepo{createErr: categories.ErrNameTaken}
	svc := categories.NewService(repo)

	_, err := svc.Create(context.Background(), "Camisetas")
	require.ErrorIs(t, err, categories.ErrNameTaken)
}

func TestDeleteBlockedWhileProductsAttached(t *testing.T) {
	repo := &mockRepo{productCount: 3}
	svc := categories.NewService(repo)

	err := svc.Delete(context.Background(), "c-1")
	require.ErrorIs(t, err, categories.ErrInUse)
	require.Empty(t, repo.deleted)
}

func TestDeleteSucceedsWhenEmpty(t *testing.T) {
	repo := &mockRepo{}
	svc := categories.NewService(repo)

	require.NoError(t, svc.Delete(context.Background(), "c-1"))
	require.Equal(t, []string{"c-1"}, repo.deleted)
}

func TestDeletePropagatesCountError(t *testing.T) {
	repo := &mockRepo{countErr: errors.New("db down")}
	svc := categories.NewService(repo)

	err := svc.Delete(context.Background(), "c-1")
	require.Error(t, err)
	require.Empty(t, repo.deleted)
}
