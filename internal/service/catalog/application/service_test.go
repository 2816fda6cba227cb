package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"teahouse/internal/service/catalog/domain"
)

type memProducts map[string]*domain.Product

func (m memProducts) List(_ context.Context, categoryID string, limit, offset int) ([]*domain.Product, int64, error) {
	var out []*domain.Product
	for _, p := range m {
		if p.IsActive && (categoryID == "" || p.CategoryID == categoryID) {
			out = append(out, p)
		}
	}
	return out, int64(len(out)), nil
}

func (m memProducts) FindByID(_ context.Context, id string) (*domain.Product, error) {
	if p, ok := m[id]; ok {
		return p, nil
	}
	return nil, domain.ErrProductNotFound
}

func (m memProducts) FindByIDs(_ context.Context, ids []string) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, id := range ids {
		if p, ok := m[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func newService() *CatalogService {
	repo := memProducts{
		"tgy-100":   {ID: "tgy-100", Name: "Tieguanyin 100g", CategoryID: "oolong", Price: 320, IsActive: true},
		"dhp-100":   {ID: "dhp-100", Name: "Da Hong Pao 100g", CategoryID: "oolong", Price: 480, IsActive: true},
		"sencha-50": {ID: "sencha-50", Name: "Sencha 50g", CategoryID: "green", Price: 150, IsActive: true},
		"old-1":     {ID: "old-1", Name: "Retired blend", CategoryID: "black", Price: 90, IsActive: false},
	}
	return NewCatalogService(repo, noop.NewTracerProvider().Tracer("test"))
}

func TestCategoriesOf(t *testing.T) {
	cats, err := newService().CategoriesOf(context.Background(), []string{"tgy-100", "dhp-100", "sencha-50", "missing", "tgy-100"})
	require.NoError(t, err)
	assert.Equal(t, []string{"green", "oolong"}, cats)
}

func TestPriceItems(t *testing.T) {
	prices, err := newService().PriceItems(context.Background(), []string{"tgy-100", "old-1", "missing"})
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, 320.0, prices["tgy-100"].Price)
	assert.False(t, prices["old-1"].IsActive)
}

func TestGetProductHidesInactive(t *testing.T) {
	svc := newService()
	_, err := svc.GetProduct(context.Background(), "old-1")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	view, err := svc.GetProduct(context.Background(), "sencha-50")
	require.NoError(t, err)
	assert.Equal(t, "green", view.CategoryID)
}

func TestListProductsByCategory(t *testing.T) {
	list, err := newService().ListProducts(context.Background(), "oolong", 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, list.Total)
}
