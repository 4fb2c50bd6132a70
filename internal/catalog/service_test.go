package catalog_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/simplepos/simplepos/internal/catalog"
	"github.com/simplepos/simplepos/internal/platform/store"
	"github.com/simplepos/simplepos/internal/shared"
	_ "github.com/simplepos/simplepos/testing"
)

func newCatalogService(t *testing.T) *catalog.Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return catalog.NewService(catalog.NewRepository(store.NewRedis(client)))
}

func TestCatalogCreateGeneratesID(t *testing.T) {
	svc := newCatalogService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, catalog.Product{Name: "Espresso", Price: 2.5})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, byte('p'), created.ID[0])

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)
}

func TestCatalogCreateValidation(t *testing.T) {
	svc := newCatalogService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, catalog.Product{ID: "p1"})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.ErrorIs(t, err, catalog.ErrMissingName)

	_, err = svc.Create(ctx, catalog.Product{ID: "p1", Name: "Espresso", Price: -1})
	require.ErrorIs(t, err, catalog.ErrNegativePrice)
}

func TestCatalogUpdateKeepsIDImmutable(t *testing.T) {
	svc := newCatalogService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, catalog.Product{ID: "p1", Name: "Espresso", Price: 2.5})
	require.NoError(t, err)

	_, err = svc.Update(ctx, "p1", catalog.Product{ID: "p2", Name: "Espresso"})
	require.ErrorIs(t, err, shared.ErrValidation)

	updated, err := svc.Update(ctx, "p1", catalog.Product{Name: "Double Espresso", Price: 3})
	require.NoError(t, err)
	require.Equal(t, "p1", updated.ID)
	require.Equal(t, 3.0, updated.Price)
}

func TestCatalogUpdateMissingProduct(t *testing.T) {
	svc := newCatalogService(t)

	_, err := svc.Update(context.Background(), "missing", catalog.Product{Name: "Ghost"})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCatalogListSearch(t *testing.T) {
	svc := newCatalogService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, catalog.Product{ID: "p1", Name: "Espresso", Category: "Coffee", Price: 2.5})
	require.NoError(t, err)
	_, err = svc.Create(ctx, catalog.Product{ID: "p2", Name: "Green Tea", Category: "Tea", Price: 2})
	require.NoError(t, err)

	products, err := svc.List(ctx, "coffee")
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "p1", products[0].ID)

	products, err = svc.List(ctx, "P2")
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "Green Tea", products[0].Name)

	products, err = svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, products, 2)
}

func TestCatalogDeleteAndClear(t *testing.T) {
	svc := newCatalogService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, catalog.Product{ID: "p1", Name: "Espresso"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "p1"))

	_, err = svc.Get(ctx, "p1")
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Create(ctx, catalog.Product{ID: "p2", Name: "Latte"})
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx))

	products, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Empty(t, products)
}
