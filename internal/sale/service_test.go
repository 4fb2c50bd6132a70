package sale_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/simplepos/simplepos/internal/catalog"
	"github.com/simplepos/simplepos/internal/depletion"
	"github.com/simplepos/simplepos/internal/platform/store"
	"github.com/simplepos/simplepos/internal/sale"
	"github.com/simplepos/simplepos/internal/shared"
	"github.com/simplepos/simplepos/internal/stock"
	_ "github.com/simplepos/simplepos/testing"
)

type saleFixture struct {
	service   *sale.Service
	carts     *sale.CartStore
	catalog   *catalog.Service
	stockRepo *stock.Repository
	depRepo   *depletion.Repository
}

func newSaleFixture(t *testing.T) saleFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	recordStore := store.NewRedis(client)

	catalogService := catalog.NewService(catalog.NewRepository(recordStore))
	stockRepo := stock.NewRepository(recordStore)
	depRepo := depletion.NewRepository(recordStore)
	engine := depletion.NewEngine(depRepo, stockRepo)

	carts := sale.NewCartStore(client, time.Hour)
	idem := shared.NewIdempotencyStore(client, time.Hour)
	service := sale.NewService(carts, catalogService, depRepo, engine, stockRepo, idem, nil, nil)

	return saleFixture{service: service, carts: carts, catalog: catalogService, stockRepo: stockRepo, depRepo: depRepo}
}

func (f saleFixture) seedProduct(t *testing.T, id, name string, price float64) {
	t.Helper()
	_, err := f.catalog.Create(context.Background(), catalog.Product{ID: id, Name: name, Price: price})
	require.NoError(t, err)
}

func (f saleFixture) seedStock(t *testing.T, itemID string, totalUnits float64) {
	t.Helper()
	require.NoError(t, f.stockRepo.Put(context.Background(), stock.StockItem{
		ItemID: itemID, UnitName: "g", SubUnitCount: 1, TotalUnits: totalUnits, Quantity: totalUnits,
	}))
}

func (f saleFixture) link(t *testing.T, productID, stockItemID string, qty float64) {
	t.Helper()
	existing, err := f.depRepo.ListByProduct(context.Background(), productID)
	require.NoError(t, err)
	existing = append(existing, depletion.Depletion{StockItemID: stockItemID, DepletionQuantity: qty})
	require.NoError(t, f.depRepo.ReplaceForProduct(context.Background(), productID, existing))
}

func TestAddItemRespectsSellability(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()

	f.seedProduct(t, "latte", "Latte", 4)
	f.seedStock(t, "beans", 10)
	f.link(t, "latte", "beans", 3) // max 3 sellable

	cart, err := f.service.CreateCart(ctx)
	require.NoError(t, err)

	cart, err = f.service.AddItem(ctx, cart.ID, "latte", 2)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	require.Equal(t, 3, cart.Lines[0].MaxQuantity)

	// Merging past the limit is refused; the cart is unchanged. Both
	// sentinels stay detectable through the wrap chain.
	_, err = f.service.AddItem(ctx, cart.ID, "latte", 2)
	require.ErrorIs(t, err, shared.ErrValidation)
	require.ErrorIs(t, err, sale.ErrInsufficientStock)

	cart, err = f.service.AddItem(ctx, cart.ID, "latte", 1)
	require.NoError(t, err)
	require.Equal(t, 3, cart.Lines[0].Quantity)
	require.Equal(t, 12.0, cart.Total())
}

func TestAddItemUnlinkedProductUnsellable(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()

	f.seedProduct(t, "water", "Tap Water", 0)

	cart, err := f.service.CreateCart(ctx)
	require.NoError(t, err)

	_, err = f.service.AddItem(ctx, cart.ID, "water", 1)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCompleteSaleAppliesConsumption(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()

	f.seedProduct(t, "latte", "Latte", 4)
	f.seedStock(t, "beans", 10)
	f.seedStock(t, "milk", 40)
	f.link(t, "latte", "beans", 3)
	f.link(t, "latte", "milk", 10)

	cart, err := f.service.CreateCart(ctx)
	require.NoError(t, err)
	_, err = f.service.AddItem(ctx, cart.ID, "latte", 3)
	require.NoError(t, err)

	receipt, err := f.service.CompleteSale(ctx, cart.ID)
	require.NoError(t, err)
	require.Equal(t, 12.0, receipt.Total)
	require.Len(t, receipt.Lines, 1)
	require.Equal(t, 3, receipt.Lines[0].Quantity)

	beans, err := f.stockRepo.Get(ctx, "beans")
	require.NoError(t, err)
	require.Equal(t, 1.0, beans.TotalUnits)

	milk, err := f.stockRepo.Get(ctx, "milk")
	require.NoError(t, err)
	require.Equal(t, 10.0, milk.TotalUnits)

	// The cart session is gone once the sale lands.
	_, err = f.service.GetCart(ctx, cart.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCompleteSaleEmptyCart(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()

	cart, err := f.service.CreateCart(ctx)
	require.NoError(t, err)

	_, err = f.service.CompleteSale(ctx, cart.ID)
	require.ErrorIs(t, err, sale.ErrEmptyCart)
}

func TestCompleteSaleSharedStockItemAcrossLines(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()

	f.seedProduct(t, "espresso", "Espresso", 2.5)
	f.seedProduct(t, "doppio", "Doppio", 4)
	f.seedStock(t, "beans", 10)
	f.link(t, "espresso", "beans", 6)
	f.link(t, "doppio", "beans", 6)

	cart, err := f.service.CreateCart(ctx)
	require.NoError(t, err)
	_, err = f.service.AddItem(ctx, cart.ID, "espresso", 1)
	require.NoError(t, err)
	// Against live stock both lines look fine individually.
	_, err = f.service.AddItem(ctx, cart.ID, "doppio", 1)
	require.NoError(t, err)

	// Together they need 12 of 10 available; the whole cart is refused.
	_, err = f.service.CompleteSale(ctx, cart.ID)
	require.ErrorIs(t, err, sale.ErrInsufficientStock)
	require.ErrorIs(t, err, shared.ErrValidation)

	// Nothing was written.
	beans, err := f.stockRepo.Get(ctx, "beans")
	require.NoError(t, err)
	require.Equal(t, 10.0, beans.TotalUnits)

	// The failed attempt stays retryable after the cart is corrected.
	_, err = f.service.RemoveItem(ctx, cart.ID, "doppio")
	require.NoError(t, err)
	_, err = f.service.CompleteSale(ctx, cart.ID)
	require.NoError(t, err)

	beans, err = f.stockRepo.Get(ctx, "beans")
	require.NoError(t, err)
	require.Equal(t, 4.0, beans.TotalUnits)
}

func TestCompleteSaleIdempotency(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()

	f.seedProduct(t, "latte", "Latte", 4)
	f.seedStock(t, "beans", 100)
	f.link(t, "latte", "beans", 3)

	cart, err := f.service.CreateCart(ctx)
	require.NoError(t, err)
	cart, err = f.service.AddItem(ctx, cart.ID, "latte", 1)
	require.NoError(t, err)

	_, err = f.service.CompleteSale(ctx, cart.ID)
	require.NoError(t, err)

	// A replayed checkout for the same session is rejected even if the
	// cart record somehow reappears.
	require.NoError(t, f.carts.Save(ctx, cart))
	_, err = f.service.CompleteSale(ctx, cart.ID)
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)

	beans, err := f.stockRepo.Get(ctx, "beans")
	require.NoError(t, err)
	require.Equal(t, 97.0, beans.TotalUnits)
}

func TestRemoveItemMissingLine(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()

	cart, err := f.service.CreateCart(ctx)
	require.NoError(t, err)

	_, err = f.service.RemoveItem(ctx, cart.ID, "ghost")
	require.ErrorIs(t, err, shared.ErrNotFound)
}
