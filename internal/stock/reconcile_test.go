package stock_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/simplepos/simplepos/internal/platform/store"
	"github.com/simplepos/simplepos/internal/stock"
	_ "github.com/simplepos/simplepos/testing"
)

// seedRaw writes a record straight into the store, bypassing the
// repository, so legacy shapes survive until reconciliation reads them.
func seedRaw(t *testing.T, s store.Store, itemID, body string) {
	t.Helper()
	require.NoError(t, s.Put(context.Background(), store.CollectionStockItems, itemID, []byte(body)))
}

func TestReconcileLegacyRecordOnRead(t *testing.T) {
	svc, recordStore := newStockService(t, nil)
	ctx := context.Background()

	// Pre-migration shape: only itemId, description and quantity.
	seedRaw(t, recordStore, "beans", `{"itemId":"beans","description":"Coffee Beans","quantity":5}`)

	item, err := svc.Get(ctx, "beans")
	require.NoError(t, err)
	require.Equal(t, 1.0, item.SubUnitCount)
	require.Equal(t, stock.DefaultUnitName, item.UnitName)
	require.Equal(t, 5.0, item.TotalUnits)
	require.Equal(t, 5.0, item.Quantity)
}

func TestReconcileDerivesTotalUnitsFromQuantity(t *testing.T) {
	svc, recordStore := newStockService(t, nil)
	ctx := context.Background()

	seedRaw(t, recordStore, "milk", `{"itemId":"milk","quantity":3,"subUnitCount":12,"unitName":"ml"}`)

	item, err := svc.Get(ctx, "milk")
	require.NoError(t, err)
	require.Equal(t, 36.0, item.TotalUnits)
	require.Equal(t, 3.0, item.Quantity)
	require.Equal(t, "ml", item.UnitName)
}

func TestReconcileRederivesDriftedQuantity(t *testing.T) {
	svc, recordStore := newStockService(t, nil)
	ctx := context.Background()

	// quantity drifted away from totalUnits/subUnitCount.
	seedRaw(t, recordStore, "sugar", `{"itemId":"sugar","quantity":9,"subUnitCount":4,"totalUnits":10,"unitName":"g"}`)

	item, err := svc.Get(ctx, "sugar")
	require.NoError(t, err)
	require.Equal(t, 10.0, item.TotalUnits)
	require.Equal(t, 2.5, item.Quantity)
}

func TestReconcileKeepsQuantityWithinTolerance(t *testing.T) {
	item, changed := stock.Reconcile(stock.StockItem{
		ItemID:       "beans",
		UnitName:     "g",
		SubUnitCount: 3,
		TotalUnits:   10,
		Quantity:     10.0/3.0 + 5e-5,
	})
	require.False(t, changed)
	require.InDelta(t, 10.0/3.0, item.Quantity, 1e-4)
}

func TestReconcileInvalidSubUnitCount(t *testing.T) {
	item, changed := stock.Reconcile(stock.StockItem{
		ItemID:       "beans",
		UnitName:     "g",
		SubUnitCount: 0,
		TotalUnits:   8,
		Quantity:     8,
	})
	require.True(t, changed)
	require.Equal(t, 1.0, item.SubUnitCount)
	require.Equal(t, 8.0, item.TotalUnits)
	require.Equal(t, 8.0, item.Quantity)
}

func TestReconcileAllPersistsOnlyRepairs(t *testing.T) {
	svc, recordStore := newStockService(t, nil)
	ctx := context.Background()

	seedRaw(t, recordStore, "legacy1", `{"itemId":"legacy1","quantity":2}`)
	seedRaw(t, recordStore, "legacy2", `{"itemId":"legacy2","quantity":4,"subUnitCount":6}`)
	seedRaw(t, recordStore, "clean", `{"itemId":"clean","description":"","unitName":"unit","subUnitCount":2,"totalUnits":8,"quantity":4}`)

	repaired, err := svc.ReconcileAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, repaired)

	// Second pass finds nothing left to repair.
	repaired, err = svc.ReconcileAll(ctx)
	require.NoError(t, err)
	require.Zero(t, repaired)

	item, err := svc.Get(ctx, "legacy2")
	require.NoError(t, err)
	require.Equal(t, 24.0, item.TotalUnits)
	require.Equal(t, 4.0, item.Quantity)
}
