package stock

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/simplepos/simplepos/internal/platform/store"
)

// Repository persists stock items in the record store. Reads run every
// record through reconciliation so callers always see consistent
// quantity/totalUnits/subUnitCount triples, even for legacy records.
type Repository struct {
	store store.Store
}

// NewRepository constructs Repository.
func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

// Get returns one normalized stock item, or shared.ErrNotFound.
func (r *Repository) Get(ctx context.Context, itemID string) (StockItem, error) {
	data, err := r.store.Get(ctx, store.CollectionStockItems, itemID)
	if err != nil {
		return StockItem{}, err
	}
	var rec itemRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return StockItem{}, fmt.Errorf("stock: decode item %s: %w", itemID, err)
	}
	item, _ := reconcileRecord(rec)
	return item, nil
}

// List returns all stock items ordered by id, normalized.
func (r *Repository) List(ctx context.Context) ([]StockItem, error) {
	records, err := r.getAllRecords(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]StockItem, 0, len(records))
	for _, rec := range records {
		item, _ := reconcileRecord(rec)
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ItemID < items[j].ItemID })
	return items, nil
}

// Put upserts the stock item by id.
func (r *Repository) Put(ctx context.Context, item StockItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("stock: encode item %s: %w", item.ItemID, err)
	}
	return r.store.Put(ctx, store.CollectionStockItems, item.ItemID, data)
}

// Delete removes the stock item.
func (r *Repository) Delete(ctx context.Context, itemID string) error {
	return r.store.Delete(ctx, store.CollectionStockItems, itemID)
}

// Clear removes every stock item.
func (r *Repository) Clear(ctx context.Context) error {
	return r.store.Clear(ctx, store.CollectionStockItems)
}

func (r *Repository) getAllRecords(ctx context.Context) ([]itemRecord, error) {
	raw, err := r.store.GetAll(ctx, store.CollectionStockItems)
	if err != nil {
		return nil, err
	}
	records := make([]itemRecord, 0, len(raw))
	for key, data := range raw {
		var rec itemRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("stock: decode item %s: %w", key, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
