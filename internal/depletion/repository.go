package depletion

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/simplepos/simplepos/internal/platform/store"
	"github.com/simplepos/simplepos/internal/shared"
)

// Repository persists depletion mappings in the record store under
// composite (productId, stockItemId) keys.
type Repository struct {
	store store.Store
}

// NewRepository constructs Repository.
func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

// ListByProduct returns the product's mappings ordered by stock item id.
func (r *Repository) ListByProduct(ctx context.Context, productID string) ([]Depletion, error) {
	all, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	var deps []Depletion
	for _, d := range all {
		if d.ProductID == productID {
			deps = append(deps, d)
		}
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].StockItemID < deps[j].StockItemID })
	return deps, nil
}

// ListByStockItem returns every mapping that references the stock item.
func (r *Repository) ListByStockItem(ctx context.Context, stockItemID string) ([]Depletion, error) {
	all, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	var deps []Depletion
	for _, d := range all {
		if d.StockItemID == stockItemID {
			deps = append(deps, d)
		}
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].ProductID < deps[j].ProductID })
	return deps, nil
}

// ReplaceForProduct swaps the product's mapping set: all prior mappings
// are deleted, then the new set is inserted. This mirrors the edit
// flow, which rewrites the whole set rather than diffing.
func (r *Repository) ReplaceForProduct(ctx context.Context, productID string, deps []Depletion) error {
	if productID == "" {
		return fmt.Errorf("%w: %w", shared.ErrValidation, ErrMissingProductID)
	}
	for _, d := range deps {
		if d.StockItemID == "" {
			return fmt.Errorf("%w: %w", shared.ErrValidation, ErrMissingStockItemID)
		}
		if d.DepletionQuantity <= 0 {
			return fmt.Errorf("%w: %w", shared.ErrValidation, ErrInvalidQuantity)
		}
	}
	existing, err := r.ListByProduct(ctx, productID)
	if err != nil {
		return err
	}
	for _, d := range existing {
		if err := r.store.Delete(ctx, store.CollectionDepletions, d.Key()); err != nil {
			return err
		}
	}
	for _, d := range deps {
		d.ProductID = productID
		data, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("depletion: encode %s: %w", d.Key(), err)
		}
		if err := r.store.Put(ctx, store.CollectionDepletions, d.Key(), data); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes one mapping by its composite key.
func (r *Repository) Delete(ctx context.Context, productID, stockItemID string) error {
	d := Depletion{ProductID: productID, StockItemID: stockItemID}
	return r.store.Delete(ctx, store.CollectionDepletions, d.Key())
}

// StockItemReferenced reports whether any mapping points at the stock
// item. Satisfies stock.ReferenceChecker.
func (r *Repository) StockItemReferenced(ctx context.Context, stockItemID string) (bool, error) {
	deps, err := r.ListByStockItem(ctx, stockItemID)
	if err != nil {
		return false, err
	}
	return len(deps) > 0, nil
}

// AnyReferences reports whether any mapping exists at all.
func (r *Repository) AnyReferences(ctx context.Context) (bool, error) {
	all, err := r.list(ctx)
	if err != nil {
		return false, err
	}
	return len(all) > 0, nil
}

func (r *Repository) list(ctx context.Context) ([]Depletion, error) {
	records, err := r.store.GetAll(ctx, store.CollectionDepletions)
	if err != nil {
		return nil, err
	}
	deps := make([]Depletion, 0, len(records))
	for key, data := range records {
		var d Depletion
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("depletion: decode %s: %w", key, err)
		}
		deps = append(deps, d)
	}
	return deps, nil
}
