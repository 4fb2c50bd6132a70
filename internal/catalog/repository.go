package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/simplepos/simplepos/internal/platform/store"
)

// Repository persists products in the record store.
type Repository struct {
	store store.Store
}

// NewRepository constructs Repository.
func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

// Get returns one product, or shared.ErrNotFound.
func (r *Repository) Get(ctx context.Context, id string) (Product, error) {
	data, err := r.store.Get(ctx, store.CollectionProducts, id)
	if err != nil {
		return Product{}, err
	}
	var p Product
	if err := json.Unmarshal(data, &p); err != nil {
		return Product{}, fmt.Errorf("catalog: decode product %s: %w", id, err)
	}
	return p, nil
}

// List returns all products ordered by id.
func (r *Repository) List(ctx context.Context) ([]Product, error) {
	records, err := r.store.GetAll(ctx, store.CollectionProducts)
	if err != nil {
		return nil, err
	}
	products := make([]Product, 0, len(records))
	for key, data := range records {
		var p Product
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("catalog: decode product %s: %w", key, err)
		}
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

// Put upserts the product by id, last write wins.
func (r *Repository) Put(ctx context.Context, p Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("catalog: encode product %s: %w", p.ID, err)
	}
	return r.store.Put(ctx, store.CollectionProducts, p.ID, data)
}

// Delete removes the product. Depletion mappings are not cascaded.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, store.CollectionProducts, id)
}

// Clear removes every product.
func (r *Repository) Clear(ctx context.Context) error {
	return r.store.Clear(ctx, store.CollectionProducts)
}
