// Package store implements the keyed record store backing all POS
// collections. Records are opaque JSON blobs; callers own the schema.
package store

import "context"

// Collection names used by the POS data model.
const (
	CollectionProducts   = "products"
	CollectionStockItems = "stock_items"
	CollectionDepletions = "product_stock_depletion"
)

// Store is durable keyed storage for record collections. Put is an
// upsert with last-write-wins semantics; there is no versioning or
// optimistic-concurrency token.
type Store interface {
	// Get returns the record bytes, or shared.ErrNotFound.
	Get(ctx context.Context, collection, key string) ([]byte, error)
	// GetAll returns every record in the collection keyed by record key.
	GetAll(ctx context.Context, collection string) (map[string][]byte, error)
	Put(ctx context.Context, collection, key string, data []byte) error
	Delete(ctx context.Context, collection, key string) error
	// Clear removes every record in the collection.
	Clear(ctx context.Context, collection string) error
}
