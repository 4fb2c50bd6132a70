package catalog

import "errors"

// Product is a sellable catalog entry. ID is caller-visible and
// immutable once assigned.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// ErrMissingID indicates a product record without an id.
var ErrMissingID = errors.New("catalog: product id required")

// ErrMissingName indicates a product record without a name.
var ErrMissingName = errors.New("catalog: product name required")

// ErrNegativePrice indicates a negative price.
var ErrNegativePrice = errors.New("catalog: price must be >= 0")
