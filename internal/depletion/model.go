// Package depletion links products to the stock items a sale consumes
// and computes how many units of a product the linked stock can cover.
package depletion

import "errors"

// Depletion says selling one unit of ProductID consumes
// DepletionQuantity sub-units of StockItemID. At most one mapping
// exists per product/stock-item pair.
type Depletion struct {
	ProductID         string  `json:"productId"`
	StockItemID       string  `json:"stockItemId"`
	DepletionQuantity float64 `json:"depletionQuantity"`
}

// Key returns the composite record key.
func (d Depletion) Key() string {
	return d.ProductID + "|" + d.StockItemID
}

// ErrInvalidQuantity indicates a non-positive depletion quantity.
var ErrInvalidQuantity = errors.New("depletion: quantity must be > 0")

// ErrMissingStockItemID indicates a mapping without a stock item id.
var ErrMissingStockItemID = errors.New("depletion: stock item id required")

// ErrMissingProductID indicates a mapping without a product id.
var ErrMissingProductID = errors.New("depletion: product id required")
