package stock

import "errors"

// StockItem is raw inventory tracked in sub-units. TotalUnits is the
// authoritative on-hand figure; Quantity is the derived main-unit
// equivalent kept for display and back-compat.
type StockItem struct {
	ItemID       string  `json:"itemId"`
	Description  string  `json:"description"`
	UnitName     string  `json:"unitName"`
	SubUnitCount float64 `json:"subUnitCount"`
	TotalUnits   float64 `json:"totalUnits"`
	Quantity     float64 `json:"quantity"`
}

// itemRecord mirrors the stored JSON shape. Pointer fields distinguish
// absent legacy values from genuine zeroes so reconciliation can repair
// them.
type itemRecord struct {
	ItemID       string   `json:"itemId"`
	Description  string   `json:"description"`
	UnitName     string   `json:"unitName"`
	SubUnitCount *float64 `json:"subUnitCount"`
	TotalUnits   *float64 `json:"totalUnits"`
	Quantity     *float64 `json:"quantity"`
}

// ErrMissingItemID indicates a stock item record without an id.
var ErrMissingItemID = errors.New("stock: item id required")

// ErrItemLinked is returned when deleting a stock item that a depletion
// mapping still references.
var ErrItemLinked = errors.New("stock: item is referenced by depletion mappings")

// ErrInvalidSubUnitCount indicates subUnitCount below 1.
var ErrInvalidSubUnitCount = errors.New("stock: sub-unit count must be >= 1")

// ErrNegativeTotalUnits indicates a negative totalUnits value.
var ErrNegativeTotalUnits = errors.New("stock: total units must be >= 0")
