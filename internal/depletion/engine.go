package depletion

import (
	"context"
	"errors"
	"math"

	"github.com/simplepos/simplepos/internal/shared"
	"github.com/simplepos/simplepos/internal/stock"
)

// StockReader supplies current stock levels to the engine.
type StockReader interface {
	Get(ctx context.Context, itemID string) (stock.StockItem, error)
}

// Engine computes sellability from depletion mappings and stock levels.
// It is read-only; applying consumption is the sale service's job.
type Engine struct {
	repo  *Repository
	stock StockReader
}

// NewEngine builds Engine.
func NewEngine(repo *Repository, stockReader StockReader) *Engine {
	return &Engine{repo: repo, stock: stockReader}
}

// MaxSellable returns the largest whole quantity of the product that
// can be sold without driving any linked stock item negative.
//
// A product with no mappings cannot be sold at all: unlinked products
// are informational only. A mapping whose stock item is missing, or
// whose quantity is non-positive, makes the whole product unsellable.
func (e *Engine) MaxSellable(ctx context.Context, productID string) (int, error) {
	deps, err := e.repo.ListByProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	if len(deps) == 0 {
		return 0, nil
	}
	max := math.MaxInt
	for _, dep := range deps {
		if dep.DepletionQuantity <= 0 {
			return 0, nil
		}
		item, err := e.stock.Get(ctx, dep.StockItemID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return 0, nil
			}
			return 0, err
		}
		possible := int(math.Floor(item.TotalUnits / dep.DepletionQuantity))
		if possible < max {
			max = possible
		}
	}
	if max == math.MaxInt || max < 0 {
		return 0, nil
	}
	return max, nil
}

// AvailabilityLine describes one mapping's contribution on a product
// card: how many sales the linked stock item can still cover.
type AvailabilityLine struct {
	StockItemID       string  `json:"stockItemId"`
	Description       string  `json:"description"`
	UnitName          string  `json:"unitName"`
	DepletionQuantity float64 `json:"depletionQuantity"`
	TotalUnits        float64 `json:"totalUnits"`
	Possible          int     `json:"possible"`
	Found             bool    `json:"found"`
}

// Availability returns the per-mapping breakdown behind MaxSellable.
// Mappings with a dangling stock item are reported with Found=false
// rather than dropped.
func (e *Engine) Availability(ctx context.Context, productID string) ([]AvailabilityLine, error) {
	deps, err := e.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	lines := make([]AvailabilityLine, 0, len(deps))
	for _, dep := range deps {
		line := AvailabilityLine{
			StockItemID:       dep.StockItemID,
			DepletionQuantity: dep.DepletionQuantity,
		}
		item, err := e.stock.Get(ctx, dep.StockItemID)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			// Dangling reference: rendered "not found" by callers.
		case err != nil:
			return nil, err
		default:
			line.Found = true
			line.Description = item.Description
			line.UnitName = item.UnitName
			line.TotalUnits = item.TotalUnits
			if dep.DepletionQuantity > 0 {
				line.Possible = int(math.Floor(item.TotalUnits / dep.DepletionQuantity))
			}
		}
		lines = append(lines, line)
	}
	return lines, nil
}
