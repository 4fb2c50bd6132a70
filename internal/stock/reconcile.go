package stock

import "math"

// QuantityTolerance is the floating tolerance within which quantity and
// totalUnits/subUnitCount are considered in sync.
const QuantityTolerance = 1e-4

// DefaultUnitName labels sub-units on records that never declared one.
const DefaultUnitName = "unit"

// reconcileRecord repairs a stored stock item into a consistent state.
// It never rejects: missing or NaN fields get defaults, then quantity is
// re-derived from totalUnits. The boolean reports whether anything
// changed, so callers persist only repaired records.
//
// This is the one place that falls back from totalUnits to
// quantity*subUnitCount; everything downstream reads the normalized
// TotalUnits field.
func reconcileRecord(rec itemRecord) (StockItem, bool) {
	changed := false

	subUnitCount := 1.0
	if rec.SubUnitCount != nil && !math.IsNaN(*rec.SubUnitCount) && *rec.SubUnitCount >= 1 {
		subUnitCount = *rec.SubUnitCount
	} else {
		changed = true
	}

	unitName := rec.UnitName
	if unitName == "" {
		unitName = DefaultUnitName
		changed = true
	}

	var totalUnits float64
	if rec.TotalUnits != nil && !math.IsNaN(*rec.TotalUnits) {
		totalUnits = *rec.TotalUnits
	} else {
		quantity := 0.0
		if rec.Quantity != nil && !math.IsNaN(*rec.Quantity) {
			quantity = *rec.Quantity
		}
		totalUnits = quantity * subUnitCount
		changed = true
	}

	correctQuantity := totalUnits / subUnitCount
	quantity := correctQuantity
	if rec.Quantity == nil || math.IsNaN(*rec.Quantity) ||
		math.Abs(*rec.Quantity-correctQuantity) > QuantityTolerance {
		changed = true
	} else {
		quantity = *rec.Quantity
	}

	return StockItem{
		ItemID:       rec.ItemID,
		Description:  rec.Description,
		UnitName:     unitName,
		SubUnitCount: subUnitCount,
		TotalUnits:   totalUnits,
		Quantity:     quantity,
	}, changed
}

// Reconcile normalizes an already-decoded stock item, applying the same
// repairs as the load-time migration.
func Reconcile(item StockItem) (StockItem, bool) {
	rec := itemRecord{
		ItemID:       item.ItemID,
		Description:  item.Description,
		UnitName:     item.UnitName,
		SubUnitCount: &item.SubUnitCount,
		TotalUnits:   &item.TotalUnits,
		Quantity:     &item.Quantity,
	}
	return reconcileRecord(rec)
}
