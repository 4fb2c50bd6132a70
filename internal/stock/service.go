package stock

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"

	"github.com/simplepos/simplepos/internal/shared"
)

// ReferenceChecker reports whether depletion mappings still point at
// stock items. Implemented by the depletion repository.
type ReferenceChecker interface {
	StockItemReferenced(ctx context.Context, itemID string) (bool, error)
	AnyReferences(ctx context.Context) (bool, error)
}

// Service coordinates stock item operations.
type Service struct {
	repo   *Repository
	refs   ReferenceChecker
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo *Repository, refs ReferenceChecker, logger *slog.Logger) *Service {
	return &Service{repo: repo, refs: refs, logger: logger}
}

var foldCaser = cases.Fold()

// Get returns one stock item.
func (s *Service) Get(ctx context.Context, itemID string) (StockItem, error) {
	if itemID == "" {
		return StockItem{}, fmt.Errorf("%w: %w", shared.ErrValidation, ErrMissingItemID)
	}
	return s.repo.Get(ctx, itemID)
}

// List returns stock items, optionally filtered by a case-folded
// substring match over itemId and description.
func (s *Service) List(ctx context.Context, query string) ([]StockItem, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return items, nil
	}
	needle := foldCaser.String(query)
	filtered := items[:0]
	for _, item := range items {
		if strings.Contains(foldCaser.String(item.ItemID), needle) ||
			strings.Contains(foldCaser.String(item.Description), needle) {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

// Save validates and upserts a stock item. Quantity is always re-derived
// from totalUnits so the pair can never drift apart on write.
func (s *Service) Save(ctx context.Context, item StockItem) (StockItem, error) {
	if strings.TrimSpace(item.ItemID) == "" {
		return StockItem{}, fmt.Errorf("%w: %w", shared.ErrValidation, ErrMissingItemID)
	}
	if item.SubUnitCount < 1 {
		return StockItem{}, fmt.Errorf("%w: %w", shared.ErrValidation, ErrInvalidSubUnitCount)
	}
	if item.TotalUnits < 0 {
		return StockItem{}, fmt.Errorf("%w: %w", shared.ErrValidation, ErrNegativeTotalUnits)
	}
	if item.UnitName == "" {
		item.UnitName = DefaultUnitName
	}
	item.Quantity = item.TotalUnits / item.SubUnitCount
	if err := s.repo.Put(ctx, item); err != nil {
		return StockItem{}, err
	}
	return item, nil
}

// Delete removes a stock item unless a depletion mapping still
// references it.
func (s *Service) Delete(ctx context.Context, itemID string) error {
	if itemID == "" {
		return fmt.Errorf("%w: %w", shared.ErrValidation, ErrMissingItemID)
	}
	linked, err := s.refs.StockItemReferenced(ctx, itemID)
	if err != nil {
		return err
	}
	if linked {
		return fmt.Errorf("%w: %w", shared.ErrConflict, ErrItemLinked)
	}
	return s.repo.Delete(ctx, itemID)
}

// Clear removes every stock item, refusing while any depletion mapping
// exists.
func (s *Service) Clear(ctx context.Context) error {
	any, err := s.refs.AnyReferences(ctx)
	if err != nil {
		return err
	}
	if any {
		return fmt.Errorf("%w: %w", shared.ErrConflict, ErrItemLinked)
	}
	return s.repo.Clear(ctx)
}

// ReconcileAll runs the one-time migration pass over every stored stock
// item, persisting only the records it had to repair. Running it twice
// in a row writes nothing the second time.
func (s *Service) ReconcileAll(ctx context.Context) (int, error) {
	records, err := s.repo.getAllRecords(ctx)
	if err != nil {
		return 0, err
	}
	repaired := 0
	for _, rec := range records {
		item, changed := reconcileRecord(rec)
		if !changed {
			continue
		}
		if err := s.repo.Put(ctx, item); err != nil {
			return repaired, err
		}
		repaired++
	}
	if repaired > 0 && s.logger != nil {
		s.logger.Info("stock items reconciled", slog.Int("repaired", repaired))
	}
	return repaired, nil
}
