package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/simplepos/simplepos/internal/stock"
)

const (
	// TaskLowStockScan flags stock items running low on sub-units.
	TaskLowStockScan = "stock:low_scan"
)

// LowStockScanPayload sets the sub-unit threshold for the scan.
type LowStockScanPayload struct {
	Threshold float64 `json:"threshold"`
}

// StockLister lists stock items for scanning.
type StockLister interface {
	List(ctx context.Context, query string) ([]stock.StockItem, error)
}

// NewLowStockScanTask constructs an Asynq task for the scan.
func NewLowStockScanTask(threshold float64) (*asynq.Task, error) {
	body, err := json.Marshal(LowStockScanPayload{Threshold: threshold})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, body, asynq.Queue(QueueDefault)), nil
}

// NewLowStockScanHandler builds the task handler. Items at or below the
// threshold are logged; nothing is mutated.
func NewLowStockScanHandler(svc StockLister, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload LowStockScanPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		items, err := svc.List(ctx, "")
		if err != nil {
			return err
		}
		for _, item := range items {
			if item.TotalUnits > payload.Threshold {
				continue
			}
			if logger != nil {
				logger.Warn("stock item running low",
					slog.String("itemId", item.ItemID),
					slog.String("description", item.Description),
					slog.Float64("totalUnits", item.TotalUnits),
					slog.String("unitName", item.UnitName))
			}
		}
		return nil
	}
}
