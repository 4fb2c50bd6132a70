package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskStockReconcile runs the stock item reconciliation sweep.
	TaskStockReconcile = "stock:reconcile"
)

// StockReconcilePayload carries scheduling metadata.
type StockReconcilePayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// Reconciler runs the migration pass over all stock items.
type Reconciler interface {
	ReconcileAll(ctx context.Context) (int, error)
}

// NewStockReconcileTask constructs an Asynq task for the sweep.
func NewStockReconcileTask(at time.Time) (*asynq.Task, error) {
	payload := StockReconcilePayload{ScheduledFor: at}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockReconcile, body, asynq.Queue(QueueDefault)), nil
}

// NewStockReconcileHandler builds the task handler around the stock
// service. Reconciliation is idempotent, so re-delivery is harmless.
func NewStockReconcileHandler(svc Reconciler, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload StockReconcilePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		repaired, err := svc.ReconcileAll(ctx)
		if err != nil {
			return err
		}
		if logger != nil {
			logger.Info("stock reconcile sweep done",
				slog.Int("repaired", repaired),
				slog.Time("scheduled_for", payload.ScheduledFor))
		}
		return nil
	}
}
