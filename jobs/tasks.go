package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockReorderScan walks the catalog and flags low-stock products.
	TaskStockReorderScan = "stock:reorder_scan"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"
)

// ReorderScanPayload configures a reorder scan run.
type ReorderScanPayload struct {
	// IncludeReorder extends the scan beyond critical products to the
	// reorder band.
	IncludeReorder bool `json:"include_reorder"`
}

// NewReorderScanTask constructs an Asynq task for a reorder scan.
func NewReorderScanTask(payload ReorderScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockReorderScan, data), nil
}

// IdempotencyCleanupPayload configures key pruning.
type IdempotencyCleanupPayload struct {
	OlderThanHours int `json:"older_than_hours"`
}

// NewIdempotencyCleanupTask constructs an Asynq task for key pruning.
func NewIdempotencyCleanupTask(payload IdempotencyCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
