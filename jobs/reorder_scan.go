package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/inkworks-studio/inkworks/internal/shared"
	"github.com/inkworks-studio/inkworks/internal/stock"
)

// StockLister provides the product/stock join the scan walks.
type StockLister interface {
	ListProductsWithStock(ctx context.Context) ([]stock.ProductStock, error)
}

// AuditRecorder persists scan outcomes for later review.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ReorderScanJob flags products whose stock level has fallen into the
// critical or reorder band so staff know what to put on the next order.
type ReorderScanJob struct {
	lister  StockLister
	audit   AuditRecorder
	logger  *slog.Logger
	printer *message.Printer
}

// NewReorderScanJob constructs the scan job.
func NewReorderScanJob(lister StockLister, audit AuditRecorder, logger *slog.Logger) *ReorderScanJob {
	return &ReorderScanJob{
		lister:  lister,
		audit:   audit,
		logger:  logger,
		printer: message.NewPrinter(language.English),
	}
}

// Handle processes TaskStockReorderScan tasks.
func (j *ReorderScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ReorderScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	list, err := j.lister.ListProductsWithStock(ctx)
	if err != nil {
		return err
	}

	var critical, reorder int
	var restockValue float64
	for _, p := range list {
		switch p.Band {
		case stock.BandCritical:
			critical++
			restockValue += p.CostPrice * float64(reorderTarget-p.Quantity)
			j.logger.Warn("product critically low",
				slog.Int64("product_id", p.ProductID),
				slog.String("name", p.Name),
				slog.Int64("quantity", p.Quantity),
			)
		case stock.BandReorder:
			reorder++
			if payload.IncludeReorder {
				restockValue += p.CostPrice * float64(reorderTarget-p.Quantity)
				j.logger.Info("product due for reorder",
					slog.Int64("product_id", p.ProductID),
					slog.String("name", p.Name),
					slog.Int64("quantity", p.Quantity),
				)
			}
		}
	}

	summary := j.printer.Sprintf("%d critical, %d reorder, estimated restock cost %.2f", critical, reorder, restockValue)
	j.logger.Info("reorder scan finished", slog.String("summary", summary))

	if j.audit != nil {
		_ = j.audit.Record(ctx, shared.AuditLog{
			Action:   "stock:reorder_scan",
			Entity:   "stock",
			EntityID: strconv.FormatInt(time.Now().Unix(), 10),
			Meta: map[string]any{
				"critical":      critical,
				"reorder":       reorder,
				"restock_value": restockValue,
			},
		})
	}
	return nil
}

// reorderTarget is the quantity the scan assumes a restock brings each
// flagged product back to when estimating cost.
const reorderTarget int64 = 25

// IdempotencyCleanupJob prunes stale idempotency keys.
type IdempotencyCleanupJob struct {
	store  *shared.IdempotencyStore
	logger *slog.Logger
}

// NewIdempotencyCleanupJob constructs the cleanup job.
func NewIdempotencyCleanupJob(store *shared.IdempotencyStore, logger *slog.Logger) *IdempotencyCleanupJob {
	return &IdempotencyCleanupJob{store: store, logger: logger}
}

// Handle processes TaskIdempotencyCleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload IdempotencyCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	hours := payload.OlderThanHours
	if hours <= 0 {
		hours = 24
	}
	if err := j.store.Cleanup(ctx, time.Duration(hours)*time.Hour); err != nil {
		return err
	}
	j.logger.Info("idempotency cleanup finished", slog.Int("older_than_hours", hours))
	return nil
}
