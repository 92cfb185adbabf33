package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/inkworks-studio/inkworks/internal/shared"
	"github.com/inkworks-studio/inkworks/internal/stock"
)

type fakeLister struct {
	list []stock.ProductStock
}

func (f *fakeLister) ListProductsWithStock(ctx context.Context) ([]stock.ProductStock, error) {
	return f.list, nil
}

type fakeAudit struct {
	logs []shared.AuditLog
}

func (f *fakeAudit) Record(ctx context.Context, log shared.AuditLog) error {
	f.logs = append(f.logs, log)
	return nil
}

func TestReorderScanCountsBands(t *testing.T) {
	lister := &fakeLister{list: []stock.ProductStock{
		{ProductID: 1, Name: "Cartridge 3RL", Quantity: 3, CostPrice: 80, Band: stock.BandCritical},
		{ProductID: 2, Name: "Green Soap", Quantity: 15, CostPrice: 10, Band: stock.BandReorder},
		{ProductID: 3, Name: "Gloves", Quantity: 50, CostPrice: 5, Band: stock.BandSafe},
	}}
	audit := &fakeAudit{}
	job := NewReorderScanJob(lister, audit, slog.Default())

	payload, err := json.Marshal(ReorderScanPayload{IncludeReorder: true})
	require.NoError(t, err)

	err = job.Handle(context.Background(), asynq.NewTask(TaskStockReorderScan, payload))
	require.NoError(t, err)

	require.Len(t, audit.logs, 1)
	meta := audit.logs[0].Meta
	require.Equal(t, 1, meta["critical"])
	require.Equal(t, 1, meta["reorder"])
	require.Equal(t, "stock:reorder_scan", audit.logs[0].Action)
}

func TestReorderScanMalformedPayload(t *testing.T) {
	job := NewReorderScanJob(&fakeLister{}, nil, slog.Default())

	err := job.Handle(context.Background(), asynq.NewTask(TaskStockReorderScan, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
