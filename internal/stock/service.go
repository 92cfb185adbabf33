package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inkworks-studio/inkworks/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetStock(ctx context.Context, productID int64) (Entry, error)
	ListProductsWithStock(ctx context.Context) ([]ProductStock, error)
	ListDeliveries(ctx context.Context, limit int) ([]DeliveryRecord, error)
	GetDelivery(ctx context.Context, id int64) (DeliveryRecord, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort records delivery throughput metrics.
type MetricsPort interface {
	ObserveDelivery(items int)
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	// BackdateDays bounds how far in the past a delivery date may fall.
	// Zero applies the default of 14 days.
	BackdateDays int
}

const defaultBackdateDays = 14

// Service coordinates the stock ledger: delivery reconciliation, quick
// updates and the banded product listing.
type Service struct {
	repo         RepositoryPort
	audit        AuditPort
	idempotency  *shared.IdempotencyStore
	cache        *Cache
	metrics      MetricsPort
	backdateDays int
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, idem *shared.IdempotencyStore, cache *Cache, metrics MetricsPort, cfg ServiceConfig) *Service {
	days := cfg.BackdateDays
	if days <= 0 {
		days = defaultBackdateDays
	}
	return &Service{repo: repo, audit: audit, idempotency: idem, cache: cache, metrics: metrics, backdateDays: days}
}

// RecordDelivery validates and reconciles one supplier delivery. Validation
// happens before any write; the stock increments and the delivery record are
// committed in a single transaction, so a failing item aborts the whole call
// with no partial state.
func (s *Service) RecordDelivery(ctx context.Context, input DeliveryInput) (DeliveryRecord, error) {
	if len(input.Items) == 0 {
		return DeliveryRecord{}, ErrEmptyItems
	}
	if input.SupplierName == "" {
		return DeliveryRecord{}, ErrSupplierRequired
	}
	deliveryDate, err := s.checkDeliveryDate(input.DeliveryDate)
	if err != nil {
		return DeliveryRecord{}, err
	}
	for _, item := range input.Items {
		if item.ProductID <= 0 {
			return DeliveryRecord{}, ErrProductNotFound
		}
		if item.Quantity <= 0 {
			return DeliveryRecord{}, ErrInvalidQuantity
		}
		if item.SellingPrice < 0 {
			return DeliveryRecord{}, ErrInvalidPrice
		}
	}

	number := input.Number
	if number == "" {
		number = fmt.Sprintf("DR-%d", time.Now().UnixNano())
	}

	key := fmt.Sprintf("delivery:%s", number)
	insertedKey := false
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, "stock.delivery"); err != nil {
			return DeliveryRecord{}, err
		}
		insertedKey = true
	}

	record := DeliveryRecord{
		RefID:        uuid.NewString(),
		Number:       number,
		SupplierName: input.SupplierName,
		DeliveryDate: deliveryDate,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		items := make([]DeliveryItem, 0, len(input.Items))
		for _, item := range input.Items {
			ref, err := tx.GetProductRef(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if err := Validate(ref.CostPrice, item.SellingPrice, item.Quantity); err != nil {
				return err
			}
			if _, err := tx.IncrementStock(ctx, item.ProductID, item.Quantity, item.SellingPrice, input.SupplierName, deliveryDate); err != nil {
				return err
			}
			items = append(items, DeliveryItem{
				ProductID:    item.ProductID,
				ProductName:  ref.Name,
				Quantity:     item.Quantity,
				SellingPrice: item.SellingPrice,
			})
		}
		id, createdAt, err := tx.InsertDeliveryRecord(ctx, record)
		if err != nil {
			return err
		}
		if err := tx.InsertDeliveryItems(ctx, id, items); err != nil {
			return err
		}
		record.ID = id
		record.Items = items
		record.CreatedAt = createdAt
		return nil
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, key)
		}
		return DeliveryRecord{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "stock:delivery",
			Entity:   "delivery_record",
			EntityID: record.Number,
			Meta: map[string]any{
				"ref_id":        record.RefID,
				"supplier":      record.SupplierName,
				"delivery_date": record.DeliveryDate.Format("2006-01-02"),
				"items":         len(record.Items),
			},
		})
	}
	if s.metrics != nil {
		s.metrics.ObserveDelivery(len(record.Items))
	}
	_ = s.cache.Bump(ctx)
	return record, nil
}

// QuickUpdate applies a direct correction to one product's stock entry and,
// when supplied, its catalog image/description/visibility. Fields left nil
// keep their current values. The merged state is validated before any write;
// the operation is a pure overwrite and therefore idempotent.
func (s *Service) QuickUpdate(ctx context.Context, productID int64, input QuickUpdateInput) (ProductStock, error) {
	if productID <= 0 {
		return ProductStock{}, ErrProductNotFound
	}
	var result ProductStock
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ref, err := tx.GetProductRef(ctx, productID)
		if err != nil {
			return err
		}
		current, err := tx.GetStockForUpdate(ctx, productID)
		if err != nil && !errors.Is(err, ErrEntryNotFound) {
			return err
		}

		quantity := current.Quantity
		if input.Quantity != nil {
			quantity = *input.Quantity
		}
		sellingPrice := current.SellingPrice
		if input.SellingPrice != nil {
			sellingPrice = *input.SellingPrice
		}
		if err := Validate(ref.CostPrice, sellingPrice, quantity); err != nil {
			return err
		}

		if input.Image != nil || input.Description != nil || input.IsVisible != nil {
			if err := tx.TouchProduct(ctx, productID, input.Image, input.Description, input.IsVisible); err != nil {
				return err
			}
		}
		entry, err := tx.OverwriteStock(ctx, productID, quantity, sellingPrice)
		if err != nil {
			return err
		}
		result = ProductStock{
			ProductID:        productID,
			Name:             ref.Name,
			CostPrice:        ref.CostPrice,
			Quantity:         entry.Quantity,
			SellingPrice:     entry.SellingPrice,
			SupplierName:     entry.SupplierName,
			LastDeliveryDate: entry.LastDeliveryDate,
			Band:             BandFor(entry.Quantity),
		}
		return nil
	})
	if err != nil {
		return ProductStock{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "stock:quick_update",
			Entity:   "stock_entry",
			EntityID: fmt.Sprintf("%d", productID),
			Meta: map[string]any{
				"quantity":      result.Quantity,
				"selling_price": result.SellingPrice,
			},
		})
	}
	_ = s.cache.Bump(ctx)
	return result, nil
}

// GetStock returns the entry for one product; a product that never received
// stock reports an implied zero entry.
func (s *Service) GetStock(ctx context.Context, productID int64) (Entry, error) {
	entry, err := s.repo.GetStock(ctx, productID)
	if errors.Is(err, ErrEntryNotFound) {
		return Entry{ProductID: productID}, nil
	}
	return entry, err
}

// ListProductsWithStock returns every product joined with its stock entry
// and band, served through the versioned cache.
func (s *Service) ListProductsWithStock(ctx context.Context) ([]ProductStock, error) {
	key, err := s.cache.BuildKey(ctx, "stock:list")
	if err != nil {
		return nil, err
	}
	var list []ProductStock
	err = s.cache.FetchJSON(ctx, key, &list, func(ctx context.Context) (any, error) {
		return s.repo.ListProductsWithStock(ctx)
	})
	return list, err
}

// ListDeliveries returns delivery history, newest first.
func (s *Service) ListDeliveries(ctx context.Context, limit int) ([]DeliveryRecord, error) {
	return s.repo.ListDeliveries(ctx, limit)
}

// GetDelivery loads one delivery record.
func (s *Service) GetDelivery(ctx context.Context, id int64) (DeliveryRecord, error) {
	return s.repo.GetDelivery(ctx, id)
}

// checkDeliveryDate normalizes the delivery date to UTC midnight and checks
// the accepted window: no future dates, backdating bounded to keep the audit
// trail honest.
func (s *Service) checkDeliveryDate(date time.Time) (time.Time, error) {
	if date.IsZero() {
		return time.Time{}, ErrDateOutOfWindow
	}
	day := truncateToDay(date)
	today := truncateToDay(time.Now().UTC())
	oldest := today.AddDate(0, 0, -s.backdateDays)
	if day.After(today) || day.Before(oldest) {
		return time.Time{}, fmt.Errorf("%w: %s not in [%s, %s]", ErrDateOutOfWindow,
			day.Format("2006-01-02"), oldest.Format("2006-01-02"), today.Format("2006-01-02"))
	}
	return day, nil
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
