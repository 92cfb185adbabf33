package stock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	products   map[int64]ProductRef
	entries    map[int64]Entry
	deliveries []DeliveryRecord
	nextID     int64

	// failOn forces the named tx operation to fail, for atomicity tests.
	failOn string
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		products: make(map[int64]ProductRef),
		entries:  make(map[int64]Entry),
	}
}

func (r *memoryRepo) addProduct(id int64, name string, costPrice float64) {
	r.products[id] = ProductRef{ID: id, Name: name, CostPrice: costPrice}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshotEntries := make(map[int64]Entry, len(r.entries))
	for k, v := range r.entries {
		snapshotEntries[k] = v
	}
	snapshotDeliveries := make([]DeliveryRecord, len(r.deliveries))
	copy(snapshotDeliveries, r.deliveries)

	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.entries = snapshotEntries
		r.deliveries = snapshotDeliveries
		return err
	}
	return nil
}

func (r *memoryRepo) GetStock(ctx context.Context, productID int64) (Entry, error) {
	entry, ok := r.entries[productID]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	return entry, nil
}

func (r *memoryRepo) ListProductsWithStock(ctx context.Context) ([]ProductStock, error) {
	var list []ProductStock
	for id, ref := range r.products {
		entry := r.entries[id]
		list = append(list, ProductStock{
			ProductID:    id,
			Name:         ref.Name,
			CostPrice:    ref.CostPrice,
			Quantity:     entry.Quantity,
			SellingPrice: entry.SellingPrice,
			Band:         BandFor(entry.Quantity),
		})
	}
	return list, nil
}

func (r *memoryRepo) ListDeliveries(ctx context.Context, limit int) ([]DeliveryRecord, error) {
	list := make([]DeliveryRecord, len(r.deliveries))
	copy(list, r.deliveries)
	return list, nil
}

func (r *memoryRepo) GetDelivery(ctx context.Context, id int64) (DeliveryRecord, error) {
	for _, rec := range r.deliveries {
		if rec.ID == id {
			return rec, nil
		}
	}
	return DeliveryRecord{}, ErrDeliveryNotFound
}

func (tx *memoryTx) GetProductRef(ctx context.Context, productID int64) (ProductRef, error) {
	ref, ok := tx.repo.products[productID]
	if !ok {
		return ProductRef{}, ErrProductNotFound
	}
	return ref, nil
}

func (tx *memoryTx) IncrementStock(ctx context.Context, productID, delta int64, sellingPrice float64, supplierName string, deliveryDate time.Time) (Entry, error) {
	if tx.repo.failOn == "increment" {
		return Entry{}, errors.New("forced increment failure")
	}
	entry := tx.repo.entries[productID]
	entry.ProductID = productID
	entry.Quantity += delta
	entry.SellingPrice = sellingPrice
	entry.SupplierName = supplierName
	entry.LastDeliveryDate = deliveryDate
	tx.repo.entries[productID] = entry
	return entry, nil
}

func (tx *memoryTx) GetStockForUpdate(ctx context.Context, productID int64) (Entry, error) {
	entry, ok := tx.repo.entries[productID]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	return entry, nil
}

func (tx *memoryTx) OverwriteStock(ctx context.Context, productID, quantity int64, sellingPrice float64) (Entry, error) {
	entry := tx.repo.entries[productID]
	entry.ProductID = productID
	entry.Quantity = quantity
	entry.SellingPrice = sellingPrice
	tx.repo.entries[productID] = entry
	return entry, nil
}

func (tx *memoryTx) TouchProduct(ctx context.Context, productID int64, image, description *string, isVisible *bool) error {
	if _, ok := tx.repo.products[productID]; !ok {
		return ErrProductNotFound
	}
	return nil
}

func (tx *memoryTx) InsertDeliveryRecord(ctx context.Context, rec DeliveryRecord) (int64, time.Time, error) {
	if tx.repo.failOn == "record" {
		return 0, time.Time{}, errors.New("forced record failure")
	}
	tx.repo.nextID++
	rec.ID = tx.repo.nextID
	rec.CreatedAt = time.Now().UTC()
	tx.repo.deliveries = append(tx.repo.deliveries, rec)
	return rec.ID, rec.CreatedAt, nil
}

func (tx *memoryTx) InsertDeliveryItems(ctx context.Context, deliveryID int64, items []DeliveryItem) error {
	for i := range tx.repo.deliveries {
		if tx.repo.deliveries[i].ID == deliveryID {
			tx.repo.deliveries[i].Items = items
		}
	}
	return nil
}

func newService(repo *memoryRepo) *Service {
	return NewService(repo, nil, nil, NewCache(nil, time.Minute), nil, ServiceConfig{})
}

func TestRecordDeliveryIncrementsStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Cartridge 3RL", 80)
	repo.addProduct(2, "Green Soap", 10)
	svc := newService(repo)
	ctx := context.Background()

	record, err := svc.RecordDelivery(ctx, DeliveryInput{
		Number:       "DR-1001",
		SupplierName: "Acme Supplies",
		DeliveryDate: time.Now().UTC(),
		Items: []DeliveryItemInput{
			{ProductID: 1, Quantity: 20, SellingPrice: 120},
			{ProductID: 2, Quantity: 5, SellingPrice: 15},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "DR-1001", record.Number)
	require.Len(t, record.Items, 2)
	require.Equal(t, "Cartridge 3RL", record.Items[0].ProductName)

	entry, err := svc.GetStock(ctx, 1)
	require.NoError(t, err)
	require.EqualValues(t, 20, entry.Quantity)
	require.Equal(t, 120.0, entry.SellingPrice)
	require.Equal(t, "Acme Supplies", entry.SupplierName)
}

func TestRecordDeliveryAssignsReference(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Cartridge 3RL", 80)
	svc := newService(repo)
	ctx := context.Background()

	input := DeliveryInput{
		SupplierName: "Acme Supplies",
		DeliveryDate: time.Now().UTC(),
		Items:        []DeliveryItemInput{{ProductID: 1, Quantity: 5, SellingPrice: 100}},
	}
	first, err := svc.RecordDelivery(ctx, input)
	require.NoError(t, err)
	_, err = uuid.Parse(first.RefID)
	require.NoError(t, err, "ref id must be a uuid")
	require.False(t, first.CreatedAt.IsZero(), "created_at comes from the insert")

	second, err := svc.RecordDelivery(ctx, input)
	require.NoError(t, err)
	require.NotEqual(t, first.RefID, second.RefID)

	stored, err := svc.GetDelivery(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, first.RefID, stored.RefID)
}

func TestRecordDeliveryTwiceAccumulates(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Cartridge 3RL", 80)
	svc := newService(repo)
	ctx := context.Background()

	input := DeliveryInput{
		SupplierName: "Acme Supplies",
		DeliveryDate: time.Now().UTC(),
		Items:        []DeliveryItemInput{{ProductID: 1, Quantity: 20, SellingPrice: 120}},
	}
	_, err := svc.RecordDelivery(ctx, input)
	require.NoError(t, err)
	_, err = svc.RecordDelivery(ctx, input)
	require.NoError(t, err)

	entry, err := svc.GetStock(ctx, 1)
	require.NoError(t, err)
	require.EqualValues(t, 40, entry.Quantity)
	require.Equal(t, 120.0, entry.SellingPrice)
	require.Len(t, repo.deliveries, 2)
}

func TestRecordDeliveryRejectsEmptyItems(t *testing.T) {
	svc := newService(newMemoryRepo())

	_, err := svc.RecordDelivery(context.Background(), DeliveryInput{
		SupplierName: "Acme Supplies",
		DeliveryDate: time.Now().UTC(),
	})
	require.ErrorIs(t, err, ErrEmptyItems)
}

func TestRecordDeliveryRequiresSupplier(t *testing.T) {
	svc := newService(newMemoryRepo())

	_, err := svc.RecordDelivery(context.Background(), DeliveryInput{
		DeliveryDate: time.Now().UTC(),
		Items:        []DeliveryItemInput{{ProductID: 1, Quantity: 1, SellingPrice: 1}},
	})
	require.ErrorIs(t, err, ErrSupplierRequired)
}

func TestRecordDeliveryDateWindow(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Cartridge 3RL", 80)
	svc := newService(repo)
	ctx := context.Background()

	base := DeliveryInput{
		SupplierName: "Acme Supplies",
		Items:        []DeliveryItemInput{{ProductID: 1, Quantity: 1, SellingPrice: 100}},
	}

	cases := []struct {
		name string
		date time.Time
		ok   bool
	}{
		{"today", time.Now().UTC(), true},
		{"oldest allowed", time.Now().UTC().AddDate(0, 0, -14), true},
		{"one day too old", time.Now().UTC().AddDate(0, 0, -15), false},
		{"tomorrow", time.Now().UTC().AddDate(0, 0, 1), false},
		{"zero", time.Time{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := base
			input.DeliveryDate = tc.date
			_, err := svc.RecordDelivery(ctx, input)
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrDateOutOfWindow)
			}
		})
	}
}

func TestRecordDeliveryAllOrNothing(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Cartridge 3RL", 80)
	repo.addProduct(2, "Green Soap", 10)
	svc := newService(repo)
	ctx := context.Background()

	// Second item prices below cost. The first item's increment must not
	// survive the rollback.
	_, err := svc.RecordDelivery(ctx, DeliveryInput{
		SupplierName: "Acme Supplies",
		DeliveryDate: time.Now().UTC(),
		Items: []DeliveryItemInput{
			{ProductID: 1, Quantity: 10, SellingPrice: 100},
			{ProductID: 2, Quantity: 5, SellingPrice: 5},
		},
	})
	require.ErrorIs(t, err, ErrPriceBelowCost)

	entry, err := svc.GetStock(ctx, 1)
	require.NoError(t, err)
	require.EqualValues(t, 0, entry.Quantity)
	require.Empty(t, repo.deliveries)
}

func TestRecordDeliveryUnknownProductRollsBack(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Cartridge 3RL", 80)
	svc := newService(repo)
	ctx := context.Background()

	_, err := svc.RecordDelivery(ctx, DeliveryInput{
		SupplierName: "Acme Supplies",
		DeliveryDate: time.Now().UTC(),
		Items: []DeliveryItemInput{
			{ProductID: 1, Quantity: 10, SellingPrice: 100},
			{ProductID: 99, Quantity: 5, SellingPrice: 100},
		},
	})
	require.ErrorIs(t, err, ErrProductNotFound)

	entry, err := svc.GetStock(ctx, 1)
	require.NoError(t, err)
	require.EqualValues(t, 0, entry.Quantity)
}

func TestQuickUpdateOverwrites(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Cartridge 3RL", 80)
	repo.entries[1] = Entry{ProductID: 1, Quantity: 30, SellingPrice: 120}
	svc := newService(repo)
	ctx := context.Background()

	qty := int64(12)
	result, err := svc.QuickUpdate(ctx, 1, QuickUpdateInput{Quantity: &qty})
	require.NoError(t, err)
	require.EqualValues(t, 12, result.Quantity)
	require.Equal(t, 120.0, result.SellingPrice)
	require.Equal(t, BandReorder, result.Band)
}

func TestQuickUpdateRejectsBelowCost(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Cartridge 3RL", 80)
	repo.entries[1] = Entry{ProductID: 1, Quantity: 30, SellingPrice: 120}
	svc := newService(repo)
	ctx := context.Background()

	price := 50.0
	_, err := svc.QuickUpdate(ctx, 1, QuickUpdateInput{SellingPrice: &price})
	require.ErrorIs(t, err, ErrPriceBelowCost)

	entry, err := svc.GetStock(ctx, 1)
	require.NoError(t, err)
	require.EqualValues(t, 30, entry.Quantity)
	require.Equal(t, 120.0, entry.SellingPrice)
}

func TestQuickUpdateIsIdempotent(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Cartridge 3RL", 80)
	svc := newService(repo)
	ctx := context.Background()

	qty := int64(7)
	price := 95.0
	input := QuickUpdateInput{Quantity: &qty, SellingPrice: &price}

	first, err := svc.QuickUpdate(ctx, 1, input)
	require.NoError(t, err)
	second, err := svc.QuickUpdate(ctx, 1, input)
	require.NoError(t, err)
	require.Equal(t, first.Quantity, second.Quantity)
	require.Equal(t, first.SellingPrice, second.SellingPrice)
}

func TestQuickUpdateUnknownProduct(t *testing.T) {
	svc := newService(newMemoryRepo())

	qty := int64(1)
	_, err := svc.QuickUpdate(context.Background(), 42, QuickUpdateInput{Quantity: &qty})
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestGetStockImpliesZeroEntry(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Cartridge 3RL", 80)
	svc := newService(repo)

	entry, err := svc.GetStock(context.Background(), 1)
	require.NoError(t, err)
	require.EqualValues(t, 0, entry.Quantity)
	require.EqualValues(t, 1, entry.ProductID)
}

func TestListProductsWithStockBands(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, "Cartridge 3RL", 80)
	repo.addProduct(2, "Green Soap", 10)
	repo.addProduct(3, "Gloves", 5)
	repo.entries[1] = Entry{ProductID: 1, Quantity: 3}
	repo.entries[2] = Entry{ProductID: 2, Quantity: 15}
	repo.entries[3] = Entry{ProductID: 3, Quantity: 50}
	svc := newService(repo)

	list, err := svc.ListProductsWithStock(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)

	bands := map[int64]Band{}
	for _, p := range list {
		bands[p.ProductID] = p.Band
	}
	require.Equal(t, BandCritical, bands[1])
	require.Equal(t, BandReorder, bands[2])
	require.Equal(t, BandSafe, bands[3])
}
