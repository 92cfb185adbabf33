package stock

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkworks-studio/inkworks/internal/platform/db"
)

// Repository persists stock data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ProductRef is the slice of the catalog the ledger needs while reconciling.
type ProductRef struct {
	ID        int64
	Name      string
	CostPrice float64
}

// TxRepository exposes transactional operations used by the service. All
// writes of one reconciliation or quick-update run through a single
// transaction so partial application is impossible.
type TxRepository interface {
	GetProductRef(ctx context.Context, productID int64) (ProductRef, error)
	IncrementStock(ctx context.Context, productID, delta int64, sellingPrice float64, supplierName string, deliveryDate time.Time) (Entry, error)
	GetStockForUpdate(ctx context.Context, productID int64) (Entry, error)
	OverwriteStock(ctx context.Context, productID, quantity int64, sellingPrice float64) (Entry, error)
	TouchProduct(ctx context.Context, productID int64, image, description *string, isVisible *bool) error
	InsertDeliveryRecord(ctx context.Context, rec DeliveryRecord) (int64, time.Time, error)
	InsertDeliveryItems(ctx context.Context, deliveryID int64, items []DeliveryItem) error
}

type txRepository struct {
	tx pgx.Tx
}

// ErrEntryNotFound indicates a missing stock row; callers treat it as an
// implied zero-quantity entry.
var ErrEntryNotFound = errors.New("stock entry not found")

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("stock repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// GetStock loads the entry for one product.
func (r *Repository) GetStock(ctx context.Context, productID int64) (Entry, error) {
	if r == nil {
		return Entry{}, errors.New("stock repository not initialised")
	}
	var entry Entry
	err := r.pool.QueryRow(ctx, `SELECT product_id, quantity, selling_price, COALESCE(supplier_name,''), COALESCE(last_delivery_date,'epoch'), updated_at
FROM stock_entries WHERE product_id=$1`, productID).
		Scan(&entry.ProductID, &entry.Quantity, &entry.SellingPrice, &entry.SupplierName, &entry.LastDeliveryDate, &entry.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{ProductID: productID}, ErrEntryNotFound
		}
		return Entry{}, err
	}
	return entry, nil
}

// ListProductsWithStock joins every product with its stock entry. Products
// without an entry report zero quantity and price.
func (r *Repository) ListProductsWithStock(ctx context.Context) ([]ProductStock, error) {
	if r == nil {
		return nil, errors.New("stock repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT p.id, p.name, COALESCE(p.category,''), COALESCE(p.description,''), p.cost_price, COALESCE(p.image,''), p.is_visible,
COALESCE(s.quantity,0), COALESCE(s.selling_price,0), COALESCE(s.supplier_name,''), COALESCE(s.last_delivery_date,'epoch')
FROM products p
LEFT JOIN stock_entries s ON s.product_id = p.id
ORDER BY p.name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []ProductStock{}
	for rows.Next() {
		var ps ProductStock
		if err := rows.Scan(&ps.ProductID, &ps.Name, &ps.Category, &ps.Description, &ps.CostPrice, &ps.Image, &ps.IsVisible,
			&ps.Quantity, &ps.SellingPrice, &ps.SupplierName, &ps.LastDeliveryDate); err != nil {
			return nil, err
		}
		ps.Band = BandFor(ps.Quantity)
		list = append(list, ps)
	}
	return list, rows.Err()
}

// ListDeliveries returns delivery records newest first, items included.
func (r *Repository) ListDeliveries(ctx context.Context, limit int) ([]DeliveryRecord, error) {
	if r == nil {
		return nil, errors.New("stock repository not initialised")
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT id, ref_id, number, supplier_name, delivery_date, created_at
FROM delivery_records ORDER BY delivery_date DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := []DeliveryRecord{}
	for rows.Next() {
		var rec DeliveryRecord
		if err := rows.Scan(&rec.ID, &rec.RefID, &rec.Number, &rec.SupplierName, &rec.DeliveryDate, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range records {
		items, err := r.deliveryItems(ctx, records[i].ID)
		if err != nil {
			return nil, err
		}
		records[i].Items = items
	}
	return records, nil
}

// GetDelivery loads one delivery record with its items.
func (r *Repository) GetDelivery(ctx context.Context, id int64) (DeliveryRecord, error) {
	if r == nil {
		return DeliveryRecord{}, errors.New("stock repository not initialised")
	}
	var rec DeliveryRecord
	err := r.pool.QueryRow(ctx, `SELECT id, ref_id, number, supplier_name, delivery_date, created_at
FROM delivery_records WHERE id=$1`, id).
		Scan(&rec.ID, &rec.RefID, &rec.Number, &rec.SupplierName, &rec.DeliveryDate, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DeliveryRecord{}, ErrDeliveryNotFound
		}
		return DeliveryRecord{}, err
	}
	rec.Items, err = r.deliveryItems(ctx, rec.ID)
	return rec, err
}

func (r *Repository) deliveryItems(ctx context.Context, deliveryID int64) ([]DeliveryItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT product_id, product_name, quantity, selling_price
FROM delivery_record_items WHERE delivery_id=$1 ORDER BY id ASC`, deliveryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []DeliveryItem{}
	for rows.Next() {
		var it DeliveryItem
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.Quantity, &it.SellingPrice); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *txRepository) GetProductRef(ctx context.Context, productID int64) (ProductRef, error) {
	var ref ProductRef
	err := r.tx.QueryRow(ctx, `SELECT id, name, cost_price FROM products WHERE id=$1 FOR SHARE`, productID).
		Scan(&ref.ID, &ref.Name, &ref.CostPrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductRef{}, ErrProductNotFound
		}
		return ProductRef{}, err
	}
	return ref, nil
}

// IncrementStock applies a delivery line with a true atomic increment: the
// quantity arithmetic happens inside the UPDATE so concurrent deliveries
// cannot lose updates. Selling price, supplier and delivery date are
// last-writer-wins by contract.
func (r *txRepository) IncrementStock(ctx context.Context, productID, delta int64, sellingPrice float64, supplierName string, deliveryDate time.Time) (Entry, error) {
	var entry Entry
	err := r.tx.QueryRow(ctx, `INSERT INTO stock_entries (product_id, quantity, selling_price, supplier_name, last_delivery_date, updated_at)
VALUES ($1,$2,$3,$4,$5,NOW())
ON CONFLICT (product_id) DO UPDATE SET
quantity = stock_entries.quantity + EXCLUDED.quantity,
selling_price = EXCLUDED.selling_price,
supplier_name = EXCLUDED.supplier_name,
last_delivery_date = EXCLUDED.last_delivery_date,
updated_at = NOW()
RETURNING product_id, quantity, selling_price, COALESCE(supplier_name,''), COALESCE(last_delivery_date,'epoch'), updated_at`,
		productID, delta, sellingPrice, supplierName, deliveryDate).
		Scan(&entry.ProductID, &entry.Quantity, &entry.SellingPrice, &entry.SupplierName, &entry.LastDeliveryDate, &entry.UpdatedAt)
	return entry, err
}

func (r *txRepository) GetStockForUpdate(ctx context.Context, productID int64) (Entry, error) {
	var entry Entry
	err := r.tx.QueryRow(ctx, `SELECT product_id, quantity, selling_price, COALESCE(supplier_name,''), COALESCE(last_delivery_date,'epoch'), updated_at
FROM stock_entries WHERE product_id=$1 FOR UPDATE`, productID).
		Scan(&entry.ProductID, &entry.Quantity, &entry.SellingPrice, &entry.SupplierName, &entry.LastDeliveryDate, &entry.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{ProductID: productID}, ErrEntryNotFound
		}
		return Entry{}, err
	}
	return entry, nil
}

func (r *txRepository) OverwriteStock(ctx context.Context, productID, quantity int64, sellingPrice float64) (Entry, error) {
	var entry Entry
	err := r.tx.QueryRow(ctx, `INSERT INTO stock_entries (product_id, quantity, selling_price, updated_at)
VALUES ($1,$2,$3,NOW())
ON CONFLICT (product_id) DO UPDATE SET
quantity = EXCLUDED.quantity,
selling_price = EXCLUDED.selling_price,
updated_at = NOW()
RETURNING product_id, quantity, selling_price, COALESCE(supplier_name,''), COALESCE(last_delivery_date,'epoch'), updated_at`,
		productID, quantity, sellingPrice).
		Scan(&entry.ProductID, &entry.Quantity, &entry.SellingPrice, &entry.SupplierName, &entry.LastDeliveryDate, &entry.UpdatedAt)
	return entry, err
}

// TouchProduct updates only the supplied catalog fields; nil fields are left
// untouched so existing data is never nulled out.
func (r *txRepository) TouchProduct(ctx context.Context, productID int64, image, description *string, isVisible *bool) error {
	tag, err := r.tx.Exec(ctx, `UPDATE products SET
image = COALESCE($2, image),
description = COALESCE($3, description),
is_visible = COALESCE($4, is_visible),
updated_at = NOW()
WHERE id=$1`, productID, image, description, isVisible)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *txRepository) InsertDeliveryRecord(ctx context.Context, rec DeliveryRecord) (int64, time.Time, error) {
	var id int64
	var createdAt time.Time
	err := r.tx.QueryRow(ctx, `INSERT INTO delivery_records (ref_id, number, supplier_name, delivery_date, created_at)
VALUES ($1,$2,$3,$4,NOW()) RETURNING id, created_at`, rec.RefID, rec.Number, rec.SupplierName, rec.DeliveryDate).Scan(&id, &createdAt)
	return id, createdAt, err
}

func (r *txRepository) InsertDeliveryItems(ctx context.Context, deliveryID int64, items []DeliveryItem) error {
	for _, item := range items {
		if _, err := r.tx.Exec(ctx, `INSERT INTO delivery_record_items (delivery_id, product_id, product_name, quantity, selling_price)
VALUES ($1,$2,$3,$4,$5)`, deliveryID, item.ProductID, item.ProductName, item.Quantity, item.SellingPrice); err != nil {
			return err
		}
	}
	return nil
}
