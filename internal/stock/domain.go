package stock

import (
	"errors"
	"time"
)

// Band classifies a stock level for reorder prompting.
type Band string

const (
	// BandCritical means the product is nearly out of stock.
	BandCritical Band = "critical"
	// BandReorder means the product should be restocked soon.
	BandReorder Band = "reorder"
	// BandSafe means no restocking action is needed.
	BandSafe Band = "safe"
)

const (
	criticalThreshold = 5
	reorderThreshold  = 20
)

// BandFor returns the stock band for a quantity. Thresholds are inclusive of
// the lower band: <=5 critical, <=20 reorder, otherwise safe.
func BandFor(quantity int64) Band {
	switch {
	case quantity <= criticalThreshold:
		return BandCritical
	case quantity <= reorderThreshold:
		return BandReorder
	default:
		return BandSafe
	}
}

// Entry is the quantity-and-price record for one product.
type Entry struct {
	ProductID        int64     `json:"product_id"`
	Quantity         int64     `json:"quantity"`
	SellingPrice     float64   `json:"selling_price"`
	SupplierName     string    `json:"supplier_name"`
	LastDeliveryDate time.Time `json:"last_delivery_date"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DeliveryRecord is an append-only log entry for one reconciled delivery.
// RefID is a stable reference generated at reconciliation time, used to cite
// the delivery outside the API (audit trail, paperwork).
type DeliveryRecord struct {
	ID           int64          `json:"id"`
	RefID        string         `json:"ref_id"`
	Number       string         `json:"number"`
	SupplierName string         `json:"supplier_name"`
	DeliveryDate time.Time      `json:"delivery_date"`
	Items        []DeliveryItem `json:"items"`
	CreatedAt    time.Time      `json:"created_at"`
}

// DeliveryItem snapshots one delivered line. ProductName is captured at
// reconciliation time and never updated retroactively.
type DeliveryItem struct {
	ProductID    int64   `json:"product_id"`
	ProductName  string  `json:"product_name"`
	Quantity     int64   `json:"quantity"`
	SellingPrice float64 `json:"selling_price"`
}

// DeliveryInput describes a delivery to reconcile.
type DeliveryInput struct {
	Number       string
	SupplierName string
	DeliveryDate time.Time
	Items        []DeliveryItemInput
	ActorID      int64
}

// DeliveryItemInput is one requested line.
type DeliveryItemInput struct {
	ProductID    int64
	Quantity     int64
	SellingPrice float64
}

// QuickUpdateInput carries a direct stock correction. Nil fields are left
// unchanged (partial update semantics).
type QuickUpdateInput struct {
	Quantity     *int64
	SellingPrice *float64
	Image        *string
	Description  *string
	IsVisible    *bool
	ActorID      int64
}

// ProductStock joins a catalog product with its stock entry. Products that
// never received stock report zero quantity and price.
type ProductStock struct {
	ProductID        int64     `json:"product_id"`
	Name             string    `json:"name"`
	Category         string    `json:"category"`
	Description      string    `json:"description"`
	CostPrice        float64   `json:"cost_price"`
	Image            string    `json:"image,omitempty"`
	IsVisible        bool      `json:"is_visible"`
	Quantity         int64     `json:"quantity"`
	SellingPrice     float64   `json:"selling_price"`
	SupplierName     string    `json:"supplier_name,omitempty"`
	LastDeliveryDate time.Time `json:"last_delivery_date"`
	Band             Band      `json:"band"`
}

// ErrSupplierRequired is returned when a delivery names no supplier.
var ErrSupplierRequired = errors.New("stock: supplier name required")

// ErrEmptyItems is returned when a delivery carries no items.
var ErrEmptyItems = errors.New("stock: delivery requires at least one item")

// ErrDateOutOfWindow is returned when the delivery date is in the future or
// backdated beyond the accepted window.
var ErrDateOutOfWindow = errors.New("stock: delivery date outside accepted window")

// ErrInvalidQuantity indicates a non-numeric or negative quantity.
var ErrInvalidQuantity = errors.New("stock: quantity must be a non-negative integer")

// ErrInvalidPrice indicates a non-numeric or negative selling price.
var ErrInvalidPrice = errors.New("stock: selling price must be a non-negative number")

// ErrPriceBelowCost indicates the selling price would undercut the cost price.
var ErrPriceBelowCost = errors.New("stock: selling price must not be below cost price")

// ErrProductNotFound indicates an unknown product reference.
var ErrProductNotFound = errors.New("stock: product not found")

// ErrDeliveryNotFound indicates an unknown delivery record.
var ErrDeliveryNotFound = errors.New("stock: delivery record not found")
