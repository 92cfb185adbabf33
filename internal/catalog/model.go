package catalog

import (
	"errors"
	"time"
)

// Product is the descriptive record of a sellable item, independent of how
// much is in stock.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	CostPrice   float64   `json:"cost_price"`
	Image       string    `json:"image,omitempty"`
	IsVisible   bool      `json:"is_visible"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PartialUpdate carries an edit where nil fields keep their current values.
// Supplying a field always overwrites it; omitted fields are never nulled.
type PartialUpdate struct {
	Name        *string
	Category    *string
	Description *string
	CostPrice   *float64
	Image       *string
	IsVisible   *bool
}

// ListFilters controls catalog listing.
type ListFilters struct {
	Search    string
	Category  string
	IsVisible *bool
	Page      int
	Limit     int
	SortBy    string
	SortDir   string
}

// ErrNameRequired indicates a missing product name.
var ErrNameRequired = errors.New("catalog: product name is required")

// ErrInvalidCostPrice indicates a negative cost price.
var ErrInvalidCostPrice = errors.New("catalog: cost price must be >= 0")

// ErrNotFound indicates a missing product.
var ErrNotFound = errors.New("catalog: product not found")
