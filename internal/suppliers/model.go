package suppliers

import (
	"errors"
	"time"
)

// Supplier identifies a business partner deliveries are attributed to.
type Supplier struct {
	ID          int64     `json:"id"`
	CompanyName string    `json:"company_name"`
	Contact     string    `json:"contact"`
	Address     string    `json:"address"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListFilters controls supplier listing.
type ListFilters struct {
	Search  string
	Page    int
	Limit   int
	SortBy  string
	SortDir string
}

// ErrNotFound indicates a missing supplier.
var ErrNotFound = errors.New("suppliers: supplier not found")

// ErrCompanyNameRequired indicates a missing company name.
var ErrCompanyNameRequired = errors.New("suppliers: company name is required")

// ErrInvalidContact indicates a malformed contact number.
var ErrInvalidContact = errors.New("suppliers: invalid contact number")
