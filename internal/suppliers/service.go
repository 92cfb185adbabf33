package suppliers

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

const maxContactDigits = 11

// Service owns supplier business rules.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Supplier, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Supplier, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, supplier Supplier) (Supplier, error) {
	if err := normalize(&supplier); err != nil {
		return Supplier{}, err
	}
	return s.repo.Create(ctx, supplier)
}

func (s *Service) Update(ctx context.Context, id int64, supplier Supplier) (Supplier, error) {
	if err := normalize(&supplier); err != nil {
		return Supplier{}, err
	}
	if err := s.repo.Update(ctx, id, supplier); err != nil {
		return Supplier{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// normalize trims fields and enforces the contact format: digits only,
// at most eleven of them.
func normalize(supplier *Supplier) error {
	supplier.CompanyName = strings.TrimSpace(supplier.CompanyName)
	if supplier.CompanyName == "" {
		return ErrCompanyNameRequired
	}
	supplier.Contact = strings.TrimSpace(supplier.Contact)
	if supplier.Contact != "" {
		if len(supplier.Contact) > maxContactDigits {
			return fmt.Errorf("%w: at most %d digits", ErrInvalidContact, maxContactDigits)
		}
		for _, r := range supplier.Contact {
			if !unicode.IsDigit(r) {
				return fmt.Errorf("%w: digits only", ErrInvalidContact)
			}
		}
	}
	supplier.Address = strings.TrimSpace(supplier.Address)
	return nil
}
