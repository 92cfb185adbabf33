package catalog

import (
	"context"
	"strings"
)

// CacheBumper invalidates listing caches after catalog writes.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// Service coordinates catalog operations.
type Service struct {
	repo  Repository
	cache CacheBumper
}

// NewService builds Service. cache may be nil.
func NewService(repo Repository, cache CacheBumper) *Service {
	return &Service{repo: repo, cache: cache}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Create inserts a new product. Visibility defaults to true unless the
// caller explicitly hides the product.
func (s *Service) Create(ctx context.Context, product Product, visibilitySet bool) (Product, error) {
	if err := s.validate(product); err != nil {
		return Product{}, err
	}
	if !visibilitySet {
		product.IsVisible = true
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return Product{}, err
	}
	s.bump(ctx)
	return created, nil
}

// Update applies a partial edit; nil fields keep their stored values.
func (s *Service) Update(ctx context.Context, id int64, update PartialUpdate) (Product, error) {
	if id <= 0 {
		return Product{}, ErrNotFound
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return Product{}, ErrNameRequired
	}
	if update.CostPrice != nil && *update.CostPrice < 0 {
		return Product{}, ErrInvalidCostPrice
	}
	updated, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return Product{}, err
	}
	s.bump(ctx)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.bump(ctx)
	return nil
}

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrNameRequired
	}
	if p.CostPrice < 0 {
		return ErrInvalidCostPrice
	}
	return nil
}

func (s *Service) bump(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
}
