package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	products map[int64]Product
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[int64]Product)}
}

func (r *memoryRepo) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	var list []Product
	for _, p := range r.products {
		if filters.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filters.Search)) {
			continue
		}
		if filters.Category != "" && p.Category != filters.Category {
			continue
		}
		if filters.IsVisible != nil && p.IsVisible != *filters.IsVisible {
			continue
		}
		list = append(list, p)
	}
	return list, len(list), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Product, error) {
	p, ok := r.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) Create(ctx context.Context, product Product) (Product, error) {
	r.nextID++
	product.ID = r.nextID
	r.products[product.ID] = product
	return product, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, update PartialUpdate) (Product, error) {
	p, ok := r.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	if update.Name != nil {
		p.Name = *update.Name
	}
	if update.Category != nil {
		p.Category = *update.Category
	}
	if update.Description != nil {
		p.Description = *update.Description
	}
	if update.CostPrice != nil {
		p.CostPrice = *update.CostPrice
	}
	if update.Image != nil {
		p.Image = *update.Image
	}
	if update.IsVisible != nil {
		p.IsVisible = *update.IsVisible
	}
	r.products[id] = p
	return p, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.products[id]; !ok {
		return ErrNotFound
	}
	delete(r.products, id)
	return nil
}

type countingBumper struct {
	bumps int
}

func (b *countingBumper) Bump(ctx context.Context) error {
	b.bumps++
	return nil
}

func TestCreateDefaultsVisibility(t *testing.T) {
	repo := newMemoryRepo()
	bumper := &countingBumper{}
	svc := NewService(repo, bumper)
	ctx := context.Background()

	created, err := svc.Create(ctx, Product{Name: "Cartridge 3RL", CostPrice: 80}, false)
	require.NoError(t, err)
	require.True(t, created.IsVisible, "visibility defaults to true")

	hidden, err := svc.Create(ctx, Product{Name: "Back-bar stock", CostPrice: 10, IsVisible: false}, true)
	require.NoError(t, err)
	require.False(t, hidden.IsVisible, "explicit false sticks")
	require.Equal(t, 2, bumper.bumps)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, Product{Name: "   "}, false)
	require.ErrorIs(t, err, ErrNameRequired)

	_, err = svc.Create(ctx, Product{Name: "Gloves", CostPrice: -1}, false)
	require.ErrorIs(t, err, ErrInvalidCostPrice)
}

func TestUpdatePartialSemantics(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, Product{Name: "Gloves", Category: "consumables", CostPrice: 5}, false)
	require.NoError(t, err)

	price := 6.5
	updated, err := svc.Update(ctx, created.ID, PartialUpdate{CostPrice: &price})
	require.NoError(t, err)
	require.Equal(t, 6.5, updated.CostPrice)
	require.Equal(t, "Gloves", updated.Name, "omitted fields keep their values")
	require.Equal(t, "consumables", updated.Category)

	empty := " "
	_, err = svc.Update(ctx, created.ID, PartialUpdate{Name: &empty})
	require.ErrorIs(t, err, ErrNameRequired)

	negative := -2.0
	_, err = svc.Update(ctx, created.ID, PartialUpdate{CostPrice: &negative})
	require.ErrorIs(t, err, ErrInvalidCostPrice)
}

func TestUpdateMissingProduct(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	name := "New name"
	_, err := svc.Update(context.Background(), 123, PartialUpdate{Name: &name})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, Product{Name: "Gloves"}, false)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	require.ErrorIs(t, svc.Delete(ctx, created.ID), ErrNotFound)

	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
