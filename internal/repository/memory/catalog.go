package memory

import (
	"context"
	"sort"

	"github.com/chandruydv805026/my-web/internal/entity"
	"github.com/chandruydv805026/my-web/internal/repository"
)

type productRepository struct {
	db *db
}

func (r *productRepository) FindAll(ctx context.Context) ([]entity.Product, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	products := make([]entity.Product, 0, len(r.db.products))
	for _, p := range r.db.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	p, ok := r.db.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []string) (map[string]entity.Product, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	found := make(map[string]entity.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.db.products[id]; ok {
			found[id] = p
		}
	}
	return found, nil
}

func (r *productRepository) Upsert(ctx context.Context, p *entity.Product) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p.UpdatedAt = r.db.now()
	r.db.products[p.ID] = *p
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.db.products, id)
	return nil
}

func (r *productRepository) Seed(ctx context.Context, products []entity.Product) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if len(r.db.products) > 0 {
		return nil
	}
	now := r.db.now()
	for _, p := range products {
		p.UpdatedAt = now
		r.db.products[p.ID] = p
	}
	return nil
}

type bannerRepository struct {
	db *db
}

func (r *bannerRepository) FindAll(ctx context.Context) ([]entity.Banner, error) {
	return r.list(func(*entity.Banner) bool { return true }), nil
}

func (r *bannerRepository) FindActive(ctx context.Context) ([]entity.Banner, error) {
	return r.list(func(b *entity.Banner) bool { return b.Active }), nil
}

func (r *bannerRepository) list(keep func(*entity.Banner) bool) []entity.Banner {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	banners := make([]entity.Banner, 0, len(r.db.banners))
	for _, b := range r.db.banners {
		if keep(b) {
			banners = append(banners, *b)
		}
	}
	sort.Slice(banners, func(i, j int) bool { return banners[i].CreatedAt.After(banners[j].CreatedAt) })
	return banners
}

func (r *bannerRepository) FindByID(ctx context.Context, id string) (*entity.Banner, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	b, ok := r.db.banners[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *bannerRepository) Create(ctx context.Context, b *entity.Banner) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.banners[b.ID]; ok {
		return repository.ErrAlreadyExists
	}
	cp := *b
	r.db.banners[b.ID] = &cp
	return nil
}

func (r *bannerRepository) Update(ctx context.Context, b *entity.Banner) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.banners[b.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *b
	r.db.banners[b.ID] = &cp
	return nil
}

func (r *bannerRepository) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.banners[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.db.banners, id)
	return nil
}
