package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chandruydv805026/my-web/internal/entity"
	"github.com/chandruydv805026/my-web/internal/repository"
)

// CatalogService serves the product list and banners and applies admin edits.
type CatalogService struct {
	products repository.ProductRepository
	banners  repository.BannerRepository
}

func NewCatalogService(products repository.ProductRepository, banners repository.BannerRepository) *CatalogService {
	return &CatalogService{products: products, banners: banners}
}

// GetProducts returns all available products.
func (s *CatalogService) GetProducts(ctx context.Context) ([]entity.Product, error) {
	return s.products.FindAll(ctx)
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return p, err
}

// SaveProduct creates or replaces a product. Carts pick up a new price on their next read.
func (s *CatalogService) SaveProduct(ctx context.Context, p *entity.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if err := p.Validate(); err != nil {
		return validationError("%s", err.Error())
	}
	if err := s.products.Upsert(ctx, p); err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	slog.Info("Service: Product saved", "product_id", p.ID, "price", p.Price, "in_stock", p.InStock)
	return nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	err := s.products.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	slog.Info("Service: Product deleted", "product_id", id)
	return nil
}

// Seed loads the initial catalog when the store has no products.
func (s *CatalogService) Seed(ctx context.Context, products []entity.Product) error {
	return s.products.Seed(ctx, products)
}

// ActiveBanners returns the banners shown on the storefront.
func (s *CatalogService) ActiveBanners(ctx context.Context) ([]entity.Banner, error) {
	return s.banners.FindActive(ctx)
}

func (s *CatalogService) AllBanners(ctx context.Context) ([]entity.Banner, error) {
	return s.banners.FindAll(ctx)
}

// BannerInput holds the editable fields of a banner. Nil fields are left unchanged on update.
type BannerInput struct {
	Title  *string `json:"title"`
	Image  *string `json:"img"`
	Active *bool   `json:"active"`
}

func (s *CatalogService) CreateBanner(ctx context.Context, in BannerInput) (*entity.Banner, error) {
	if in.Image == nil || strings.TrimSpace(*in.Image) == "" {
		return nil, validationError("banner image is required")
	}

	now := time.Now()
	b := &entity.Banner{
		ID:        uuid.NewString(),
		Image:     strings.TrimSpace(*in.Image),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Title != nil {
		b.Title = strings.TrimSpace(*in.Title)
	}
	if in.Active != nil {
		b.Active = *in.Active
	}

	if err := s.banners.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create banner: %w", err)
	}
	return b, nil
}

func (s *CatalogService) UpdateBanner(ctx context.Context, id string, in BannerInput) (*entity.Banner, error) {
	b, err := s.banners.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBannerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load banner: %w", err)
	}

	if in.Title != nil {
		b.Title = strings.TrimSpace(*in.Title)
	}
	if in.Image != nil {
		if strings.TrimSpace(*in.Image) == "" {
			return nil, validationError("banner image cannot be empty")
		}
		b.Image = strings.TrimSpace(*in.Image)
	}
	if in.Active != nil {
		b.Active = *in.Active
	}
	b.UpdatedAt = time.Now()

	err = s.banners.Update(ctx, b)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBannerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update banner: %w", err)
	}
	return b, nil
}

func (s *CatalogService) DeleteBanner(ctx context.Context, id string) error {
	err := s.banners.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrBannerNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete banner: %w", err)
	}
	return nil
}
