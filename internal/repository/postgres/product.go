package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/chandruydv805026/my-web/internal/entity"
	"github.com/chandruydv805026/my-web/internal/repository"
)

const productColumns = "id, name, price, unit, image_url, in_stock, updated_at"

type productRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Unit, &p.Image, &p.InStock, &p.UpdatedAt)
	return p, err
}

func (r *productRepository) FindAll(ctx context.Context) ([]entity.Product, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+productColumns+" FROM products ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []entity.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product %s: %w", id, err)
	}
	return &p, nil
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []string) (map[string]entity.Product, error) {
	found := make(map[string]entity.Product, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	rows, err := r.db.QueryContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		found[p.ID] = p
	}
	return found, rows.Err()
}

func (r *productRepository) Upsert(ctx context.Context, p *entity.Product) error {
	p.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, price = EXCLUDED.price, unit = EXCLUDED.unit,
			image_url = EXCLUDED.image_url, in_stock = EXCLUDED.in_stock, updated_at = EXCLUDED.updated_at`,
		p.ID, p.Name, p.Price, p.Unit, p.Image, p.InStock, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", p.ID, err)
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *productRepository) Seed(ctx context.Context, products []entity.Product) error {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil // already seeded
	}

	for _, p := range products {
		if err := r.Upsert(ctx, &p); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.ID, err)
		}
	}
	return nil
}

type bannerRepository struct {
	db *sql.DB
}

const bannerColumns = "id, title, image_url, active, created_at, updated_at"

func scanBanner(row rowScanner) (entity.Banner, error) {
	var b entity.Banner
	err := row.Scan(&b.ID, &b.Title, &b.Image, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (r *bannerRepository) FindAll(ctx context.Context) ([]entity.Banner, error) {
	return r.query(ctx, "SELECT "+bannerColumns+" FROM banners ORDER BY created_at DESC")
}

func (r *bannerRepository) FindActive(ctx context.Context) ([]entity.Banner, error) {
	return r.query(ctx, "SELECT "+bannerColumns+" FROM banners WHERE active ORDER BY created_at DESC")
}

func (r *bannerRepository) query(ctx context.Context, q string) ([]entity.Banner, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query banners: %w", err)
	}
	defer rows.Close()

	banners := []entity.Banner{}
	for rows.Next() {
		b, err := scanBanner(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan banner: %w", err)
		}
		banners = append(banners, b)
	}
	return banners, rows.Err()
}

func (r *bannerRepository) FindByID(ctx context.Context, id string) (*entity.Banner, error) {
	b, err := scanBanner(r.db.QueryRowContext(ctx, "SELECT "+bannerColumns+" FROM banners WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query banner %s: %w", id, err)
	}
	return &b, nil
}

func (r *bannerRepository) Create(ctx context.Context, b *entity.Banner) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO banners ("+bannerColumns+") VALUES ($1, $2, $3, $4, $5, $6)",
		b.ID, b.Title, b.Image, b.Active, b.CreatedAt, b.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert banner: %w", err)
	}
	return nil
}

func (r *bannerRepository) Update(ctx context.Context, b *entity.Banner) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE banners SET title = $2, image_url = $3, active = $4, updated_at = $5 WHERE id = $1",
		b.ID, b.Title, b.Image, b.Active, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update banner %s: %w", b.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *bannerRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM banners WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete banner %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
