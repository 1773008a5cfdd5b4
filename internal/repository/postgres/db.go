package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/chandruydv805026/my-web/internal/repository"
)

const uniqueViolation = "23505"

func InitDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrateDB(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	slog.Info("Database connected and migrated")
	return db, nil
}

// NewStore opens Postgres and wires every repository on the same pool.
// Carts idle for longer than cartTTL and orders older than retention are
// invisible to reads; zero disables either limit.
func NewStore(ctx context.Context, dsn string, cartTTL, retention time.Duration) (*repository.Store, error) {
	db, err := InitDB(ctx, dsn)
	if err != nil {
		return nil, err
	}

	orders := &orderRepository{db: db, retention: retention}
	carts := &cartRepository{db: db, ttl: cartTTL}
	return repository.NewStore(repository.Store{
		Products: &productRepository{db: db},
		Banners:  &bannerRepository{db: db},
		Users:    &userRepository{db: db},
		Carts:    carts,
		Orders:   orders,
		Events:   &eventStore{db: db},
		Checkout: &checkout{db: db, orders: orders, carts: carts},
	}, func(context.Context) error { return db.Close() }), nil
}

func migrateDB(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			price NUMERIC NOT NULL DEFAULT 0,
			unit TEXT NOT NULL DEFAULT 'kg',
			image_url TEXT NOT NULL DEFAULT '',
			in_stock BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS banners (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			phone TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			pincode TEXT NOT NULL DEFAULT '',
			area TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (LOWER(email)) WHERE email <> '';

		CREATE TABLE IF NOT EXISTS carts (
			user_id TEXT PRIMARY KEY,
			items JSONB NOT NULL DEFAULT '[]',
			total_price NUMERIC NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMPTZ
		);

		CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			customer_name TEXT NOT NULL,
			phone TEXT NOT NULL,
			total_amount NUMERIC NOT NULL DEFAULT 0,
			delivery_address TEXT NOT NULL,
			payment_mode TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'Pending',
			order_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS orders_user_date_idx ON orders (user_id, order_date DESC);

		CREATE TABLE IF NOT EXISTS order_items (
			id SERIAL PRIMARY KEY,
			order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			position INT NOT NULL,
			product_id TEXT NOT NULL,
			name TEXT NOT NULL,
			price NUMERIC NOT NULL DEFAULT 0,
			quantity NUMERIC NOT NULL
		);

		CREATE TABLE IF NOT EXISTS order_events (
			id TEXT PRIMARY KEY,
			stream_id TEXT NOT NULL,
			version INT NOT NULL,
			event_type TEXT NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (stream_id, version)
		);

		ALTER TABLE products ALTER COLUMN price TYPE NUMERIC;
		ALTER TABLE carts ALTER COLUMN total_price TYPE NUMERIC;
		ALTER TABLE orders ALTER COLUMN total_amount TYPE NUMERIC;
		ALTER TABLE order_items ALTER COLUMN price TYPE NUMERIC, ALTER COLUMN quantity TYPE NUMERIC;
	`)
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
