package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chandruydv805026/my-web/internal/entity"
	"github.com/chandruydv805026/my-web/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

const userColumns = "id, name, phone, email, address, pincode, area, password_hash, created_at"

func (r *userRepository) Create(ctx context.Context, u *entity.User) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		u.ID, u.Name, u.Phone, u.Email, u.Address, u.Pincode, u.Area, u.PasswordHash, u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return r.findOne(ctx, "id = $1", id)
}

func (r *userRepository) FindByPhone(ctx context.Context, phone string) (*entity.User, error) {
	return r.findOne(ctx, "phone = $1", phone)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, "LOWER(email) = LOWER($1)", email)
}

func (r *userRepository) findOne(ctx context.Context, where string, arg any) (*entity.User, error) {
	var u entity.User
	err := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, arg).Scan(
		&u.ID, &u.Name, &u.Phone, &u.Email, &u.Address, &u.Pincode, &u.Area, &u.PasswordHash, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

type cartRepository struct {
	db  *sql.DB
	ttl time.Duration
}

func (r *cartRepository) FindByUser(ctx context.Context, userID string) (*entity.Cart, error) {
	var (
		cart  = entity.Cart{UserID: userID}
		items []byte
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT items, total_price, updated_at FROM carts WHERE user_id = $1 AND (expires_at IS NULL OR expires_at > NOW())",
		userID,
	).Scan(&items, &cart.TotalPrice, &cart.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}

	if err := json.Unmarshal(items, &cart.Items); err != nil {
		return nil, fmt.Errorf("failed to decode cart items: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []entity.CartItem{}
	}
	return &cart, nil
}

func (r *cartRepository) Save(ctx context.Context, cart *entity.Cart) error {
	return r.save(ctx, r.db, cart)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *cartRepository) save(ctx context.Context, db execer, cart *entity.Cart) error {
	items, err := json.Marshal(cart.Items)
	if err != nil {
		return fmt.Errorf("failed to encode cart items: %w", err)
	}

	cart.UpdatedAt = time.Now()
	var expiresAt sql.NullTime
	if r.ttl > 0 {
		expiresAt = sql.NullTime{Time: cart.UpdatedAt.Add(r.ttl), Valid: true}
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO carts (user_id, items, total_price, updated_at, expires_at) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			items = EXCLUDED.items, total_price = EXCLUDED.total_price,
			updated_at = EXCLUDED.updated_at, expires_at = EXCLUDED.expires_at`,
		cart.UserID, items, cart.TotalPrice, cart.UpdatedAt, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}
