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

const orderColumns = "id, user_id, customer_name, phone, total_amount, delivery_address, payment_mode, status, order_date, updated_at"

type orderRepository struct {
	db        *sql.DB
	retention time.Duration
}

// cutoff is the oldest order date still visible.
func (r *orderRepository) cutoff() time.Time {
	if r.retention <= 0 {
		return time.Time{}
	}
	return time.Now().Add(-r.retention)
}

func (r *orderRepository) Create(ctx context.Context, o *entity.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.insert(ctx, tx, o); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *orderRepository) insert(ctx context.Context, tx *sql.Tx, o *entity.Order) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO orders ("+orderColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)",
		o.ID, o.UserID, o.CustomerName, o.Phone, o.TotalAmount, o.DeliveryAddress, o.PaymentMode, o.Status, o.OrderDate, o.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO order_items (order_id, position, product_id, name, price, quantity) VALUES ($1, $2, $3, $4, $5, $6)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for i, item := range o.Items {
		if _, err := stmt.ExecContext(ctx, o.ID, i, item.ProductID, item.Name, item.Price, item.Quantity); err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}
	return nil
}

func scanOrder(row rowScanner) (entity.Order, error) {
	var o entity.Order
	err := row.Scan(&o.ID, &o.UserID, &o.CustomerName, &o.Phone, &o.TotalAmount, &o.DeliveryAddress, &o.PaymentMode, &o.Status, &o.OrderDate, &o.UpdatedAt)
	return o, err
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*entity.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1 AND order_date > $2", id, r.cutoff()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order %s: %w", id, err)
	}

	orders := []entity.Order{o}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *orderRepository) FindByUser(ctx context.Context, userID string) ([]entity.Order, error) {
	return r.query(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = $1 AND order_date > $2 ORDER BY order_date DESC",
		userID, r.cutoff())
}

func (r *orderRepository) FindRecent(ctx context.Context, limit int) ([]entity.Order, error) {
	return r.query(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE order_date > $1 ORDER BY order_date DESC LIMIT $2",
		r.cutoff(), limit)
}

func (r *orderRepository) query(ctx context.Context, q string, args ...any) ([]entity.Order, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []entity.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}

	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// loadItems fetches the items of all given orders in one query.
func (r *orderRepository) loadItems(ctx context.Context, orders []entity.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Items = []entity.OrderItem{}
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT order_id, product_id, name, price, quantity FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, position",
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			item    entity.OrderItem
		)
		if err := rows.Scan(&orderID, &item.ProductID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		i := index[orderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	return rows.Err()
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, from, to entity.OrderStatus) error {
	cutoff := r.cutoff()
	res, err := r.db.ExecContext(ctx,
		"UPDATE orders SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2 AND order_date > $5",
		id, from, to, time.Now(), cutoff,
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1 AND order_date > $2)", id, cutoff).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check order %s: %w", id, err)
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

type checkout struct {
	db     *sql.DB
	orders *orderRepository
	carts  *cartRepository
}

// PlaceOrder inserts the order and overwrites the cart in one transaction.
func (c *checkout) PlaceOrder(ctx context.Context, o *entity.Order, cart *entity.Cart) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := c.orders.insert(ctx, tx, o); err != nil {
		return err
	}
	if err := c.carts.save(ctx, tx, cart); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
