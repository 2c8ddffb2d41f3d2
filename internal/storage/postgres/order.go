package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zorpido/pos/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (order_number, customer_id, order_type, status, items,
		subtotal, discount, delivery_fee, total, payment_method, payment_status, paid_amount,
		created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`

	getOrderByIDSQL = `SELECT id, order_number, customer_id, order_type, status, items,
		subtotal, discount, delivery_fee, total, payment_method, payment_status, paid_amount,
		created_at, completed_at
		FROM orders WHERE id = $1`

	updateOrderSQL = `UPDATE orders
		SET status = $2, items = $3, subtotal = $4, discount = $5, delivery_fee = $6, total = $7,
		    payment_method = $8, payment_status = $9, paid_amount = $10, completed_at = $11
		WHERE id = $1`

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Order
// lines are serialized to a JSONB column; they are frozen at order time and
// never queried relationally.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order and fills in its ID.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	err = r.pool.QueryRow(ctx, createOrderSQL,
		o.OrderNumber, o.CustomerID, o.Type, o.Status, itemsJSON,
		o.Subtotal, o.Discount, o.DeliveryFee, o.Total,
		nullableString(string(o.PaymentMethod)), o.PaymentStatus, o.PaidAmount,
		o.CreatedAt, o.CompletedAt,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.OrderNumber, err)
	}

	return nil
}

// GetByID returns a single order by its identifier.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}
	return &o, nil
}

// Update persists the order's mutable fields.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	tag, err := r.pool.Exec(ctx, updateOrderSQL,
		o.ID, o.Status, itemsJSON,
		o.Subtotal, o.Discount, o.DeliveryFee, o.Total,
		nullableString(string(o.PaymentMethod)), o.PaymentStatus, o.PaidAmount,
		o.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("updating order %d: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// Delete removes the order row.
func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteOrderSQL, id)
	if err != nil {
		return fmt.Errorf("deleting order %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o         order.Order
		itemsJSON []byte
		method    *string
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.Type, &o.Status, &itemsJSON,
		&o.Subtotal, &o.Discount, &o.DeliveryFee, &o.Total,
		&method, &o.PaymentStatus, &o.PaidAmount,
		&o.CreatedAt, &o.CompletedAt,
	)
	if err != nil {
		return o, err
	}
	if method != nil {
		o.PaymentMethod = order.PaymentMethod(*method)
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling order items: %w", err)
	}
	return o, nil
}

// nullableString maps the empty string to NULL.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
