package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/zorpido/pos/internal/domain/customer"
)

const (
	getCustomerByIDSQL = `SELECT id, name, phone, credit_balance FROM customers WHERE id = $1`

	listCustomersSQL = `SELECT id, name, phone, credit_balance FROM customers ORDER BY name`

	updateCreditBalanceSQL = `UPDATE customers SET credit_balance = $2 WHERE id = $1`

	upsertCustomerSQL = `INSERT INTO customers (name, phone, credit_balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (phone) WHERE phone <> '' DO UPDATE SET name = EXCLUDED.name
		RETURNING id`
)

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository backed by PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// GetByID returns a single customer by its identifier.
func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*customer.Customer, error) {
	rows, err := r.pool.Query(ctx, getCustomerByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting customer %d: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("getting customer %d: %w", id, err)
	}
	return &c, nil
}

// List returns all customers ordered by name.
func (r *CustomerRepository) List(ctx context.Context) ([]customer.Customer, error) {
	rows, err := r.pool.Query(ctx, listCustomersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	return pgx.CollectRows(rows, scanCustomer)
}

// UpdateCreditBalance sets the customer's stored credit balance.
func (r *CustomerRepository) UpdateCreditBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	tag, err := r.pool.Exec(ctx, updateCreditBalanceSQL, id, balance)
	if err != nil {
		return fmt.Errorf("updating credit balance for customer %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return customer.ErrNotFound
	}
	return nil
}

// Upsert inserts a customer keyed by phone number. An existing customer keeps
// their credit balance; only the name is refreshed.
func (r *CustomerRepository) Upsert(ctx context.Context, c *customer.Customer) error {
	err := r.pool.QueryRow(ctx, upsertCustomerSQL, c.Name, c.Phone, c.CreditBalance).Scan(&c.ID)
	if err != nil {
		return errors.Wrap(err, "upsert customer")
	}

	return nil
}

func scanCustomer(row pgx.CollectableRow) (customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.CreditBalance)
	return c, err
}
