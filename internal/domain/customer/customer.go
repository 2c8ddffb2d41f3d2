// Package customer defines registered POS customers and their stored credit.
package customer

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested customer does not exist.
var ErrNotFound = errors.New("customer not found")

// Customer is a registered restaurant customer with a prepaid credit balance.
type Customer struct {
	ID            int64
	Name          string
	Phone         string
	CreditBalance decimal.Decimal
}

// Repository defines persistence operations for customers.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Customer, error)
	List(ctx context.Context) ([]Customer, error)
	UpdateCreditBalance(ctx context.Context, id int64, balance decimal.Decimal) error
}
