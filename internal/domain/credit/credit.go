// Package credit maintains the customer credit ledger. Every balance change
// is recorded as a transaction carrying the balance after the change, so the
// ledger alone reconstructs any historical balance.
package credit

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Action enumerates ledger entry kinds.
type Action string

const (
	ActionAdd     Action = "add"
	ActionDeduct  Action = "deduct"
	ActionPayment Action = "payment"
)

// Display returns the label shown in the credit history UI.
func (a Action) Display() string {
	switch a {
	case ActionAdd:
		return "Add"
	case ActionDeduct:
		return "Deduct"
	case ActionPayment:
		return "Payment (order)"
	}
	return string(a)
}

// Validation errors surfaced to POS terminals verbatim.
var (
	ErrInvalidAction       = errors.New("Invalid action")
	ErrAmountNotPositive   = errors.New("Amount must be positive")
	ErrInsufficientBalance = errors.New("Insufficient balance")
)

// Transaction is one credit ledger entry.
type Transaction struct {
	ID           int64
	CustomerID   int64
	Action       Action
	Amount       decimal.Decimal
	BalanceAfter decimal.Decimal
	Note         string
	CreatedAt    time.Time
}

// HistoryFilter bounds a ledger query by creation date (inclusive).
type HistoryFilter struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

// Repository defines persistence operations for the credit ledger.
type Repository interface {
	SaveTransaction(ctx context.Context, tx *Transaction) error
	History(ctx context.Context, customerID int64, f HistoryFilter) ([]Transaction, error)
}
