package credit

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/zorpido/pos/internal/domain/customer"
)

// historyCap bounds a single history response.
const historyCap = 200

// Service applies manual credit adjustments and order payments against
// customer balances, recording every change in the ledger.
type Service struct {
	customers customer.Repository
	ledger    Repository
}

// NewService creates a credit Service.
func NewService(customers customer.Repository, ledger Repository) *Service {
	return &Service{customers: customers, ledger: ledger}
}

// Update applies a manual add or deduct to the customer's balance and records
// the ledger entry. It returns the balance after the change.
func (s *Service) Update(ctx context.Context, customerID int64, action Action, amount decimal.Decimal) (decimal.Decimal, error) {
	if action != ActionAdd && action != ActionDeduct {
		return decimal.Zero, ErrInvalidAction
	}
	if !amount.IsPositive() {
		return decimal.Zero, ErrAmountNotPositive
	}

	cust, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		return decimal.Zero, err
	}

	var balance decimal.Decimal
	var note string
	switch action {
	case ActionAdd:
		balance = cust.CreditBalance.Add(amount)
		note = "Manual adjustment"
	case ActionDeduct:
		if cust.CreditBalance.LessThan(amount) {
			return decimal.Zero, ErrInsufficientBalance
		}
		balance = cust.CreditBalance.Sub(amount)
		note = "Manual deduction"
	}

	if err := s.customers.UpdateCreditBalance(ctx, customerID, balance); err != nil {
		return decimal.Zero, errors.Wrap(err, "update balance")
	}

	if err := s.ledger.SaveTransaction(ctx, &Transaction{
		CustomerID:   customerID,
		Action:       action,
		Amount:       amount,
		BalanceAfter: balance,
		Note:         note,
		CreatedAt:    time.Now(),
	}); err != nil {
		return decimal.Zero, errors.Wrap(err, "record transaction")
	}

	return balance, nil
}

// Charge deducts an order payment from the customer's balance and records a
// payment ledger entry. The note typically carries the order number.
func (s *Service) Charge(ctx context.Context, customerID int64, amount decimal.Decimal, note string) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrAmountNotPositive
	}

	cust, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		return decimal.Zero, err
	}
	if cust.CreditBalance.LessThan(amount) {
		return decimal.Zero, ErrInsufficientBalance
	}

	balance := cust.CreditBalance.Sub(amount)
	if err := s.customers.UpdateCreditBalance(ctx, customerID, balance); err != nil {
		return decimal.Zero, errors.Wrap(err, "update balance")
	}

	if err := s.ledger.SaveTransaction(ctx, &Transaction{
		CustomerID:   customerID,
		Action:       ActionPayment,
		Amount:       amount,
		BalanceAfter: balance,
		Note:         note,
		CreatedAt:    time.Now(),
	}); err != nil {
		return decimal.Zero, errors.Wrap(err, "record transaction")
	}

	return balance, nil
}

// History returns the customer's ledger entries, newest first, optionally
// bounded by date and always capped.
func (s *Service) History(ctx context.Context, customerID int64, f HistoryFilter) ([]Transaction, error) {
	if _, err := s.customers.GetByID(ctx, customerID); err != nil {
		return nil, err
	}
	if f.Limit <= 0 || f.Limit > historyCap {
		f.Limit = historyCap
	}
	return s.ledger.History(ctx, customerID, f)
}
