// Package register models the daily cash register a POS terminal operates
// against. Sales, stock adjustments, and credit changes all require an open
// register so every movement of money is attributable to a shift.
package register

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/zorpido/pos/internal/domain/order"
)

// Errors surfaced to POS terminals verbatim.
var (
	ErrNoOpenRegister = errors.New("No open register. Please open a register first.")
	ErrAlreadyOpen    = errors.New("A register is already open")
)

// Register is one shift's cash drawer with per-payment-method totals.
type Register struct {
	ID             int64
	OpenedAt       time.Time
	OpeningBalance decimal.Decimal

	CashTotal   decimal.Decimal
	CreditTotal decimal.Decimal
	QRTotal     decimal.Decimal

	ClosedAt       *time.Time
	ClosingBalance decimal.Decimal
	IsOpen         bool
}

// Repository defines persistence operations for registers.
type Repository interface {
	// Open persists a new open register and fills in its ID.
	Open(ctx context.Context, r *Register) error
	// Active returns the currently open register, or ErrNoOpenRegister.
	Active(ctx context.Context) (*Register, error)
	Update(ctx context.Context, r *Register) error
}

// Service manages register shifts.
type Service struct {
	repo Repository
}

// NewService creates a register Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Open starts a new shift. Only one register may be open at a time.
func (s *Service) Open(ctx context.Context, openingBalance decimal.Decimal) (*Register, error) {
	if _, err := s.repo.Active(ctx); err == nil {
		return nil, ErrAlreadyOpen
	} else if !errors.Is(err, ErrNoOpenRegister) {
		return nil, err
	}

	r := &Register{
		OpenedAt:       time.Now(),
		OpeningBalance: openingBalance,
		IsOpen:         true,
	}
	if err := s.repo.Open(ctx, r); err != nil {
		return nil, errors.Wrap(err, "open register")
	}
	return r, nil
}

// Close ends the current shift. The closing balance is the opening balance
// plus all recorded sales.
func (s *Service) Close(ctx context.Context) (*Register, error) {
	r, err := s.repo.Active(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	r.ClosedAt = &now
	r.ClosingBalance = r.OpeningBalance.Add(r.CashTotal).Add(r.CreditTotal).Add(r.QRTotal)
	r.IsOpen = false

	if err := s.repo.Update(ctx, r); err != nil {
		return nil, errors.Wrap(err, "close register")
	}
	return r, nil
}

// RequireOpen fails with ErrNoOpenRegister unless a register is open.
func (s *Service) RequireOpen(ctx context.Context) error {
	_, err := s.repo.Active(ctx)
	return err
}

// RecordSale adds a completed payment to the open register's totals.
func (s *Service) RecordSale(ctx context.Context, method order.PaymentMethod, amount decimal.Decimal) error {
	r, err := s.repo.Active(ctx)
	if err != nil {
		return err
	}

	switch method {
	case order.PayCash:
		r.CashTotal = r.CashTotal.Add(amount)
	case order.PayCredit:
		r.CreditTotal = r.CreditTotal.Add(amount)
	case order.PayQR:
		r.QRTotal = r.QRTotal.Add(amount)
	}

	return s.repo.Update(ctx, r)
}
