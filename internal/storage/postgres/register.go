package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zorpido/pos/internal/domain/register"
)

const (
	openRegisterSQL = `INSERT INTO registers (opened_at, opening_balance, cash_total, credit_total, qr_total, is_open)
		VALUES ($1, $2, $3, $4, $5, TRUE) RETURNING id`

	activeRegisterSQL = `SELECT id, opened_at, opening_balance, cash_total, credit_total, qr_total,
		closed_at, closing_balance, is_open
		FROM registers WHERE is_open ORDER BY opened_at DESC LIMIT 1`

	updateRegisterSQL = `UPDATE registers
		SET cash_total = $2, credit_total = $3, qr_total = $4,
		    closed_at = $5, closing_balance = $6, is_open = $7
		WHERE id = $1`
)

var _ register.Repository = (*RegisterRepository)(nil)

// RegisterRepository implements register.Repository backed by PostgreSQL.
type RegisterRepository struct {
	pool *pgxpool.Pool
}

// NewRegisterRepository returns a RegisterRepository that uses the given pool.
func NewRegisterRepository(pool *pgxpool.Pool) *RegisterRepository {
	return &RegisterRepository{pool: pool}
}

// Open persists a new open register and fills in its ID.
func (r *RegisterRepository) Open(ctx context.Context, reg *register.Register) error {
	err := r.pool.QueryRow(ctx, openRegisterSQL,
		reg.OpenedAt, reg.OpeningBalance,
		reg.CashTotal, reg.CreditTotal, reg.QRTotal,
	).Scan(&reg.ID)
	if err != nil {
		return fmt.Errorf("opening register: %w", err)
	}
	return nil
}

// Active returns the currently open register.
func (r *RegisterRepository) Active(ctx context.Context) (*register.Register, error) {
	rows, err := r.pool.Query(ctx, activeRegisterSQL)
	if err != nil {
		return nil, fmt.Errorf("getting active register: %w", err)
	}

	reg, err := pgx.CollectExactlyOneRow(rows, scanRegister)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, register.ErrNoOpenRegister
		}
		return nil, fmt.Errorf("getting active register: %w", err)
	}
	return &reg, nil
}

// Update persists the register's totals and closing state.
func (r *RegisterRepository) Update(ctx context.Context, reg *register.Register) error {
	tag, err := r.pool.Exec(ctx, updateRegisterSQL,
		reg.ID, reg.CashTotal, reg.CreditTotal, reg.QRTotal,
		reg.ClosedAt, reg.ClosingBalance, reg.IsOpen,
	)
	if err != nil {
		return fmt.Errorf("updating register %d: %w", reg.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return register.ErrNoOpenRegister
	}
	return nil
}

func scanRegister(row pgx.CollectableRow) (register.Register, error) {
	var reg register.Register
	err := row.Scan(
		&reg.ID, &reg.OpenedAt, &reg.OpeningBalance,
		&reg.CashTotal, &reg.CreditTotal, &reg.QRTotal,
		&reg.ClosedAt, &reg.ClosingBalance, &reg.IsOpen,
	)
	return reg, err
}
