package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zorpido/pos/internal/domain/credit"
)

const saveCreditTransactionSQL = `INSERT INTO credit_transactions (customer_id, action, amount, balance_after, note, created_at)
	VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

var _ credit.Repository = (*CreditRepository)(nil)

// CreditRepository implements credit.Repository backed by PostgreSQL.
type CreditRepository struct {
	pool *pgxpool.Pool
}

// NewCreditRepository returns a CreditRepository that uses the given pool.
func NewCreditRepository(pool *pgxpool.Pool) *CreditRepository {
	return &CreditRepository{pool: pool}
}

// SaveTransaction appends one ledger entry and fills in its ID.
func (r *CreditRepository) SaveTransaction(ctx context.Context, tx *credit.Transaction) error {
	err := r.pool.QueryRow(ctx, saveCreditTransactionSQL,
		tx.CustomerID, tx.Action, tx.Amount, tx.BalanceAfter, tx.Note, tx.CreatedAt,
	).Scan(&tx.ID)
	if err != nil {
		return fmt.Errorf("saving credit transaction: %w", err)
	}
	return nil
}

// History returns the customer's ledger entries newest first, bounded by the
// filter's date range and limit.
func (r *CreditRepository) History(ctx context.Context, customerID int64, f credit.HistoryFilter) ([]credit.Transaction, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT id, customer_id, action, amount, balance_after, note, created_at
		FROM credit_transactions WHERE customer_id = $1`)
	args = append(args, customerID)

	if f.From != nil {
		args = append(args, *f.From)
		fmt.Fprintf(&sb, " AND created_at >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		fmt.Fprintf(&sb, " AND created_at <= $%d", len(args))
	}

	args = append(args, f.Limit)
	fmt.Fprintf(&sb, " ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("listing credit history for customer %d: %w", customerID, err)
	}
	return pgx.CollectRows(rows, scanCreditTransaction)
}

func scanCreditTransaction(row pgx.CollectableRow) (credit.Transaction, error) {
	var tx credit.Transaction
	err := row.Scan(
		&tx.ID, &tx.CustomerID, &tx.Action,
		&tx.Amount, &tx.BalanceAfter, &tx.Note, &tx.CreatedAt,
	)
	return tx, err
}
