package repository

import (
	"context"
	"fmt"

	"matka/database"
	"matka/domain/entities"

	"github.com/jackc/pgx/v5"
)

// TransactionRepository implements the append-only wallet ledger
type TransactionRepository struct {
	q Queryable
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

// newTransactionRepository creates a transaction repository scoped to a transaction
func newTransactionRepository(tx Queryable) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

// Record appends a ledger entry
func (r *TransactionRepository) Record(ctx context.Context, txn *entities.Transaction) error {
	if err := txn.Validate(); err != nil {
		return fmt.Errorf("invalid transaction: %w", err)
	}

	query := `
		INSERT INTO transactions (user_id, transaction_type, amount, balance_before, balance_after, description, reference_id, reference_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		txn.UserID,
		txn.TransactionType,
		txn.Amount,
		txn.BalanceBefore,
		txn.BalanceAfter,
		txn.Description,
		txn.ReferenceID,
		txn.ReferenceType,
	).Scan(&txn.ID, &txn.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record transaction for user %d: %w", txn.UserID, err)
	}

	return nil
}

const transactionColumns = `id, user_id, transaction_type, amount, balance_before, balance_after, description, reference_id, reference_type, created_at`

// GetByUser returns a user's ledger entries, newest first
func (r *TransactionRepository) GetByUser(ctx context.Context, userID int64, limit, offset int) ([]*entities.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, transactionColumns)

	rows, err := r.q.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for user %d: %w", userID, err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetByType returns a user's ledger entries of one type, newest first
func (r *TransactionRepository) GetByType(ctx context.Context, userID int64, tt entities.TransactionType, limit int) ([]*entities.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE user_id = $1 AND transaction_type = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, transactionColumns)

	rows, err := r.q.Query(ctx, query, userID, tt, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s transactions for user %d: %w", tt, userID, err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows pgx.Rows) ([]*entities.Transaction, error) {
	var txns []*entities.Transaction
	for rows.Next() {
		var txn entities.Transaction
		err := rows.Scan(
			&txn.ID,
			&txn.UserID,
			&txn.TransactionType,
			&txn.Amount,
			&txn.BalanceBefore,
			&txn.BalanceAfter,
			&txn.Description,
			&txn.ReferenceID,
			&txn.ReferenceType,
			&txn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, &txn)
	}

	return txns, rows.Err()
}

// GetSummary aggregates a user's ledger by transaction type
func (r *TransactionRepository) GetSummary(ctx context.Context, userID int64) (*entities.TransactionSummary, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(amount) FILTER (WHERE transaction_type = 'deposit'), 0),
			COALESCE(SUM(amount) FILTER (WHERE transaction_type = 'withdrawal'), 0),
			COALESCE(SUM(amount) FILTER (WHERE transaction_type = 'bet'), 0),
			COALESCE(SUM(amount) FILTER (WHERE transaction_type = 'win'), 0)
		FROM transactions
		WHERE user_id = $1
	`

	var summary entities.TransactionSummary
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&summary.TotalTransactions,
		&summary.TotalDeposits,
		&summary.TotalWithdrawals,
		&summary.TotalBets,
		&summary.TotalWinnings,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction summary for user %d: %w", userID, err)
	}

	return &summary, nil
}
