package repository

import (
	"context"
	"fmt"

	"matka/database"
	"matka/domain/entities"

	"github.com/jackc/pgx/v5"
)

const withdrawalColumns = `id, user_id, amount, status, bank_details, created_at, processed_at`

// WithdrawalRepository implements withdrawal request persistence
type WithdrawalRepository struct {
	q Queryable
}

// NewWithdrawalRepository creates a new withdrawal repository
func NewWithdrawalRepository(db *database.DB) *WithdrawalRepository {
	return &WithdrawalRepository{q: db.Pool}
}

// newWithdrawalRepository creates a withdrawal repository scoped to a transaction
func newWithdrawalRepository(tx Queryable) *WithdrawalRepository {
	return &WithdrawalRepository{q: tx}
}

// Create inserts a pending withdrawal request
func (r *WithdrawalRepository) Create(ctx context.Context, req *entities.WithdrawalRequest) error {
	query := `
		INSERT INTO withdrawal_requests (user_id, amount, status, bank_details)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, req.UserID, req.Amount, entities.WithdrawalStatusPending, req.BankDetails).
		Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create withdrawal request for user %d: %w", req.UserID, err)
	}
	req.Status = entities.WithdrawalStatusPending

	return nil
}

// GetByIDForUpdate retrieves a request with the row locked for the transaction
func (r *WithdrawalRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.WithdrawalRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM withdrawal_requests WHERE id = $1 FOR UPDATE`, withdrawalColumns)

	var req entities.WithdrawalRequest
	err := r.q.QueryRow(ctx, query, id).Scan(
		&req.ID, &req.UserID, &req.Amount, &req.Status,
		&req.BankDetails, &req.CreatedAt, &req.ProcessedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock withdrawal request %d: %w", id, err)
	}
	return &req, nil
}

// GetByUser returns a user's withdrawal requests, newest first
func (r *WithdrawalRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*entities.WithdrawalRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM withdrawal_requests
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, withdrawalColumns)

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal requests for user %d: %w", userID, err)
	}
	defer rows.Close()

	return scanWithdrawals(rows)
}

// GetPending returns all pending requests, oldest first
func (r *WithdrawalRepository) GetPending(ctx context.Context) ([]*entities.WithdrawalRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM withdrawal_requests
		WHERE status = 'pending'
		ORDER BY created_at, id
	`, withdrawalColumns)

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending withdrawal requests: %w", err)
	}
	defer rows.Close()

	return scanWithdrawals(rows)
}

// Update persists status and processing timestamp changes
func (r *WithdrawalRepository) Update(ctx context.Context, req *entities.WithdrawalRequest) error {
	query := `
		UPDATE withdrawal_requests
		SET status = $1, processed_at = $2
		WHERE id = $3
	`

	tag, err := r.q.Exec(ctx, query, req.Status, req.ProcessedAt, req.ID)
	if err != nil {
		return fmt.Errorf("failed to update withdrawal request %d: %w", req.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return entities.ErrWithdrawalNotFound
	}
	return nil
}

func scanWithdrawals(rows pgx.Rows) ([]*entities.WithdrawalRequest, error) {
	var reqs []*entities.WithdrawalRequest
	for rows.Next() {
		var req entities.WithdrawalRequest
		err := rows.Scan(
			&req.ID,
			&req.UserID,
			&req.Amount,
			&req.Status,
			&req.BankDetails,
			&req.CreatedAt,
			&req.ProcessedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal request: %w", err)
		}
		reqs = append(reqs, &req)
	}

	return reqs, rows.Err()
}
