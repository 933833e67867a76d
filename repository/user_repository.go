package repository

import (
	"context"
	"fmt"

	"matka/database"
	"matka/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const userColumns = `id, phone, name, balance, winning_balance, held_withdrawal_balance, is_active, created_at, updated_at`

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q Queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepository creates a user repository scoped to a transaction
func newUserRepository(tx Queryable) *UserRepository {
	return &UserRepository{q: tx}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var user entities.User
	err := row.Scan(
		&user.ID,
		&user.Phone,
		&user.Name,
		&user.Balance,
		&user.WinningBalance,
		&user.HeldWithdrawalBalance,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by their ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

// GetByIDForUpdate retrieves a user with the row locked for the transaction
func (r *UserRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 FOR UPDATE`, userColumns)

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %d: %w", id, err)
	}
	return user, nil
}

// Create creates a new user with zero balances
func (r *UserRepository) Create(ctx context.Context, phone, name string) (*entities.User, error) {
	query := fmt.Sprintf(`
		INSERT INTO users (phone, name)
		VALUES ($1, $2)
		RETURNING %s
	`, userColumns)

	user, err := scanUser(r.q.QueryRow(ctx, query, phone, name))
	if err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", phone, err)
	}
	return user, nil
}

// DebitBalanceChecked atomically checks and decrements the wagerable balance.
// The sufficiency condition sits in the WHERE clause, so two concurrent
// debits can never both pass the check against the same funds.
func (r *UserRepository) DebitBalanceChecked(ctx context.Context, userID int64, amount decimal.Decimal) (*entities.BalanceChange, error) {
	query := `
		UPDATE users
		SET balance = balance - $1, updated_at = NOW()
		WHERE id = $2 AND balance >= $1 AND is_active
		RETURNING balance
	`

	var after decimal.Decimal
	err := r.q.QueryRow(ctx, query, amount, userID).Scan(&after)
	if err == pgx.ErrNoRows {
		// Either the user is missing/inactive or the balance is short.
		user, lookupErr := r.GetByID(ctx, userID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if user == nil || !user.IsActive {
			return nil, entities.ErrUserNotFound
		}
		return nil, entities.ErrInsufficientBalance
	}
	if err != nil {
		return nil, fmt.Errorf("failed to debit balance for user %d: %w", userID, err)
	}

	return &entities.BalanceChange{
		Field:  entities.FieldBalance,
		Before: after.Add(amount),
		After:  after,
	}, nil
}

// Credit unconditionally increases the named balance field
func (r *UserRepository) Credit(ctx context.Context, userID int64, field entities.BalanceField, amount decimal.Decimal) (*entities.BalanceChange, error) {
	return r.adjust(ctx, userID, field, amount)
}

// Debit unconditionally decreases the named balance field
func (r *UserRepository) Debit(ctx context.Context, userID int64, field entities.BalanceField, amount decimal.Decimal) (*entities.BalanceChange, error) {
	return r.adjust(ctx, userID, field, amount.Neg())
}

func (r *UserRepository) adjust(ctx context.Context, userID int64, field entities.BalanceField, delta decimal.Decimal) (*entities.BalanceChange, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("unknown balance field %q", field)
	}

	// The field name is validated against the closed BalanceField set above,
	// never taken from external input.
	query := fmt.Sprintf(`
		UPDATE users
		SET %s = %s + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING %s
	`, field, field, field)

	var after decimal.Decimal
	err := r.q.QueryRow(ctx, query, delta, userID).Scan(&after)
	if err == pgx.ErrNoRows {
		return nil, entities.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to adjust %s for user %d: %w", field, userID, err)
	}

	return &entities.BalanceChange{
		Field:  field,
		Before: after.Sub(delta),
		After:  after,
	}, nil
}

// GetAll returns users ordered by creation time, newest first
func (r *UserRepository) GetAll(ctx context.Context, limit, offset int) ([]*entities.User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, userColumns)

	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	var users []*entities.User
	for rows.Next() {
		var user entities.User
		err := rows.Scan(
			&user.ID,
			&user.Phone,
			&user.Name,
			&user.Balance,
			&user.WinningBalance,
			&user.HeldWithdrawalBalance,
			&user.IsActive,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}

	return users, rows.Err()
}
