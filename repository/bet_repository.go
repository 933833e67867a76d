package repository

import (
	"context"
	"fmt"

	"matka/database"
	"matka/domain/entities"

	"github.com/jackc/pgx/v5"
)

const betColumns = `id, user_id, game_session_id, bet_type, bet_number, bet_amount, payout_multiplier, status, payout_amount, created_at`

// BetRepository implements bet persistence
type BetRepository struct {
	q Queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

// newBetRepository creates a bet repository scoped to a transaction
func newBetRepository(tx Queryable) *BetRepository {
	return &BetRepository{q: tx}
}

// CreateBatch inserts all bets as pending in a single batch insert
func (r *BetRepository) CreateBatch(ctx context.Context, bets []*entities.Bet) error {
	if len(bets) == 0 {
		return nil
	}

	query := `
		INSERT INTO bets (user_id, game_session_id, bet_type, bet_number, bet_amount, payout_multiplier, status)
		VALUES `

	values := make([]interface{}, 0, len(bets)*7)
	for i, bet := range bets {
		if i > 0 {
			query += ", "
		}
		paramOffset := i * 7
		query += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			paramOffset+1, paramOffset+2, paramOffset+3, paramOffset+4, paramOffset+5, paramOffset+6, paramOffset+7)
		values = append(values, bet.UserID, bet.GameSessionID, bet.BetType,
			bet.BetNumber, bet.BetAmount, bet.PayoutMultiplier, entities.BetStatusPending)
	}
	query += " RETURNING id, created_at"

	rows, err := r.q.Query(ctx, query, values...)
	if err != nil {
		return fmt.Errorf("failed to batch create bets: %w", err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if err := rows.Scan(&bets[i].ID, &bets[i].CreatedAt); err != nil {
			return fmt.Errorf("failed to scan bet result: %w", err)
		}
		bets[i].Status = entities.BetStatusPending
		i++
	}

	return rows.Err()
}

// GetByID retrieves a bet by its ID
func (r *BetRepository) GetByID(ctx context.Context, id int64) (*entities.Bet, error) {
	query := fmt.Sprintf(`SELECT %s FROM bets WHERE id = $1`, betColumns)

	var bet entities.Bet
	err := r.q.QueryRow(ctx, query, id).Scan(
		&bet.ID, &bet.UserID, &bet.GameSessionID, &bet.BetType, &bet.BetNumber,
		&bet.BetAmount, &bet.PayoutMultiplier, &bet.Status, &bet.PayoutAmount, &bet.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet %d: %w", id, err)
	}
	return &bet, nil
}

// GetPendingBySession returns all pending bets for a session
func (r *BetRepository) GetPendingBySession(ctx context.Context, sessionID int64) ([]*entities.Bet, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bets
		WHERE game_session_id = $1 AND status = 'pending'
		ORDER BY id
	`, betColumns)

	rows, err := r.q.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending bets for session %d: %w", sessionID, err)
	}
	defer rows.Close()

	return scanBets(rows)
}

// GetWinningBySession returns all bets currently marked win for a session
func (r *BetRepository) GetWinningBySession(ctx context.Context, sessionID int64) ([]*entities.Bet, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bets
		WHERE game_session_id = $1 AND status = 'win'
		ORDER BY id
	`, betColumns)

	rows, err := r.q.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get winning bets for session %d: %w", sessionID, err)
	}
	defer rows.Close()

	return scanBets(rows)
}

// UpdateStatuses moves all named bets to the target status in one statement
func (r *BetRepository) UpdateStatuses(ctx context.Context, betIDs []int64, status entities.BetStatus) error {
	if len(betIDs) == 0 {
		return nil
	}

	query := `UPDATE bets SET status = $1 WHERE id = ANY($2)`

	tag, err := r.q.Exec(ctx, query, status, betIDs)
	if err != nil {
		return fmt.Errorf("failed to update bet statuses: %w", err)
	}
	if int(tag.RowsAffected()) != len(betIDs) {
		return fmt.Errorf("expected to update %d bets, updated %d", len(betIDs), tag.RowsAffected())
	}

	return nil
}

// MarkWins marks each bet win and stores its payout amount
func (r *BetRepository) MarkWins(ctx context.Context, bets []*entities.Bet) error {
	if len(bets) == 0 {
		return nil
	}

	// unnest pairs ids with payouts so the whole batch is one statement.
	query := `
		UPDATE bets SET status = 'win', payout_amount = v.payout
		FROM (SELECT unnest($1::bigint[]) AS id, unnest($2::numeric[]) AS payout) v
		WHERE bets.id = v.id
	`

	ids := make([]int64, len(bets))
	payouts := make([]string, len(bets))
	for i, bet := range bets {
		ids[i] = bet.ID
		payouts[i] = bet.PayoutAmount.String()
	}

	tag, err := r.q.Exec(ctx, query, ids, payouts)
	if err != nil {
		return fmt.Errorf("failed to mark winning bets: %w", err)
	}
	if int(tag.RowsAffected()) != len(bets) {
		return fmt.Errorf("expected to mark %d wins, updated %d", len(bets), tag.RowsAffected())
	}

	return nil
}

// ResetForSession returns every bet in the session to pending with zero payout
func (r *BetRepository) ResetForSession(ctx context.Context, sessionID int64) error {
	query := `
		UPDATE bets SET status = 'pending', payout_amount = 0
		WHERE game_session_id = $1
	`

	if _, err := r.q.Exec(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to reset bets for session %d: %w", sessionID, err)
	}
	return nil
}

// GetByUser returns a user's bets, newest first
func (r *BetRepository) GetByUser(ctx context.Context, userID int64, limit, offset int) ([]*entities.Bet, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bets
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, betColumns)

	rows, err := r.q.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for user %d: %w", userID, err)
	}
	defer rows.Close()

	return scanBets(rows)
}

// GetBySession returns a session's bets, optionally filtered by status
func (r *BetRepository) GetBySession(ctx context.Context, sessionID int64, status *entities.BetStatus) ([]*entities.Bet, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bets
		WHERE game_session_id = $1 AND ($2::varchar IS NULL OR status = $2)
		ORDER BY id
	`, betColumns)

	rows, err := r.q.Query(ctx, query, sessionID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for session %d: %w", sessionID, err)
	}
	defer rows.Close()

	return scanBets(rows)
}

// GetStats returns betting statistics for a user
func (r *BetRepository) GetStats(ctx context.Context, userID int64) (*entities.BetStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'win'),
			COUNT(*) FILTER (WHERE status = 'loss'),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COALESCE(SUM(bet_amount), 0),
			COALESCE(SUM(payout_amount) FILTER (WHERE status = 'win'), 0)
		FROM bets
		WHERE user_id = $1
	`

	var stats entities.BetStats
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&stats.TotalBets,
		&stats.TotalWins,
		&stats.TotalLosses,
		&stats.PendingBets,
		&stats.TotalBetAmount,
		&stats.TotalWinnings,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet stats for user %d: %w", userID, err)
	}

	return &stats, nil
}

func scanBets(rows pgx.Rows) ([]*entities.Bet, error) {
	var bets []*entities.Bet
	for rows.Next() {
		var bet entities.Bet
		err := rows.Scan(
			&bet.ID,
			&bet.UserID,
			&bet.GameSessionID,
			&bet.BetType,
			&bet.BetNumber,
			&bet.BetAmount,
			&bet.PayoutMultiplier,
			&bet.Status,
			&bet.PayoutAmount,
			&bet.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, &bet)
	}

	return bets, rows.Err()
}
