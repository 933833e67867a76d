package repository

import (
	"context"
	"fmt"
	"time"

	"matka/database"
	"matka/domain/entities"
	"matka/domain/interfaces"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const sessionColumns = `id, game_id, session_date, status, winning_number, scheduled_winning_number, is_scheduled, result_declared_at, created_at`

// GameSessionRepository implements per-day session persistence
type GameSessionRepository struct {
	q Queryable
}

// NewGameSessionRepository creates a new game session repository
func NewGameSessionRepository(db *database.DB) *GameSessionRepository {
	return &GameSessionRepository{q: db.Pool}
}

// newGameSessionRepository creates a session repository scoped to a transaction
func newGameSessionRepository(tx Queryable) *GameSessionRepository {
	return &GameSessionRepository{q: tx}
}

func scanSession(row pgx.Row) (*entities.GameSession, error) {
	var session entities.GameSession
	err := row.Scan(
		&session.ID,
		&session.GameID,
		&session.SessionDate,
		&session.Status,
		&session.WinningNumber,
		&session.ScheduledWinningNumber,
		&session.IsScheduled,
		&session.ResultDeclaredAt,
		&session.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetOrCreate maps (gameID, date) to exactly one session row. The insert
// defers to the unique constraint on conflict; when another transaction won
// the race, the fallback select returns its row.
func (r *GameSessionRepository) GetOrCreate(ctx context.Context, gameID int64, date time.Time) (*entities.GameSession, error) {
	sessionDate := pgtype.Date{Time: date, Valid: true}

	insertQuery := fmt.Sprintf(`
		INSERT INTO game_sessions (game_id, session_date)
		VALUES ($1, $2)
		ON CONFLICT (game_id, session_date) DO NOTHING
		RETURNING %s
	`, sessionColumns)

	session, err := scanSession(r.q.QueryRow(ctx, insertQuery, gameID, sessionDate))
	if err != nil {
		return nil, fmt.Errorf("failed to create session for game %d: %w", gameID, err)
	}
	if session != nil {
		return session, nil
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s FROM game_sessions
		WHERE game_id = $1 AND session_date = $2
	`, sessionColumns)

	session, err = scanSession(r.q.QueryRow(ctx, selectQuery, gameID, sessionDate))
	if err != nil {
		return nil, fmt.Errorf("failed to get session for game %d: %w", gameID, err)
	}
	if session == nil {
		return nil, fmt.Errorf("session for game %d on %s disappeared after conflict", gameID, date.Format("2006-01-02"))
	}
	return session, nil
}

// GetByID retrieves a session by its ID
func (r *GameSessionRepository) GetByID(ctx context.Context, id int64) (*entities.GameSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM game_sessions WHERE id = $1`, sessionColumns)

	session, err := scanSession(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get session %d: %w", id, err)
	}
	return session, nil
}

// GetByIDForUpdate retrieves a session with the row locked for the transaction
func (r *GameSessionRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.GameSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM game_sessions WHERE id = $1 FOR UPDATE`, sessionColumns)

	session, err := scanSession(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to lock session %d: %w", id, err)
	}
	return session, nil
}

// MarkCompleted transitions a pending session to completed. The status
// condition lives in the WHERE clause so a second declaration matches
// nothing instead of overwriting the first.
func (r *GameSessionRepository) MarkCompleted(ctx context.Context, sessionID int64, winningNumber string) (*entities.GameSession, error) {
	query := fmt.Sprintf(`
		UPDATE game_sessions
		SET status = 'completed', winning_number = $1, result_declared_at = NOW()
		WHERE id = $2 AND status = 'pending'
		RETURNING %s
	`, sessionColumns)

	session, err := scanSession(r.q.QueryRow(ctx, query, winningNumber, sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to complete session %d: %w", sessionID, err)
	}
	return session, nil
}

// SetScheduled stores a scheduled winning number on a pending session
func (r *GameSessionRepository) SetScheduled(ctx context.Context, sessionID int64, winningNumber string) (*entities.GameSession, error) {
	query := fmt.Sprintf(`
		UPDATE game_sessions
		SET scheduled_winning_number = $1, is_scheduled = TRUE
		WHERE id = $2 AND status = 'pending'
		RETURNING %s
	`, sessionColumns)

	session, err := scanSession(r.q.QueryRow(ctx, query, winningNumber, sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to schedule result for session %d: %w", sessionID, err)
	}
	return session, nil
}

// UpdateResult overwrites the winning number on a completed session
func (r *GameSessionRepository) UpdateResult(ctx context.Context, sessionID int64, winningNumber string) error {
	query := `
		UPDATE game_sessions
		SET winning_number = $1, result_declared_at = NOW()
		WHERE id = $2 AND status = 'completed'
	`

	tag, err := r.q.Exec(ctx, query, winningNumber, sessionID)
	if err != nil {
		return fmt.Errorf("failed to update result for session %d: %w", sessionID, err)
	}
	if tag.RowsAffected() == 0 {
		return entities.ErrSessionNotFound
	}
	return nil
}

// GetScheduledPending returns pending sessions carrying a scheduled number
// dated on or before the given date, joined with their games.
func (r *GameSessionRepository) GetScheduledPending(ctx context.Context, onOrBefore time.Time) ([]*interfaces.SessionWithGame, error) {
	query := `
		SELECT
			s.id, s.game_id, s.session_date, s.status, s.winning_number,
			s.scheduled_winning_number, s.is_scheduled, s.result_declared_at, s.created_at,
			g.id, g.name, g.open_time, g.close_time, g.is_active, g.created_at, g.updated_at
		FROM game_sessions s
		JOIN games g ON g.id = s.game_id
		WHERE s.status = 'pending' AND s.is_scheduled AND s.session_date <= $1
		ORDER BY s.session_date, s.id
	`

	rows, err := r.q.Query(ctx, query, pgtype.Date{Time: onOrBefore, Valid: true})
	if err != nil {
		return nil, fmt.Errorf("failed to get scheduled sessions: %w", err)
	}
	defer rows.Close()

	var results []*interfaces.SessionWithGame
	for rows.Next() {
		var session entities.GameSession
		var game entities.Game
		var openTime, closeTime pgtype.Time
		err := rows.Scan(
			&session.ID, &session.GameID, &session.SessionDate, &session.Status,
			&session.WinningNumber, &session.ScheduledWinningNumber, &session.IsScheduled,
			&session.ResultDeclaredAt, &session.CreatedAt,
			&game.ID, &game.Name, &openTime, &closeTime,
			&game.IsActive, &game.CreatedAt, &game.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scheduled session: %w", err)
		}
		game.OpenTime = timeOfDayFromPg(openTime)
		game.CloseTime = timeOfDayFromPg(closeTime)
		results = append(results, &interfaces.SessionWithGame{Session: &session, Game: &game})
	}

	return results, rows.Err()
}

// GetCompletedResults returns completed sessions newest first, optionally
// filtered to one game.
func (r *GameSessionRepository) GetCompletedResults(ctx context.Context, gameID *int64, limit int) ([]*entities.GameSession, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM game_sessions
		WHERE status = 'completed' AND ($1::bigint IS NULL OR game_id = $1)
		ORDER BY session_date DESC, id DESC
		LIMIT $2
	`, sessionColumns)

	rows, err := r.q.Query(ctx, query, gameID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed results: %w", err)
	}
	defer rows.Close()

	var sessions []*entities.GameSession
	for rows.Next() {
		var session entities.GameSession
		err := rows.Scan(
			&session.ID,
			&session.GameID,
			&session.SessionDate,
			&session.Status,
			&session.WinningNumber,
			&session.ScheduledWinningNumber,
			&session.IsScheduled,
			&session.ResultDeclaredAt,
			&session.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, &session)
	}

	return sessions, rows.Err()
}
