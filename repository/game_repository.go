package repository

import (
	"context"
	"fmt"

	"matka/database"
	"matka/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// GameRepository implements game market persistence
type GameRepository struct {
	q Queryable
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *database.DB) *GameRepository {
	return &GameRepository{q: db.Pool}
}

// newGameRepository creates a game repository scoped to a transaction
func newGameRepository(tx Queryable) *GameRepository {
	return &GameRepository{q: tx}
}

// Postgres TIME columns carry microseconds since midnight; TimeOfDay carries
// seconds. These two helpers convert at the scan/encode boundary.
func timeOfDayFromPg(t pgtype.Time) entities.TimeOfDay {
	return entities.TimeOfDay(t.Microseconds / 1_000_000)
}

func pgTimeOfDay(t entities.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: int64(t) * 1_000_000, Valid: true}
}

func scanGame(row pgx.Row) (*entities.Game, error) {
	var game entities.Game
	var openTime, closeTime pgtype.Time
	err := row.Scan(
		&game.ID,
		&game.Name,
		&openTime,
		&closeTime,
		&game.IsActive,
		&game.CreatedAt,
		&game.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	game.OpenTime = timeOfDayFromPg(openTime)
	game.CloseTime = timeOfDayFromPg(closeTime)
	return &game, nil
}

const gameColumns = `id, name, open_time, close_time, is_active, created_at, updated_at`

// GetByID retrieves a game by its ID
func (r *GameRepository) GetByID(ctx context.Context, id int64) (*entities.Game, error) {
	query := fmt.Sprintf(`SELECT %s FROM games WHERE id = $1`, gameColumns)

	game, err := scanGame(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get game %d: %w", id, err)
	}
	return game, nil
}

// GetActive returns active games ordered by open time
func (r *GameRepository) GetActive(ctx context.Context) ([]*entities.Game, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM games
		WHERE is_active
		ORDER BY open_time, id
	`, gameColumns)

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get active games: %w", err)
	}
	defer rows.Close()

	var games []*entities.Game
	for rows.Next() {
		var game entities.Game
		var openTime, closeTime pgtype.Time
		err := rows.Scan(
			&game.ID,
			&game.Name,
			&openTime,
			&closeTime,
			&game.IsActive,
			&game.CreatedAt,
			&game.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		game.OpenTime = timeOfDayFromPg(openTime)
		game.CloseTime = timeOfDayFromPg(closeTime)
		games = append(games, &game)
	}

	return games, rows.Err()
}

// Create creates a new game
func (r *GameRepository) Create(ctx context.Context, game *entities.Game) error {
	query := `
		INSERT INTO games (name, open_time, close_time, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		game.Name,
		pgTimeOfDay(game.OpenTime),
		pgTimeOfDay(game.CloseTime),
		game.IsActive,
	).Scan(&game.ID, &game.CreatedAt, &game.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create game %s: %w", game.Name, err)
	}

	return nil
}

// Update persists name, window and active flag changes
func (r *GameRepository) Update(ctx context.Context, game *entities.Game) error {
	query := `
		UPDATE games
		SET name = $1, open_time = $2, close_time = $3, is_active = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		game.Name,
		pgTimeOfDay(game.OpenTime),
		pgTimeOfDay(game.CloseTime),
		game.IsActive,
		game.ID,
	).Scan(&game.UpdatedAt)
	if err == pgx.ErrNoRows {
		return entities.ErrGameNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update game %d: %w", game.ID, err)
	}

	return nil
}

// Delete removes a game permanently
func (r *GameRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete game %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return entities.ErrGameNotFound
	}
	return nil
}
