package testutil

import (
	"context"
	"testing"
	"time"

	"matka/database"
	"matka/domain/entities"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// CreateTestUser inserts a user with the given wagerable balance and returns it.
func CreateTestUser(t *testing.T, db *database.DB, phone string, balance decimal.Decimal) *entities.User {
	ctx := context.Background()

	var user entities.User
	err := db.QueryRow(ctx, `
		INSERT INTO users (phone, name, balance)
		VALUES ($1, $2, $3)
		RETURNING id, phone, name, balance, winning_balance, held_withdrawal_balance, is_active, created_at, updated_at
	`, phone, "Test User", balance).Scan(
		&user.ID, &user.Phone, &user.Name, &user.Balance, &user.WinningBalance,
		&user.HeldWithdrawalBalance, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	require.NoError(t, err)

	return &user
}

// CreateTestGame inserts an always-open game and returns it.
func CreateTestGame(t *testing.T, db *database.DB, name string) *entities.Game {
	return CreateTestGameWithWindow(t, db, name, "00:00:00", "23:59:59")
}

// CreateTestGameWithWindow inserts a game with the given betting window.
func CreateTestGameWithWindow(t *testing.T, db *database.DB, name, openTime, closeTime string) *entities.Game {
	ctx := context.Background()

	open, err := entities.ParseTimeOfDay(openTime)
	require.NoError(t, err)
	close_, err := entities.ParseTimeOfDay(closeTime)
	require.NoError(t, err)

	var game entities.Game
	err = db.QueryRow(ctx, `
		INSERT INTO games (name, open_time, close_time)
		VALUES ($1, $2, $3)
		RETURNING id, name, is_active, created_at, updated_at
	`, name, openTime, closeTime).Scan(
		&game.ID, &game.Name, &game.IsActive, &game.CreatedAt, &game.UpdatedAt,
	)
	require.NoError(t, err)
	game.OpenTime = open
	game.CloseTime = close_

	return &game
}

// CreateTestSession inserts a pending session for the game dated today.
func CreateTestSession(t *testing.T, db *database.DB, gameID int64) *entities.GameSession {
	ctx := context.Background()

	var session entities.GameSession
	err := db.QueryRow(ctx, `
		INSERT INTO game_sessions (game_id, session_date)
		VALUES ($1, $2)
		RETURNING id, game_id, session_date, status, winning_number, scheduled_winning_number, is_scheduled, result_declared_at, created_at
	`, gameID, time.Now().UTC().Format("2006-01-02")).Scan(
		&session.ID, &session.GameID, &session.SessionDate, &session.Status,
		&session.WinningNumber, &session.ScheduledWinningNumber, &session.IsScheduled,
		&session.ResultDeclaredAt, &session.CreatedAt,
	)
	require.NoError(t, err)

	return &session
}

// CreateTestBet inserts a pending bet and returns it.
func CreateTestBet(t *testing.T, db *database.DB, userID, sessionID int64, betType entities.BetType, number string, amount, multiplier decimal.Decimal) *entities.Bet {
	ctx := context.Background()

	bet := &entities.Bet{
		UserID:           userID,
		GameSessionID:    sessionID,
		BetType:          betType,
		BetNumber:        number,
		BetAmount:        amount,
		PayoutMultiplier: multiplier,
		Status:           entities.BetStatusPending,
	}
	err := db.QueryRow(ctx, `
		INSERT INTO bets (user_id, game_session_id, bet_type, bet_number, bet_amount, payout_multiplier)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, bet.UserID, bet.GameSessionID, bet.BetType, bet.BetNumber, bet.BetAmount, bet.PayoutMultiplier).
		Scan(&bet.ID, &bet.CreatedAt)
	require.NoError(t, err)

	return bet
}
