package interfaces

import (
	"context"
	"time"

	"matka/domain/entities"
	"matka/domain/events"

	"github.com/shopspring/decimal"
)

// UserRepository defines the interface for user accounts and wallet balances.
// All balance mutations return the before/after values observed by the
// mutating statement and must be paired by the caller with exactly one
// ledger transaction in the same unit of work.
type UserRepository interface {
	// GetByID retrieves a user by id, nil if not found.
	GetByID(ctx context.Context, id int64) (*entities.User, error)

	// GetByIDForUpdate retrieves a user with a row lock held for the
	// remainder of the transaction, nil if not found.
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.User, error)

	// Create creates a new user with zero balances.
	Create(ctx context.Context, phone, name string) (*entities.User, error)

	// DebitBalanceChecked atomically decrements the wagerable balance only if
	// it currently holds at least amount; returns ErrInsufficientBalance
	// (with no row touched) otherwise.
	DebitBalanceChecked(ctx context.Context, userID int64, amount decimal.Decimal) (*entities.BalanceChange, error)

	// Credit unconditionally increases the named balance field.
	Credit(ctx context.Context, userID int64, field entities.BalanceField, amount decimal.Decimal) (*entities.BalanceChange, error)

	// Debit unconditionally decreases the named balance field. The caller is
	// responsible for having verified sufficiency inside the same transaction.
	Debit(ctx context.Context, userID int64, field entities.BalanceField, amount decimal.Decimal) (*entities.BalanceChange, error)

	// GetAll returns users ordered by creation time, newest first.
	GetAll(ctx context.Context, limit, offset int) ([]*entities.User, error)
}

// TransactionRepository defines the interface for the append-only wallet ledger.
type TransactionRepository interface {
	// Record appends a ledger entry. Entries are never updated or deleted.
	Record(ctx context.Context, txn *entities.Transaction) error

	// GetByUser returns a user's ledger entries, newest first.
	GetByUser(ctx context.Context, userID int64, limit, offset int) ([]*entities.Transaction, error)

	// GetByType returns a user's ledger entries of one type, newest first.
	GetByType(ctx context.Context, userID int64, tt entities.TransactionType, limit int) ([]*entities.Transaction, error)

	// GetSummary aggregates a user's ledger by transaction type.
	GetSummary(ctx context.Context, userID int64) (*entities.TransactionSummary, error)
}

// BetRepository defines the interface for elementary bet persistence.
type BetRepository interface {
	// CreateBatch inserts all bets as pending in a single statement.
	CreateBatch(ctx context.Context, bets []*entities.Bet) error

	// GetByID retrieves a bet by id, nil if not found.
	GetByID(ctx context.Context, id int64) (*entities.Bet, error)

	// GetPendingBySession returns all pending bets for a session.
	GetPendingBySession(ctx context.Context, sessionID int64) ([]*entities.Bet, error)

	// GetWinningBySession returns all bets currently marked win for a session.
	GetWinningBySession(ctx context.Context, sessionID int64) ([]*entities.Bet, error)

	// UpdateStatuses moves all named bets to the target status in one statement.
	UpdateStatuses(ctx context.Context, betIDs []int64, status entities.BetStatus) error

	// MarkWins marks each bet win and stores its payout amount.
	MarkWins(ctx context.Context, bets []*entities.Bet) error

	// ResetForSession returns every bet in the session to pending with a zero
	// payout. Used only by the result-correction path.
	ResetForSession(ctx context.Context, sessionID int64) error

	// GetByUser returns a user's bets, newest first.
	GetByUser(ctx context.Context, userID int64, limit, offset int) ([]*entities.Bet, error)

	// GetBySession returns a session's bets, optionally filtered by status.
	GetBySession(ctx context.Context, sessionID int64, status *entities.BetStatus) ([]*entities.Bet, error)

	// GetStats returns betting statistics for a user.
	GetStats(ctx context.Context, userID int64) (*entities.BetStats, error)
}

// GameRepository defines the interface for game market definitions.
type GameRepository interface {
	// GetByID retrieves a game by id, nil if not found.
	GetByID(ctx context.Context, id int64) (*entities.Game, error)

	// GetActive returns active games ordered by open time.
	GetActive(ctx context.Context) ([]*entities.Game, error)

	// Create creates a new active game.
	Create(ctx context.Context, game *entities.Game) error

	// Update persists name, window and active flag changes.
	Update(ctx context.Context, game *entities.Game) error

	// Delete removes a game permanently.
	Delete(ctx context.Context, id int64) error
}

// SessionWithGame pairs a session with its owning game, for callers that
// need the game's clock window alongside the session state.
type SessionWithGame struct {
	Session *entities.GameSession
	Game    *entities.Game
}

// GameSessionRepository defines the interface for per-day session rows.
type GameSessionRepository interface {
	// GetOrCreate maps (gameID, date) to exactly one session row, creating it
	// as pending on first access. Safe under concurrent first access.
	GetOrCreate(ctx context.Context, gameID int64, date time.Time) (*entities.GameSession, error)

	// GetByID retrieves a session by id, nil if not found.
	GetByID(ctx context.Context, id int64) (*entities.GameSession, error)

	// GetByIDForUpdate retrieves a session with a row lock held for the
	// remainder of the transaction, nil if not found.
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.GameSession, error)

	// MarkCompleted transitions a pending session to completed with the
	// winning number and declaration timestamp, conditioned on the session
	// still being pending. Returns nil if no pending row matched.
	MarkCompleted(ctx context.Context, sessionID int64, winningNumber string) (*entities.GameSession, error)

	// SetScheduled stores a scheduled winning number on a pending session.
	// Returns nil if no pending row matched.
	SetScheduled(ctx context.Context, sessionID int64, winningNumber string) (*entities.GameSession, error)

	// UpdateResult overwrites the winning number and declaration timestamp on
	// a completed session. Used only by the correction path.
	UpdateResult(ctx context.Context, sessionID int64, winningNumber string) error

	// GetScheduledPending returns pending sessions with a scheduled number
	// dated on or before the given date, joined with their games.
	GetScheduledPending(ctx context.Context, onOrBefore time.Time) ([]*SessionWithGame, error)

	// GetCompletedResults returns completed sessions newest first, optionally
	// for one game.
	GetCompletedResults(ctx context.Context, gameID *int64, limit int) ([]*entities.GameSession, error)
}

// SettingsRepository defines the interface for the global key/value store.
type SettingsRepository interface {
	// Get returns the value for a key, nil if unset.
	Get(ctx context.Context, key string) (*string, error)

	// GetAll returns every setting as a map.
	GetAll(ctx context.Context) (map[string]string, error)

	// Set upserts a setting.
	Set(ctx context.Context, key, value string) error
}

// WithdrawalRepository defines the interface for withdrawal requests.
type WithdrawalRepository interface {
	// Create inserts a pending withdrawal request.
	Create(ctx context.Context, req *entities.WithdrawalRequest) error

	// GetByIDForUpdate retrieves a request with a row lock, nil if not found.
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.WithdrawalRequest, error)

	// GetByUser returns a user's withdrawal requests, newest first.
	GetByUser(ctx context.Context, userID int64, limit int) ([]*entities.WithdrawalRequest, error)

	// GetPending returns all pending requests, oldest first.
	GetPending(ctx context.Context) ([]*entities.WithdrawalRequest, error)

	// Update persists status and processing timestamp changes.
	Update(ctx context.Context, req *entities.WithdrawalRequest) error
}

// EventPublisher defines the interface for publishing domain events.
type EventPublisher interface {
	Publish(event events.Event)
}
