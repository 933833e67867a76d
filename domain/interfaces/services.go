package interfaces

import (
	"context"

	"matka/domain/entities"

	"github.com/shopspring/decimal"
)

// GridEntry is one structured cell from the betting grid. Grid entries are
// validated strictly: one malformed entry rejects the whole batch.
type GridEntry struct {
	BetType entities.BetType
	Number  string
	Amount  decimal.Decimal
}

// PlaceBetsInput carries one placement request. Exactly one of Grid,
// CrossingDigits, or Numbers must be populated.
type PlaceBetsInput struct {
	GameID int64
	UserID int64

	// Grid holds structured grid cells (mode A).
	Grid []GridEntry

	// CrossingDigits holds the digit set to expand into jodi combinations
	// (mode B); Amount applies per combination.
	CrossingDigits string

	// Numbers holds free-text numbers (mode C); invalid entries are skipped.
	// BetType and Amount apply to each, and Palti adds digit reversals for
	// jodi numbers.
	Numbers []string
	BetType entities.BetType
	Palti   bool

	Amount decimal.Decimal
}

// PlaceBetsResult reports an accepted placement batch.
type PlaceBetsResult struct {
	PlacedCount int
	TotalAmount decimal.Decimal
	NewBalance  decimal.Decimal
	Bets        []*entities.Bet
}

// BettingService turns wager input into a priced, persisted batch of bets,
// debiting the wallet atomically.
type BettingService interface {
	// PlaceBets validates the game window and session state, expands the
	// input into elementary bets, and persists them with the wallet debit
	// and ledger entry as one unit.
	PlaceBets(ctx context.Context, input PlaceBetsInput) (*PlaceBetsResult, error)
}

// SettlementResult summarizes one settlement pass over a session.
type SettlementResult struct {
	Session     *entities.GameSession
	TotalBets   int
	WinCount    int
	LossCount   int
	TotalPayout decimal.Decimal
}

// CorrectionResult reports a completed result correction.
type CorrectionResult struct {
	OldWinningNumber string
	NewWinningNumber string
	Settlement       *SettlementResult
}

// SettlementService governs the session result state machine:
// pending -> (Declare) -> completed -> (Correct) -> completed.
type SettlementService interface {
	// Declare transitions a pending session to completed, classifies every
	// pending bet against the winning number, and credits winners in
	// per-user aggregates. Declaring twice fails with ErrAlreadyDeclared
	// and leaves no partial effects.
	Declare(ctx context.Context, sessionID int64, winningNumber string) (*SettlementResult, error)

	// Schedule records intent to declare the given number once the session's
	// game closes; settlement happens later via the scheduler trigger.
	Schedule(ctx context.Context, sessionID int64, winningNumber string) (*entities.GameSession, error)

	// Correct reverses the financial effect of the prior declaration and
	// re-settles with the new number, as one atomic unit.
	Correct(ctx context.Context, sessionID int64, newWinningNumber string) (*CorrectionResult, error)
}

// WalletService covers balance movements outside bet placement and settlement.
type WalletService interface {
	// Deposit credits wagerable balance with a paired deposit transaction.
	Deposit(ctx context.Context, userID int64, amount decimal.Decimal, note string) (*entities.BalanceChange, error)

	// RequestWithdrawal moves amount from winning balance into held
	// withdrawal balance, with a paired withdrawal transaction, and opens a
	// pending request.
	RequestWithdrawal(ctx context.Context, userID int64, amount decimal.Decimal, bankDetails string) (*entities.WithdrawalRequest, error)

	// ApproveWithdrawal releases the held amount and closes the request.
	ApproveWithdrawal(ctx context.Context, requestID int64) error

	// RejectWithdrawal refunds the held amount to winning balance and closes
	// the request.
	RejectWithdrawal(ctx context.Context, requestID int64) error
}
