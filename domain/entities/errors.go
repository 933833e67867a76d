package entities

import "errors"

// Domain errors surfaced by the betting and settlement services. Callers
// classify with errors.Is; storage failures are wrapped separately.
var (
	// ErrInsufficientBalance means a conditional wallet debit found less
	// balance than the requested amount. Nothing was mutated.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrUserNotFound means the user id resolved to no account.
	ErrUserNotFound = errors.New("user not found")

	// ErrGameNotFound means the game id resolved to no game.
	ErrGameNotFound = errors.New("game not found")

	// ErrGameClosed means the game's betting window is closed by server time.
	ErrGameClosed = errors.New("game closed for betting")

	// ErrSessionNotFound means the session id resolved to no session.
	ErrSessionNotFound = errors.New("game session not found")

	// ErrSessionNotPending means the operation requires a pending session.
	ErrSessionNotPending = errors.New("game session is not pending")

	// ErrAlreadyDeclared means a result was already declared for the session;
	// re-declaring requires the correction path.
	ErrAlreadyDeclared = errors.New("result already declared for this session")

	// ErrNotYetDeclared means a correction was attempted before any declaration.
	ErrNotYetDeclared = errors.New("result not declared yet")

	// ErrNoChange means a correction named the same winning number already set.
	ErrNoChange = errors.New("new winning number is same as current one")

	// ErrNoValidBets means bet expansion produced an empty batch.
	ErrNoValidBets = errors.New("no valid bets identified")

	// ErrWithdrawalNotPending means the withdrawal request was already processed.
	ErrWithdrawalNotPending = errors.New("withdrawal request already processed")

	// ErrWithdrawalNotFound means the request id resolved to no request.
	ErrWithdrawalNotFound = errors.New("withdrawal request not found")

	// ErrInvalidBet means a structured bet entry failed validation.
	ErrInvalidBet = errors.New("invalid bet")

	// ErrInvalidWinningNumber means a result number was not a 2-digit string.
	ErrInvalidWinningNumber = errors.New("winning number must be a 2-digit number (00-99)")

	// ErrInvalidAmount means a monetary amount was zero or negative.
	ErrInvalidAmount = errors.New("amount must be positive")
)
