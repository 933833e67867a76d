package entities

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of balance change a ledger entry records.
type TransactionType string

const (
	TransactionTypeBet        TransactionType = "bet"
	TransactionTypeWin        TransactionType = "win"
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeRefund     TransactionType = "refund"
	TransactionTypeRevert     TransactionType = "revert"
)

// IsCredit reports whether the type increases a balance.
func (tt TransactionType) IsCredit() bool {
	return tt == TransactionTypeWin || tt == TransactionTypeDeposit || tt == TransactionTypeRefund
}

// IsDebit reports whether the type decreases a balance.
func (tt TransactionType) IsDebit() bool {
	return tt == TransactionTypeBet || tt == TransactionTypeWithdrawal || tt == TransactionTypeRevert
}

// String returns the string representation of the transaction type.
func (tt TransactionType) String() string {
	return string(tt)
}

// ReferenceType tags which entity a transaction's ReferenceID points at.
type ReferenceType string

const (
	ReferenceTypeGameSession           ReferenceType = "game_session"
	ReferenceTypeGameSessionCorrection ReferenceType = "game_session_correction"
	ReferenceTypeWithdrawalRequest     ReferenceType = "withdrawal_request"
)

// Transaction is one immutable wallet ledger entry. Every balance mutation in
// the system writes exactly one of these in the same unit of work.
type Transaction struct {
	ID              int64           `db:"id"`
	UserID          int64           `db:"user_id"`
	TransactionType TransactionType `db:"transaction_type"`
	Amount          decimal.Decimal `db:"amount"`
	BalanceBefore   decimal.Decimal `db:"balance_before"`
	BalanceAfter    decimal.Decimal `db:"balance_after"`
	Description     string          `db:"description"`
	ReferenceID     *int64          `db:"reference_id"`
	ReferenceType   *ReferenceType  `db:"reference_type"`
	CreatedAt       time.Time       `db:"created_at"`
}

// Validate checks internal consistency of the ledger entry.
func (t *Transaction) Validate() error {
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("transaction amount must be positive")
	}
	var delta decimal.Decimal
	switch {
	case t.TransactionType.IsCredit():
		delta = t.Amount
	case t.TransactionType.IsDebit():
		delta = t.Amount.Neg()
	default:
		return errors.New("unknown transaction type")
	}
	if !t.BalanceAfter.Equal(t.BalanceBefore.Add(delta)) {
		return errors.New("balance calculation is inconsistent")
	}
	return nil
}

// TransactionSummary aggregates a user's ledger by type.
type TransactionSummary struct {
	TotalTransactions int64
	TotalDeposits     decimal.Decimal
	TotalWithdrawals  decimal.Decimal
	TotalBets         decimal.Decimal
	TotalWinnings     decimal.Decimal
}
