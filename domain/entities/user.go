package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceField names one of the three wallet balances a ledger operation may touch.
type BalanceField string

const (
	// FieldBalance is deposited, wagerable money.
	FieldBalance BalanceField = "balance"
	// FieldWinningBalance is credited winnings, withdrawable.
	FieldWinningBalance BalanceField = "winning_balance"
	// FieldHeldWithdrawalBalance is winnings earmarked for a pending withdrawal.
	FieldHeldWithdrawalBalance BalanceField = "held_withdrawal_balance"
)

// Valid reports whether the field names a real balance column.
func (f BalanceField) Valid() bool {
	return f == FieldBalance || f == FieldWinningBalance || f == FieldHeldWithdrawalBalance
}

// User represents a player account with its three wallet balances.
type User struct {
	ID                    int64           `db:"id"`
	Phone                 string          `db:"phone"`
	Name                  string          `db:"name"`
	Balance               decimal.Decimal `db:"balance"`
	WinningBalance        decimal.Decimal `db:"winning_balance"`
	HeldWithdrawalBalance decimal.Decimal `db:"held_withdrawal_balance"`
	IsActive              bool            `db:"is_active"`
	CreatedAt             time.Time       `db:"created_at"`
	UpdatedAt             time.Time       `db:"updated_at"`
}

// TotalBalance is the displayed wallet total (deposits plus winnings).
func (u *User) TotalBalance() decimal.Decimal {
	return u.Balance.Add(u.WinningBalance)
}

// CanAfford checks if the user has sufficient wagerable balance for an amount.
func (u *User) CanAfford(amount decimal.Decimal) bool {
	return u.Balance.GreaterThanOrEqual(amount)
}

// CanWithdraw checks if the user has sufficient winning balance for an amount.
func (u *User) CanWithdraw(amount decimal.Decimal) bool {
	return u.WinningBalance.GreaterThanOrEqual(amount)
}

// BalanceChange reports the before/after values of a single balance mutation,
// as observed inside the mutating statement itself.
type BalanceChange struct {
	Field  BalanceField
	Before decimal.Decimal
	After  decimal.Decimal
}
