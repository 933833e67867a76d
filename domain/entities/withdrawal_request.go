package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus is the review state of a withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
)

// WithdrawalRequest holds winnings earmarked for payout until an admin
// approves or rejects it. While pending, the amount sits in the user's
// held withdrawal balance.
type WithdrawalRequest struct {
	ID          int64            `db:"id"`
	UserID      int64            `db:"user_id"`
	Amount      decimal.Decimal  `db:"amount"`
	Status      WithdrawalStatus `db:"status"`
	BankDetails string           `db:"bank_details"`
	CreatedAt   time.Time        `db:"created_at"`
	ProcessedAt *time.Time       `db:"processed_at"`
}

// IsPending reports whether the request is still awaiting review.
func (w *WithdrawalRequest) IsPending() bool {
	return w.Status == WithdrawalStatusPending
}
