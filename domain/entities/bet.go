package entities

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// BetType identifies what part of the outcome a bet targets.
type BetType string

const (
	// BetTypeJodi is a bet on the exact 2-digit outcome.
	BetTypeJodi BetType = "jodi"
	// BetTypeHarufAndar is a bet on the tens digit of the outcome.
	BetTypeHarufAndar BetType = "haruf_andar"
	// BetTypeHarufBahar is a bet on the units digit of the outcome.
	BetTypeHarufBahar BetType = "haruf_bahar"
)

// Valid reports whether bt is a known bet type.
func (bt BetType) Valid() bool {
	return bt == BetTypeJodi || bt == BetTypeHarufAndar || bt == BetTypeHarufBahar
}

// IsHaruf reports whether the bet targets a single digit.
func (bt BetType) IsHaruf() bool {
	return bt == BetTypeHarufAndar || bt == BetTypeHarufBahar
}

// BetStatus is the settlement state of a bet.
type BetStatus string

const (
	BetStatusPending BetStatus = "pending"
	BetStatusWin     BetStatus = "win"
	BetStatusLoss    BetStatus = "loss"
)

var (
	jodiNumberPattern  = regexp.MustCompile(`^\d{2}$`)
	harufNumberPattern = regexp.MustCompile(`^\d$`)
)

// IsValidJodiNumber reports whether s is a valid jodi number (00-99).
func IsValidJodiNumber(s string) bool {
	return jodiNumberPattern.MatchString(s)
}

// IsValidHarufNumber reports whether s is a valid haruf digit (0-9).
func IsValidHarufNumber(s string) bool {
	return harufNumberPattern.MatchString(s)
}

// IsValidBetNumber validates a number against the rules of the given bet type.
func IsValidBetNumber(bt BetType, number string) bool {
	if bt.IsHaruf() {
		return IsValidHarufNumber(number)
	}
	return IsValidJodiNumber(number)
}

// Bet is one elementary wager. The payout multiplier is snapshotted from the
// rate settings at placement time and never recomputed afterwards.
type Bet struct {
	ID               int64           `db:"id"`
	UserID           int64           `db:"user_id"`
	GameSessionID    int64           `db:"game_session_id"`
	BetType          BetType         `db:"bet_type"`
	BetNumber        string          `db:"bet_number"`
	BetAmount        decimal.Decimal `db:"bet_amount"`
	PayoutMultiplier decimal.Decimal `db:"payout_multiplier"`
	Status           BetStatus       `db:"status"`
	PayoutAmount     decimal.Decimal `db:"payout_amount"`
	CreatedAt        time.Time       `db:"created_at"`
}

// WinsAgainst classifies the bet against a declared 2-digit winning number.
func (b *Bet) WinsAgainst(winningNumber string) bool {
	if !IsValidWinningNumber(winningNumber) {
		return false
	}
	switch b.BetType {
	case BetTypeJodi:
		return b.BetNumber == winningNumber
	case BetTypeHarufAndar:
		return b.BetNumber == winningNumber[0:1]
	case BetTypeHarufBahar:
		return b.BetNumber == winningNumber[1:2]
	}
	return false
}

// Payout is the amount due if the bet wins.
func (b *Bet) Payout() decimal.Decimal {
	return b.BetAmount.Mul(b.PayoutMultiplier)
}

// BetStats aggregates a user's betting history.
type BetStats struct {
	TotalBets      int64
	TotalWins      int64
	TotalLosses    int64
	PendingBets    int64
	TotalBetAmount decimal.Decimal
	TotalWinnings  decimal.Decimal
}
