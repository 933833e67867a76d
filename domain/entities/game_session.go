package entities

import (
	"regexp"
	"time"
)

// SessionStatus represents the lifecycle state of a game session.
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusCompleted SessionStatus = "completed"
)

var winningNumberPattern = regexp.MustCompile(`^\d{2}$`)

// IsValidWinningNumber reports whether s is a 2-digit result number (00-99).
func IsValidWinningNumber(s string) bool {
	return winningNumberPattern.MatchString(s)
}

// GameSession is one calendar day's instance of a game and the unit of
// settlement: it receives exactly one winning number.
type GameSession struct {
	ID                     int64         `db:"id"`
	GameID                 int64         `db:"game_id"`
	SessionDate            time.Time     `db:"session_date"`
	Status                 SessionStatus `db:"status"`
	WinningNumber          *string       `db:"winning_number"`
	ScheduledWinningNumber *string       `db:"scheduled_winning_number"`
	IsScheduled            bool          `db:"is_scheduled"`
	ResultDeclaredAt       *time.Time    `db:"result_declared_at"`
	CreatedAt              time.Time     `db:"created_at"`
}

// IsPending reports whether the session still accepts bets and declarations.
func (s *GameSession) IsPending() bool {
	return s.Status == SessionStatusPending
}

// IsCompleted reports whether a result has been declared.
func (s *GameSession) IsCompleted() bool {
	return s.Status == SessionStatusCompleted
}
