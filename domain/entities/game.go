package entities

import (
	"fmt"
	"time"
)

const timeOfDayLayout = "15:04:05"

// TimeOfDay is a wall-clock time without a date, stored as seconds since midnight.
type TimeOfDay int

// ParseTimeOfDay parses an "HH:MM:SS" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(timeOfDayLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
}

// TimeOfDayFromClock extracts the time-of-day component of a timestamp.
func TimeOfDayFromClock(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

// String formats the time as "HH:MM:SS".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", int(t)/3600, int(t)/60%60, int(t)%60)
}

// Game is a recurring betting market with a daily open/close window.
type Game struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	OpenTime  TimeOfDay `db:"open_time"`
	CloseTime TimeOfDay `db:"close_time"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

const secondsPerDay = 24 * 3600

// IsOpenAt reports whether the betting window is open at the given server time.
// A close time earlier in the clock than the open time wraps past midnight:
// the window spans openTime today through closeTime tomorrow. Comparison is
// done on elapsed seconds since open, modulo 24h, against the open-to-close
// span, which handles both the wrapped and unwrapped cases uniformly.
func (g *Game) IsOpenAt(now time.Time) bool {
	if !g.IsActive {
		return false
	}
	current := TimeOfDayFromClock(now)
	elapsed := (int(current) - int(g.OpenTime) + secondsPerDay) % secondsPerDay
	span := (int(g.CloseTime) - int(g.OpenTime) + secondsPerDay) % secondsPerDay
	return elapsed < span
}

// CloseAtOn returns the absolute instant the game closes for a session dated d.
// For windows that wrap past midnight the close lands on the following day.
func (g *Game) CloseAtOn(d time.Time, loc *time.Location) time.Time {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	closeAt := day.Add(time.Duration(g.CloseTime) * time.Second)
	if g.CloseTime < g.OpenTime {
		closeAt = closeAt.AddDate(0, 0, 1)
	}
	return closeAt
}
