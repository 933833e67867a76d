package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTimeOfDay(t *testing.T, s string) TimeOfDay {
	tod, err := ParseTimeOfDay(s)
	require.NoError(t, err)
	return tod
}

func at(hour, minute int) time.Time {
	return time.Date(2025, 6, 15, hour, minute, 0, 0, time.UTC)
}

func TestGame_IsOpenAt_SameDayWindow(t *testing.T) {
	game := &Game{
		Name:      "Day Market",
		OpenTime:  mustTimeOfDay(t, "09:00:00"),
		CloseTime: mustTimeOfDay(t, "17:00:00"),
		IsActive:  true,
	}

	assert.False(t, game.IsOpenAt(at(8, 59)))
	assert.True(t, game.IsOpenAt(at(9, 0)), "window opens at the open time itself")
	assert.True(t, game.IsOpenAt(at(12, 30)))
	assert.False(t, game.IsOpenAt(at(17, 0)), "window is closed at the close time itself")
	assert.False(t, game.IsOpenAt(at(21, 0)))
}

func TestGame_IsOpenAt_MidnightWraparound(t *testing.T) {
	// Opens in the morning, closes at 01:30 the next day.
	game := &Game{
		Name:      "Night Market",
		OpenTime:  mustTimeOfDay(t, "07:30:00"),
		CloseTime: mustTimeOfDay(t, "01:30:00"),
		IsActive:  true,
	}

	assert.True(t, game.IsOpenAt(at(7, 30)))
	assert.True(t, game.IsOpenAt(at(23, 59)))
	assert.True(t, game.IsOpenAt(at(0, 15)), "open after midnight before close")
	assert.False(t, game.IsOpenAt(at(1, 30)))
	assert.False(t, game.IsOpenAt(at(2, 0)))
	assert.False(t, game.IsOpenAt(at(5, 0)), "closed between close and next open")
}

func TestGame_IsOpenAt_InactiveGame(t *testing.T) {
	game := &Game{
		OpenTime:  mustTimeOfDay(t, "00:00:00"),
		CloseTime: mustTimeOfDay(t, "23:59:59"),
		IsActive:  false,
	}

	assert.False(t, game.IsOpenAt(at(12, 0)))
}

func TestGame_CloseAtOn(t *testing.T) {
	sessionDate := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	sameDay := &Game{
		OpenTime:  mustTimeOfDay(t, "09:00:00"),
		CloseTime: mustTimeOfDay(t, "17:00:00"),
	}
	assert.Equal(t,
		time.Date(2025, 6, 15, 17, 0, 0, 0, time.UTC),
		sameDay.CloseAtOn(sessionDate, time.UTC))

	// Wrapped window closes on the day after the session date.
	wrapped := &Game{
		OpenTime:  mustTimeOfDay(t, "07:30:00"),
		CloseTime: mustTimeOfDay(t, "01:30:00"),
	}
	assert.Equal(t,
		time.Date(2025, 6, 16, 1, 30, 0, 0, time.UTC),
		wrapped.CloseAtOn(sessionDate, time.UTC))
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("13:45:30")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay(13*3600+45*60+30), tod)
	assert.Equal(t, "13:45:30", tod.String())

	_, err = ParseTimeOfDay("25:00:00")
	assert.Error(t, err)

	_, err = ParseTimeOfDay("not a time")
	assert.Error(t, err)
}
