package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2026, time.March, n, 10, 30, 0, 0, time.UTC)
}

func TestStreakFirstUpdate(t *testing.T) {
	s := &Streak{UserID: "u1"}
	s.Update(day(1))

	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 1, s.LongestStreak)
	assert.Equal(t, 1, s.TotalActiveDays)
	require.NotNil(t, s.LastActivityDate)
	assert.Equal(t, DateOnly(day(1)), *s.LastActivityDate)
	require.NotNil(t, s.StreakStartDate)
	assert.Equal(t, DateOnly(day(1)), *s.StreakStartDate)
}

func TestStreakSameDayIsNoOp(t *testing.T) {
	s := &Streak{UserID: "u1"}
	s.Update(day(1))
	s.Update(day(1).Add(8 * time.Hour))

	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 1, s.TotalActiveDays)
}

func TestStreakConsecutiveDays(t *testing.T) {
	s := &Streak{UserID: "u1"}
	for n := 1; n <= 5; n++ {
		s.Update(day(n))
	}

	assert.Equal(t, 5, s.CurrentStreak)
	assert.Equal(t, 5, s.LongestStreak)
	assert.Equal(t, 5, s.TotalActiveDays)
}

func TestStreakGapResets(t *testing.T) {
	s := &Streak{UserID: "u1"}
	// Active days 1-3, nothing on 4 and 5, back on day 6.
	s.Update(day(1))
	s.Update(day(2))
	s.Update(day(3))
	s.Update(day(6))

	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 3, s.LongestStreak, "longest survives the reset")
	assert.Equal(t, 4, s.TotalActiveDays, "lifetime counter keeps growing")
	require.NotNil(t, s.StreakStartDate)
	assert.Equal(t, DateOnly(day(6)), *s.StreakStartDate)
}

func TestStreakLongestNotOverwrittenByShorterRun(t *testing.T) {
	s := &Streak{UserID: "u1"}
	for n := 1; n <= 4; n++ {
		s.Update(day(n))
	}
	s.Update(day(10))
	s.Update(day(11))

	assert.Equal(t, 2, s.CurrentStreak)
	assert.Equal(t, 4, s.LongestStreak)
}

func TestStreakAcrossDSTTransitions(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Clocks spring forward during the night of March 8, 2026, making it a
	// 23-hour day; it still counts as a full calendar day.
	s := &Streak{UserID: "u1"}
	s.Update(time.Date(2026, time.March, 8, 21, 0, 0, 0, loc))
	s.Update(time.Date(2026, time.March, 9, 21, 0, 0, 0, loc))

	assert.Equal(t, 2, s.CurrentStreak)
	assert.Equal(t, 2, s.TotalActiveDays)
	require.NotNil(t, s.LastActivityDate)
	assert.Equal(t, 9, s.LastActivityDate.Day())
	assert.True(t, s.IsActive(time.Date(2026, time.March, 10, 8, 0, 0, 0, loc)))

	// Fall back on November 1, 2026 makes a 25-hour day; still one day.
	s2 := &Streak{UserID: "u2"}
	s2.Update(time.Date(2026, time.October, 31, 21, 0, 0, 0, loc))
	s2.Update(time.Date(2026, time.November, 1, 21, 0, 0, 0, loc))

	assert.Equal(t, 2, s2.CurrentStreak)
	assert.Equal(t, 2, s2.TotalActiveDays)
}

func TestStreakIsActive(t *testing.T) {
	s := &Streak{UserID: "u1"}
	assert.False(t, s.IsActive(day(1)))

	s.Update(day(1))
	assert.True(t, s.IsActive(day(1)), "active same day")
	assert.True(t, s.IsActive(day(2)), "still active the day after")
	assert.False(t, s.IsActive(day(3)), "broken after a missed day")
}

func TestStreakDaysUntilBreak(t *testing.T) {
	s := &Streak{UserID: "u1"}
	assert.Equal(t, 0, s.DaysUntilBreak(day(1)))

	s.Update(day(1))
	assert.Equal(t, 1, s.DaysUntilBreak(day(1)), "already safe today")
	assert.Equal(t, 0, s.DaysUntilBreak(day(2)), "must act today to keep it")
}
