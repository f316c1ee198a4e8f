package models

import "time"

// Streak tracks a user's consecutive-day activity counter. One row per user,
// created lazily on the first qualifying action.
//
// The stored streak is "last known": a stale streak is not decayed in place,
// it only resets the next time Update runs after a gap of more than one day.
type Streak struct {
	ID     uint   `gorm:"primaryKey" json:"-"`
	UserID string `gorm:"type:char(36);uniqueIndex;not null" json:"-"`

	CurrentStreak    int        `gorm:"default:0" json:"current_streak"`
	LongestStreak    int        `gorm:"default:0" json:"longest_streak"`
	LastActivityDate *time.Time `gorm:"type:date" json:"last_activity_date,omitempty"`

	TotalActiveDays int        `gorm:"default:0" json:"total_active_days"`
	StreakStartDate *time.Time `gorm:"type:date" json:"streak_start_date,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (Streak) TableName() string { return "streaks" }

// DateOnly truncates a time to its calendar date in the same location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween is the calendar-date gap from one timestamp to another. The
// dates are re-anchored in UTC before subtracting so a DST transition cannot
// shorten or stretch the day in between.
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	u := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(u.Sub(f) / (24 * time.Hour))
}

// IsActive reports whether the streak is unbroken as of today: the last
// qualifying activity happened today or yesterday.
func (s *Streak) IsActive(today time.Time) bool {
	if s.LastActivityDate == nil {
		return false
	}
	return daysBetween(*s.LastActivityDate, today) <= 1
}

// Update advances the streak for an activity completed today. Calling it a
// second time on the same date is a no-op. A gap of exactly one day extends
// the streak; a longer gap resets the current streak to 1 while the lifetime
// active-day counter keeps growing and the longest streak is preserved.
func (s *Streak) Update(today time.Time) {
	day := DateOnly(today)

	switch {
	case s.LastActivityDate == nil:
		s.CurrentStreak = 1
		s.LongestStreak = 1
		s.LastActivityDate = &day
		s.StreakStartDate = &day
		s.TotalActiveDays = 1
	case daysBetween(*s.LastActivityDate, day) == 0:
		// Already counted today.
	case daysBetween(*s.LastActivityDate, day) == 1:
		s.CurrentStreak++
		if s.CurrentStreak > s.LongestStreak {
			s.LongestStreak = s.CurrentStreak
		}
		s.LastActivityDate = &day
		s.TotalActiveDays++
	default:
		s.CurrentStreak = 1
		s.LastActivityDate = &day
		s.StreakStartDate = &day
		s.TotalActiveDays++
	}
}

// DaysUntilBreak returns 1 when the user already has activity today,
// 0 when the streak breaks unless they act today.
func (s *Streak) DaysUntilBreak(today time.Time) int {
	if s.LastActivityDate == nil {
		return 0
	}
	if daysBetween(*s.LastActivityDate, today) >= 1 {
		return 0
	}
	return 1
}
