package gamification

import (
	"time"

	"gorm.io/gorm"

	"github.com/bondlyapp/bondly/models"
)

// ComputeBondScore combines both partners' completions over the last 30 days
// with the caller's current streak into a 0-100 engagement score.
func ComputeBondScore(userCompletions, partnerCompletions, currentStreak int) int {
	activityScore := min((userCompletions+partnerCompletions)*2, 60)
	streakScore := min(currentStreak*2, 30)

	consistencyScore := 5
	if userCompletions >= 20 && partnerCompletions >= 20 {
		consistencyScore = 10
	}

	return min(activityScore+streakScore+consistencyScore, 100)
}

// BondScore evaluates the bond score for a user, or 0 without a partner.
// The 30-day window rolls from the evaluation instant, not calendar days.
func (e *Engine) BondScore(user *models.User) (int, error) {
	if !user.HasPartner() {
		return 0, nil
	}

	since := e.Now().Add(-30 * 24 * time.Hour)

	userCount, err := e.completionsSince(user.ID, since)
	if err != nil {
		return 0, err
	}
	partnerCount, err := e.completionsSince(*user.PartnerID, since)
	if err != nil {
		return 0, err
	}

	streak := 0
	var row models.Streak
	err = e.db.Where("user_id = ?", user.ID).Take(&row).Error
	switch {
	case err == nil:
		if row.IsActive(e.Now()) {
			streak = row.CurrentStreak
		}
	case err != gorm.ErrRecordNotFound:
		return 0, err
	}

	return ComputeBondScore(userCount, partnerCount, streak), nil
}

func (e *Engine) completionsSince(userID string, since time.Time) (int, error) {
	var n int64
	err := e.db.Model(&models.ActivityCompletion{}).
		Where("user_id = ? AND completed_at >= ?", userID, since).
		Count(&n).Error
	return int(n), err
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
