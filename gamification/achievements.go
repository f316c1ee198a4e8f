package gamification

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/bondlyapp/bondly/models"
)

// AchievementProgressPercent is the display progress toward a criteria value,
// capped at 100.
func AchievementProgressPercent(current, criteriaValue int) float64 {
	if criteriaValue <= 0 {
		return 100
	}
	p := float64(current) / float64(criteriaValue) * 100
	if p > 100 {
		return 100
	}
	return p
}

// MetricValue resolves the current value of a criteria metric for a user:
// streak criteria read the longest streak, activity_count the lifetime
// completion total, relationship_duration whole days since linking.
func (e *Engine) MetricValue(user *models.User, streak *models.Streak, ctype models.CriteriaType) (int, error) {
	return metricValue(e.db, user, streak, ctype, e.Now())
}

func metricValue(tx *gorm.DB, user *models.User, streak *models.Streak, ctype models.CriteriaType, now time.Time) (int, error) {
	switch ctype {
	case models.CriteriaStreak:
		if streak == nil {
			return 0, nil
		}
		return streak.LongestStreak, nil
	case models.CriteriaActivityCount:
		var n int64
		err := tx.Model(&models.ActivityCompletion{}).Where("user_id = ?", user.ID).Count(&n).Error
		return int(n), err
	case models.CriteriaRelationshipDuration:
		return user.RelationshipDurationDays(now), nil
	default:
		return 0, nil
	}
}

// evaluateAchievements checks every active badge and milestone against the
// user's current metrics and records unlocks for those newly at threshold.
// It mutates the user's points/coins for granted rewards, writes the matching
// ledger rows and notifications, and leaves persisting the user to the caller.
// Re-evaluation is idempotent: already-unlocked entries are skipped and the
// unique (user, badge) index backstops any race.
func evaluateAchievements(tx *gorm.DB, user *models.User, streak *models.Streak, now time.Time) ([]models.Badge, []models.Milestone, error) {
	unlockedBadges, err := evaluateBadges(tx, user, streak, now)
	if err != nil {
		return nil, nil, err
	}
	achievedMilestones, err := evaluateMilestones(tx, user, streak, now)
	if err != nil {
		return nil, nil, err
	}
	return unlockedBadges, achievedMilestones, nil
}

func evaluateBadges(tx *gorm.DB, user *models.User, streak *models.Streak, now time.Time) ([]models.Badge, error) {
	var catalog []models.Badge
	if err := tx.Where("is_active = ?", true).Find(&catalog).Error; err != nil {
		return nil, err
	}

	owned, err := ownedIDs(tx, &models.UserBadge{}, "badge_id", user.ID)
	if err != nil {
		return nil, err
	}

	var unlocked []models.Badge
	for _, badge := range catalog {
		if owned[badge.ID] {
			continue
		}
		current, err := metricValue(tx, user, streak, badge.Criteria.Type, now)
		if err != nil {
			return nil, err
		}
		if current < badge.Criteria.Threshold {
			continue
		}

		if err := tx.Create(&models.UserBadge{UserID: user.ID, BadgeID: badge.ID}).Error; err != nil {
			return nil, err
		}

		user.TotalPoints += badge.PointsReward
		user.Coins += badge.CoinsReward
		if _, err := recordTransaction(tx, user, models.TxEarnedBadge, badge.CoinsReward,
			badge.ID, "badge", fmt.Sprintf("Badge reward: %s", badge.NameEN)); err != nil {
			return nil, err
		}

		note := models.Notification{
			UserID:           user.ID,
			NotificationType: models.NotifyBadgeUnlocked,
			TitleEN:          "Badge unlocked!",
			TitleHI:          "बैज अनलॉक हो गया!",
			MessageEN:        fmt.Sprintf("You earned the %q badge.", badge.NameEN),
			MessageHI:        fmt.Sprintf("आपने %q बैज अर्जित किया।", badge.NameHI),
			Data:             models.JSONMap{"badge_id": badge.ID},
		}
		if err := tx.Create(&note).Error; err != nil {
			return nil, err
		}

		unlocked = append(unlocked, badge)
	}
	return unlocked, nil
}

func evaluateMilestones(tx *gorm.DB, user *models.User, streak *models.Streak, now time.Time) ([]models.Milestone, error) {
	var catalog []models.Milestone
	if err := tx.Where("is_active = ?", true).Find(&catalog).Error; err != nil {
		return nil, err
	}

	owned, err := ownedIDs(tx, &models.UserMilestone{}, "milestone_id", user.ID)
	if err != nil {
		return nil, err
	}

	var achieved []models.Milestone
	for _, ms := range catalog {
		if owned[ms.ID] {
			continue
		}
		current, err := metricValue(tx, user, streak, ms.MilestoneType, now)
		if err != nil {
			return nil, err
		}
		if current < ms.CriteriaValue {
			continue
		}

		if err := tx.Create(&models.UserMilestone{UserID: user.ID, MilestoneID: ms.ID}).Error; err != nil {
			return nil, err
		}

		user.TotalPoints += ms.PointsReward
		user.Coins += ms.CoinsReward
		if _, err := recordTransaction(tx, user, models.TxEarnedMilestone, ms.CoinsReward,
			ms.ID, "milestone", fmt.Sprintf("Milestone reward: %s", ms.NameEN)); err != nil {
			return nil, err
		}

		note := models.Notification{
			UserID:           user.ID,
			NotificationType: models.NotifyMilestoneAchieved,
			TitleEN:          "Milestone achieved!",
			TitleHI:          "मील का पत्थर हासिल!",
			MessageEN:        fmt.Sprintf("You reached the %q milestone.", ms.NameEN),
			MessageHI:        fmt.Sprintf("आपने %q मील का पत्थर हासिल किया।", ms.NameHI),
			Data:             models.JSONMap{"milestone_id": ms.ID},
		}
		if err := tx.Create(&note).Error; err != nil {
			return nil, err
		}

		achieved = append(achieved, ms)
	}
	return achieved, nil
}

func ownedIDs(tx *gorm.DB, model interface{}, column, userID string) (map[string]bool, error) {
	var ids []string
	if err := tx.Model(model).Where("user_id = ?", userID).Pluck(column, &ids).Error; err != nil {
		return nil, err
	}
	owned := make(map[string]bool, len(ids))
	for _, id := range ids {
		owned[id] = true
	}
	return owned, nil
}

// EvaluateAchievements runs a full badge and milestone evaluation for a user
// in its own transaction. Used by the nightly milestone sweep; the completion
// path evaluates inline instead.
func (e *Engine) EvaluateAchievements(userID string) ([]models.Badge, []models.Milestone, error) {
	var badges []models.Badge
	var milestones []models.Milestone

	err := e.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(lockForUpdate()).Take(&user, "id = ?", userID).Error; err != nil {
			return err
		}
		streak, err := streakForTx(tx, userID)
		if err != nil {
			return err
		}

		badges, milestones, err = evaluateAchievements(tx, &user, streak, e.Now())
		if err != nil {
			return err
		}
		if len(badges) == 0 && len(milestones) == 0 {
			return nil
		}
		user.CurrentLevel = LevelFor(user.TotalPoints).Level
		return tx.Save(&user).Error
	})
	return badges, milestones, err
}
