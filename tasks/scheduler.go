package tasks

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/bondlyapp/bondly/gamification"
	"github.com/bondlyapp/bondly/models"
	"github.com/bondlyapp/bondly/utils"
)

// Scheduler runs the periodic maintenance jobs in background goroutines.
// Every job is best-effort: failures are logged and retried on the next tick.
type Scheduler struct {
	db     *gorm.DB
	engine *gamification.Engine
}

// NewScheduler creates a Scheduler.
func NewScheduler(db *gorm.DB, engine *gamification.Engine) *Scheduler {
	return &Scheduler{db: db, engine: engine}
}

// Start launches all background jobs.
func (s *Scheduler) Start() {
	s.startLoop("streak warnings", time.Hour, s.sendStreakWarnings)
	s.startLoop("milestone sweep", 6*time.Hour, s.sweepMilestones)
	s.startLoop("notification cleanup", 24*time.Hour, s.cleanupNotifications)
}

func (s *Scheduler) startLoop(name string, interval time.Duration, job func() error) {
	go func() {
		for {
			// Sleep first to avoid racing immediately at startup
			time.Sleep(interval)
			if err := job(); err != nil {
				utils.Sugar.Warnf("%s job failed: %v", name, err)
			}
		}
	}()
}

// sendStreakWarnings notifies users whose streak breaks unless they complete
// an activity today. A user is warned at most once per calendar day.
func (s *Scheduler) sendStreakWarnings() error {
	today := s.engine.Today()
	yesterday := today.AddDate(0, 0, -1)

	var atRisk []models.Streak
	if err := s.db.Where("last_activity_date = ? AND current_streak > 0", yesterday).
		Find(&atRisk).Error; err != nil {
		return err
	}

	warned := 0
	for _, streak := range atRisk {
		var pref models.UserPreference
		if err := s.db.Where("user_id = ?", streak.UserID).Take(&pref).Error; err == nil && !pref.StreakReminders {
			continue
		}

		var already int64
		if err := s.db.Model(&models.Notification{}).
			Where("user_id = ? AND notification_type = ? AND created_at >= ?",
				streak.UserID, models.NotifyStreakReminder, today).
			Count(&already).Error; err != nil {
			return err
		}
		if already > 0 {
			continue
		}

		note := models.Notification{
			UserID:           streak.UserID,
			NotificationType: models.NotifyStreakReminder,
			TitleEN:          "Your streak is at risk!",
			TitleHI:          "आपकी स्ट्रीक खतरे में है!",
			MessageEN:        fmt.Sprintf("Complete an activity today to keep your %d-day streak alive.", streak.CurrentStreak),
			MessageHI:        fmt.Sprintf("अपनी %d-दिन की स्ट्रीक बनाए रखने के लिए आज एक गतिविधि पूरी करें।", streak.CurrentStreak),
			Data:             models.JSONMap{"current_streak": streak.CurrentStreak},
		}
		if err := s.db.Create(&note).Error; err != nil {
			return err
		}
		warned++
	}

	if warned > 0 {
		utils.Sugar.Infof("streak warnings sent to %d users", warned)
	}
	return nil
}

// sweepMilestones re-evaluates achievements for recently active users. This
// catches time-based unlocks (relationship duration) that no completion
// triggers.
func (s *Scheduler) sweepMilestones() error {
	cutoff := s.engine.Now().Add(-30 * 24 * time.Hour)

	var userIDs []string
	if err := s.db.Model(&models.User{}).
		Where("last_active >= ?", cutoff).
		Pluck("id", &userIDs).Error; err != nil {
		return err
	}

	unlocks := 0
	for _, id := range userIDs {
		badges, milestones, err := s.engine.EvaluateAchievements(id)
		if err != nil {
			utils.Sugar.Warnf("milestone sweep for user %s failed: %v", id, err)
			continue
		}
		unlocks += len(badges) + len(milestones)
	}

	if unlocks > 0 {
		utils.Sugar.Infof("milestone sweep granted %d achievements across %d users", unlocks, len(userIDs))
	}
	return nil
}

// cleanupNotifications deletes read notifications older than 30 days.
func (s *Scheduler) cleanupNotifications() error {
	cutoff := s.engine.Now().Add(-30 * 24 * time.Hour)
	res := s.db.Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		utils.Sugar.Infof("notification cleanup removed %d rows", res.RowsAffected)
	}
	return nil
}
