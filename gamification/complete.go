package gamification

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/bondlyapp/bondly/models"
)

// CompletionInput carries the user-supplied payload for finishing a session.
type CompletionInput struct {
	SessionID         string
	Responses         models.JSONMap
	Photos            models.StringList
	Notes             string
	Rating            *int
	Feedback          string
	SharedWithPartner *bool
}

// CompletionResult summarizes everything a completion changed.
type CompletionResult struct {
	Completion models.ActivityCompletion
	Activity   models.Activity

	PointsEarned int
	CoinsEarned  int
	TotalPoints  int
	TotalCoins   int
	Level        int
	LeveledUp    bool

	Streak models.Streak

	UnlockedBadges     []models.Badge
	AchievedMilestones []models.Milestone
}

// CompleteActivity finishes an open session owned by userID. The whole
// operation is one transaction: completion row, session transition, point and
// coin credit, level recompute, streak update, ledger entry and achievement
// evaluation land together or not at all. The session row is locked first, so
// of two concurrent completions for the same session exactly one wins and the
// other fails with ErrSessionNotOpen.
func (e *Engine) CompleteActivity(userID string, in CompletionInput) (*CompletionResult, error) {
	if in.Rating != nil && (*in.Rating < 1 || *in.Rating > 5) {
		return nil, ErrInvalidRating
	}

	var result CompletionResult

	err := e.db.Transaction(func(tx *gorm.DB) error {
		var session models.ActivitySession
		err := tx.Clauses(lockForUpdate()).Take(&session, "id = ?", in.SessionID).Error
		if err == gorm.ErrRecordNotFound {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		if session.UserID != userID {
			return ErrNotSessionOwner
		}
		if !session.IsOpen() {
			return ErrSessionNotOpen
		}

		var activity models.Activity
		if err := tx.Take(&activity, "id = ?", session.ActivityID).Error; err != nil {
			return err
		}

		var user models.User
		if err := tx.Clauses(lockForUpdate()).Take(&user, "id = ?", userID).Error; err != nil {
			return err
		}

		now := e.Now()
		shared := true
		if in.SharedWithPartner != nil {
			shared = *in.SharedWithPartner
		}

		// Rewards are fixed at completion time; later template edits must
		// not rewrite history.
		completion := models.ActivityCompletion{
			UserID:            userID,
			ActivityID:        activity.ID,
			SessionID:         session.ID,
			Responses:         in.Responses,
			Photos:            in.Photos,
			Notes:             in.Notes,
			Rating:            in.Rating,
			Feedback:          in.Feedback,
			PointsEarned:      activity.PointsReward,
			CoinsEarned:       activity.CoinsReward,
			SharedWithPartner: shared,
			CompletedAt:       now,
		}
		if err := tx.Create(&completion).Error; err != nil {
			return err
		}

		session.Status = models.SessionCompleted
		session.CompletedAt = &now
		session.TimeSpentSeconds = int(now.Sub(session.StartedAt).Seconds())
		if err := tx.Save(&session).Error; err != nil {
			return err
		}

		previousLevel := user.CurrentLevel
		user.TotalPoints += completion.PointsEarned
		user.Coins += completion.CoinsEarned
		user.CurrentLevel = LevelFor(user.TotalPoints).Level

		streak, err := streakForTx(tx, userID)
		if err != nil {
			return err
		}
		streak.Update(now)
		if err := tx.Save(streak).Error; err != nil {
			return err
		}

		if _, err := recordTransaction(tx, &user, models.TxEarnedActivity, completion.CoinsEarned,
			activity.ID, "activity", fmt.Sprintf("Earned from completing %s", activity.TitleEN)); err != nil {
			return err
		}

		if err := bumpActivityStats(tx, &activity, in.Rating); err != nil {
			return err
		}

		badges, milestones, err := evaluateAchievements(tx, &user, streak, now)
		if err != nil {
			return err
		}
		// Achievement rewards can push the total over a threshold too.
		user.CurrentLevel = LevelFor(user.TotalPoints).Level

		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		result = CompletionResult{
			Completion:         completion,
			Activity:           activity,
			PointsEarned:       completion.PointsEarned,
			CoinsEarned:        completion.CoinsEarned,
			TotalPoints:        user.TotalPoints,
			TotalCoins:         user.Coins,
			Level:              user.CurrentLevel,
			LeveledUp:          user.CurrentLevel > previousLevel,
			Streak:             *streak,
			UnlockedBadges:     badges,
			AchievedMilestones: milestones,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// bumpActivityStats maintains the catalog analytics: completion counter and,
// when a rating was given, the running average. The row is re-read under a
// lock so concurrent completions fold their ratings into each other's counts.
func bumpActivityStats(tx *gorm.DB, activity *models.Activity, rating *int) error {
	if err := tx.Clauses(lockForUpdate()).Take(activity, "id = ?", activity.ID).Error; err != nil {
		return err
	}
	activity.CompletionCount++
	if rating != nil {
		activity.AverageRating = (activity.AverageRating*float64(activity.CompletionCount-1) +
			float64(*rating)) / float64(activity.CompletionCount)
	}
	return tx.Model(activity).UpdateColumns(map[string]interface{}{
		"completion_count": activity.CompletionCount,
		"average_rating":   activity.AverageRating,
	}).Error
}

// StartActivity opens a session for the activity, returning the existing open
// session instead of creating a duplicate. Premium activities must be either
// previously completed or affordable before a session is allowed. A together
// session pairs with the partner's open together session on the same activity
// when one exists; otherwise the partner is invited with a notification.
func (e *Engine) StartActivity(user *models.User, activityID, mode string) (*models.ActivitySession, bool, error) {
	var activity models.Activity
	err := e.db.Take(&activity, "id = ? AND is_active = ?", activityID, true).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, ErrActivityNotFound
	}
	if err != nil {
		return nil, false, err
	}

	if activity.IsPremium {
		var completed int64
		if err := e.db.Model(&models.ActivityCompletion{}).
			Where("user_id = ? AND activity_id = ?", user.ID, activity.ID).
			Count(&completed).Error; err != nil {
			return nil, false, err
		}
		if completed == 0 && user.Coins < activity.UnlockCostCoins {
			return nil, false, ErrPremiumLocked
		}
	}

	var existing models.ActivitySession
	err = e.db.Where("user_id = ? AND activity_id = ? AND status IN ?",
		user.ID, activity.ID, models.OpenSessionStatuses).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, err
	}

	if mode != models.ModeTogether {
		mode = models.ModeSolo
	}
	session := models.ActivitySession{
		UserID:     user.ID,
		ActivityID: activity.ID,
		Status:     models.SessionStarted,
		Mode:       mode,
		StartedAt:  e.Now(),
	}

	err = e.db.Transaction(func(tx *gorm.DB) error {
		if mode == models.ModeTogether && user.HasPartner() {
			var partnerSession models.ActivitySession
			err := tx.Clauses(lockForUpdate()).
				Where("user_id = ? AND activity_id = ? AND mode = ? AND status IN ?",
					*user.PartnerID, activity.ID, models.ModeTogether, models.OpenSessionStatuses).
				First(&partnerSession).Error
			if err != nil && err != gorm.ErrRecordNotFound {
				return err
			}
			if err == nil {
				session.PartnerSessionID = &partnerSession.ID
			}
		}

		if err := tx.Create(&session).Error; err != nil {
			return err
		}

		// Both rows point at each other once paired.
		if session.PartnerSessionID != nil {
			return tx.Model(&models.ActivitySession{}).
				Where("id = ?", *session.PartnerSessionID).
				Update("partner_session_id", session.ID).Error
		}

		if mode == models.ModeTogether && user.HasPartner() {
			note := models.Notification{
				UserID:           *user.PartnerID,
				NotificationType: models.NotifyPartnerActivity,
				TitleEN:          fmt.Sprintf("%s started an activity", user.Username),
				TitleHI:          fmt.Sprintf("%s ने एक गतिविधि शुरू की", user.Username),
				MessageEN:        fmt.Sprintf("Join them in %q", activity.TitleEN),
				MessageHI:        fmt.Sprintf("उनके साथ %q में शामिल हों", activity.TitleHI),
				Data:             models.JSONMap{"activity_id": activity.ID, "session_id": session.ID},
			}
			return tx.Create(&note).Error
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return &session, true, nil
}

// SkipResult reports skip quota usage after a skip.
type SkipResult struct {
	SkipsUsed      int
	MaxSkipsPerDay int
	SkipsRemaining int
}

// SkipActivity consumes one of the user's daily skips and closes any open
// session on the activity. The per-day counter row is locked so concurrent
// skips cannot exceed the cap.
func (e *Engine) SkipActivity(userID, activityID string) (*SkipResult, error) {
	var result SkipResult

	err := e.db.Transaction(func(tx *gorm.DB) error {
		today := e.Today()

		var limit models.SkipLimit
		err := tx.Clauses(lockForUpdate()).
			Where("user_id = ? AND date = ?", userID, today).
			Take(&limit).Error
		if err == gorm.ErrRecordNotFound {
			limit = models.SkipLimit{UserID: userID, Date: today, MaxSkipsPerDay: e.MaxSkipsPerDay}
			err = tx.Create(&limit).Error
		}
		if err != nil {
			return err
		}

		if !limit.CanSkip() {
			return ErrSkipLimitReached
		}

		limit.SkipsUsed++
		if err := tx.Save(&limit).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.ActivitySession{}).
			Where("user_id = ? AND activity_id = ? AND status IN ?", userID, activityID, models.OpenSessionStatuses).
			Update("status", models.SessionSkipped).Error; err != nil {
			return err
		}

		result = SkipResult{
			SkipsUsed:      limit.SkipsUsed,
			MaxSkipsPerDay: limit.MaxSkipsPerDay,
			SkipsRemaining: limit.MaxSkipsPerDay - limit.SkipsUsed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
