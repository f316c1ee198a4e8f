package models

import "time"

// UserPreference holds notification and activity preferences. One row per
// user, created with defaults during registration.
type UserPreference struct {
	ID     uint   `gorm:"primaryKey" json:"-"`
	UserID string `gorm:"type:char(36);uniqueIndex;not null" json:"-"`

	DailyReminderEnabled   bool   `gorm:"default:true" json:"daily_reminder_enabled"`
	DailyReminderTime      string `gorm:"size:8;default:09:00" json:"daily_reminder_time"`
	PartnerActivityAlerts  bool   `gorm:"default:true" json:"partner_activity_alerts"`
	StreakReminders        bool   `gorm:"default:true" json:"streak_reminders"`
	MilestoneNotifications bool   `gorm:"default:true" json:"milestone_notifications"`

	SoundEnabled     bool `gorm:"default:true" json:"sound_enabled"`
	VibrationEnabled bool `gorm:"default:true" json:"vibration_enabled"`

	ActivityDifficulty    string `gorm:"size:10;default:all" json:"activity_difficulty"`
	NotificationFrequency string `gorm:"size:10;default:medium" json:"notification_frequency"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (UserPreference) TableName() string { return "user_preferences" }
