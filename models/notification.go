package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification types for in-app events. Delivery to push/email channels is an
// external concern; the backend only writes rows and flips is_sent.
const (
	NotifyPartnerActivity   = "partner_activity"
	NotifyStreakReminder    = "streak_reminder"
	NotifyDailyActivity     = "daily_activity"
	NotifyBadgeUnlocked     = "badge_unlocked"
	NotifyMilestoneAchieved = "milestone_achieved"
	NotifyPartnerInvite     = "partner_invite"
	NotifyPartnerJoined     = "partner_joined"
)

// Notification is a fire-and-forget message attached to a user.
type Notification struct {
	ID     string `gorm:"type:char(36);primaryKey" json:"id"`
	UserID string `gorm:"type:char(36);index:idx_notifications_user_read;not null" json:"user_id"`

	NotificationType string `gorm:"size:30;not null" json:"notification_type"`

	TitleEN   string `gorm:"size:200" json:"-"`
	TitleHI   string `gorm:"size:200" json:"-"`
	MessageEN string `gorm:"type:text" json:"-"`
	MessageHI string `gorm:"type:text" json:"-"`

	Data JSONMap `gorm:"type:json" json:"data,omitempty"`

	IsRead bool `gorm:"default:false;index:idx_notifications_user_read" json:"is_read"`
	IsSent bool `gorm:"default:false" json:"is_sent"`

	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}

func (Notification) TableName() string { return "notifications" }

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// Title returns the localized notification title.
func (n *Notification) Title(lang string) string {
	if lang == "hi" {
		return n.TitleHI
	}
	return n.TitleEN
}

// Message returns the localized notification body.
func (n *Notification) Message(lang string) string {
	if lang == "hi" {
		return n.MessageHI
	}
	return n.MessageEN
}
