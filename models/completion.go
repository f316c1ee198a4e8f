package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityCompletion is the immutable record of a finished session. Earned
// rewards are snapshots of the activity's values at completion time.
type ActivityCompletion struct {
	ID         string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserID     string    `gorm:"type:char(36);index:idx_completions_user_completed;not null" json:"user_id"`
	ActivityID string    `gorm:"type:char(36);index;not null" json:"activity_id"`
	Activity   *Activity `gorm:"foreignKey:ActivityID" json:"-"`
	SessionID  string    `gorm:"type:char(36);uniqueIndex;not null" json:"session_id"`

	Responses JSONMap    `gorm:"type:json" json:"responses,omitempty"`
	Photos    StringList `gorm:"type:json" json:"photos,omitempty"`
	Notes     string     `gorm:"type:text" json:"notes,omitempty"`

	Rating   *int   `json:"rating,omitempty"`
	Feedback string `gorm:"type:text" json:"feedback,omitempty"`

	PointsEarned int `gorm:"default:10" json:"points_earned"`
	CoinsEarned  int `gorm:"default:10" json:"coins_earned"`

	SharedWithPartner bool `gorm:"default:true" json:"shared_with_partner"`

	CompletedAt time.Time `gorm:"index:idx_completions_user_completed" json:"completed_at"`
}

func (ActivityCompletion) TableName() string { return "activity_completions" }

func (c *ActivityCompletion) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CompletedAt.IsZero() {
		c.CompletedAt = time.Now()
	}
	return nil
}
