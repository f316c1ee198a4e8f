package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Milestone is a relationship milestone gated on a single metric threshold.
type Milestone struct {
	ID            string `gorm:"type:char(36);primaryKey" json:"id"`
	NameEN        string `gorm:"size:100;not null" json:"-"`
	NameHI        string `gorm:"size:100;not null" json:"-"`
	DescriptionEN string `gorm:"type:text" json:"-"`
	DescriptionHI string `gorm:"type:text" json:"-"`

	Icon          string       `gorm:"size:50" json:"icon"`
	MilestoneType CriteriaType `gorm:"size:30;not null" json:"milestone_type"`
	CriteriaValue int          `gorm:"not null" json:"criteria_value"`

	PointsReward int `gorm:"default:100" json:"points_reward"`
	CoinsReward  int `gorm:"default:50" json:"coins_reward"`

	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"-"`
}

func (Milestone) TableName() string { return "milestones" }

func (m *Milestone) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Name returns the localized milestone name.
func (m *Milestone) Name(lang string) string {
	if lang == "hi" {
		return m.NameHI
	}
	return m.NameEN
}

// Description returns the localized milestone description.
func (m *Milestone) Description(lang string) string {
	if lang == "hi" {
		return m.DescriptionHI
	}
	return m.DescriptionEN
}

// UserMilestone marks a milestone achievement, unique per (user, milestone).
type UserMilestone struct {
	ID          string     `gorm:"type:char(36);primaryKey" json:"id"`
	UserID      string     `gorm:"type:char(36);uniqueIndex:idx_user_milestone;not null" json:"user_id"`
	MilestoneID string     `gorm:"type:char(36);uniqueIndex:idx_user_milestone;not null" json:"milestone_id"`
	Milestone   *Milestone `gorm:"foreignKey:MilestoneID" json:"-"`

	AchievedAt          time.Time `json:"achieved_at"`
	PartnerAlsoAchieved bool      `gorm:"default:false" json:"partner_also_achieved"`
}

func (UserMilestone) TableName() string { return "user_milestones" }

func (um *UserMilestone) BeforeCreate(tx *gorm.DB) error {
	if um.ID == "" {
		um.ID = uuid.NewString()
	}
	if um.AchievedAt.IsZero() {
		um.AchievedAt = time.Now()
	}
	return nil
}
