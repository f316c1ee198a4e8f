package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Badge is a catalog achievement with a typed unlock predicate.
type Badge struct {
	ID            string `gorm:"type:char(36);primaryKey" json:"id"`
	NameEN        string `gorm:"size:100;not null" json:"-"`
	NameHI        string `gorm:"size:100;not null" json:"-"`
	DescriptionEN string `gorm:"type:text" json:"-"`
	DescriptionHI string `gorm:"type:text" json:"-"`

	Icon     string `gorm:"size:100" json:"icon"`
	Category string `gorm:"size:20" json:"category"`

	Criteria     BadgeCriteria `gorm:"type:json;not null" json:"criteria"`
	PointsReward int           `gorm:"default:50" json:"points_reward"`
	CoinsReward  int           `gorm:"default:20" json:"coins_reward"`

	Rarity       string `gorm:"size:10;default:common" json:"rarity"`
	DisplayOrder int    `gorm:"default:0" json:"display_order"`

	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"-"`
}

func (Badge) TableName() string { return "badges" }

func (b *Badge) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Name returns the localized badge name.
func (b *Badge) Name(lang string) string {
	if lang == "hi" {
		return b.NameHI
	}
	return b.NameEN
}

// Description returns the localized badge description.
func (b *Badge) Description(lang string) string {
	if lang == "hi" {
		return b.DescriptionHI
	}
	return b.DescriptionEN
}

// UserBadge marks a badge unlock. Unlocking is monotonic: the unique index on
// (user, badge) guarantees at most one row per pair.
type UserBadge struct {
	ID      string `gorm:"type:char(36);primaryKey" json:"id"`
	UserID  string `gorm:"type:char(36);uniqueIndex:idx_user_badge;not null" json:"user_id"`
	BadgeID string `gorm:"type:char(36);uniqueIndex:idx_user_badge;not null" json:"badge_id"`
	Badge   *Badge `gorm:"foreignKey:BadgeID" json:"-"`

	UnlockedAt  time.Time `json:"unlocked_at"`
	IsDisplayed bool      `gorm:"default:false" json:"is_displayed"`
}

func (UserBadge) TableName() string { return "user_badges" }

func (ub *UserBadge) BeforeCreate(tx *gorm.DB) error {
	if ub.ID == "" {
		ub.ID = uuid.NewString()
	}
	if ub.UnlockedAt.IsZero() {
		ub.UnlockedAt = time.Now()
	}
	return nil
}
