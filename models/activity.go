package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Activity difficulty, scheduling and mode enums.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyDeep   = "deep"

	ModeSolo     = "solo"
	ModeTogether = "together"
	ModeBoth     = "both"
)

// Activity is a completable template. Rewards are copied onto the completion
// row at completion time, so later edits never affect history.
type Activity struct {
	ID         string            `gorm:"type:char(36);primaryKey" json:"id"`
	CategoryID string            `gorm:"type:char(36);index:idx_activities_category_difficulty;not null" json:"category_id"`
	Category   *ActivityCategory `gorm:"foreignKey:CategoryID" json:"-"`

	TitleEN        string      `gorm:"size:200;not null" json:"-"`
	TitleHI        string      `gorm:"size:200;not null" json:"-"`
	DescriptionEN  string      `gorm:"type:text" json:"-"`
	DescriptionHI  string      `gorm:"type:text" json:"-"`
	InstructionsEN StringList  `gorm:"type:json" json:"-"`
	InstructionsHI StringList  `gorm:"type:json" json:"-"`

	Difficulty           string `gorm:"size:10;default:medium;index:idx_activities_category_difficulty" json:"difficulty"`
	EstimatedTimeMinutes int    `json:"estimated_time_minutes"`
	BestTime             string `gorm:"size:10;default:anytime" json:"best_time"`
	Mode                 string `gorm:"size:10;default:both" json:"mode"`

	MaterialsNeededEN StringList `gorm:"type:json" json:"-"`
	MaterialsNeededHI StringList `gorm:"type:json" json:"-"`
	TipsEN            StringList `gorm:"type:json" json:"-"`
	TipsHI            StringList `gorm:"type:json" json:"-"`
	QuestionsEN       StringList `gorm:"type:json" json:"-"`
	QuestionsHI       StringList `gorm:"type:json" json:"-"`

	PointsReward int `gorm:"default:10" json:"points_reward"`
	CoinsReward  int `gorm:"default:10" json:"coins_reward"`

	IsPremium       bool `gorm:"default:false;index" json:"is_premium"`
	UnlockCostCoins int  `gorm:"default:0" json:"unlock_cost_coins"`

	IsActive        bool `gorm:"default:true" json:"is_active"`
	IsDailyFeatured bool `gorm:"default:false;index" json:"is_daily_featured"`

	CompletionCount int     `gorm:"default:0" json:"completion_count"`
	AverageRating   float64 `gorm:"type:decimal(3,2);default:0" json:"average_rating"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (Activity) TableName() string { return "activities" }

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Title returns the localized activity title.
func (a *Activity) Title(lang string) string {
	if lang == "hi" {
		return a.TitleHI
	}
	return a.TitleEN
}

// Description returns the localized activity description.
func (a *Activity) Description(lang string) string {
	if lang == "hi" {
		return a.DescriptionHI
	}
	return a.DescriptionEN
}

// Instructions returns the localized step list.
func (a *Activity) Instructions(lang string) StringList {
	if lang == "hi" {
		return a.InstructionsHI
	}
	return a.InstructionsEN
}
