package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityCategory groups activities. Display strings are stored in both
// supported languages; controllers pick one per the user's preference.
type ActivityCategory struct {
	ID            string `gorm:"type:char(36);primaryKey" json:"id"`
	NameEN        string `gorm:"size:100;not null" json:"-"`
	NameHI        string `gorm:"size:100;not null" json:"-"`
	DescriptionEN string `gorm:"type:text" json:"-"`
	DescriptionHI string `gorm:"type:text" json:"-"`
	Icon          string `gorm:"size:50" json:"icon"`
	Color         string `gorm:"size:7;default:#FFB6C1" json:"color"`
	DisplayOrder  int    `gorm:"default:0" json:"display_order"`
	IsActive      bool   `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (ActivityCategory) TableName() string { return "activity_categories" }

func (c *ActivityCategory) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Name returns the localized category name.
func (c *ActivityCategory) Name(lang string) string {
	if lang == "hi" {
		return c.NameHI
	}
	return c.NameEN
}

// Description returns the localized category description.
func (c *ActivityCategory) Description(lang string) string {
	if lang == "hi" {
		return c.DescriptionHI
	}
	return c.DescriptionEN
}
