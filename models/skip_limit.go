package models

import "time"

// SkipLimit counts skip actions per user and calendar day. A fresh row per
// date gives the implicit daily reset.
type SkipLimit struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	UserID         string    `gorm:"type:char(36);uniqueIndex:idx_skip_user_date;not null" json:"-"`
	Date           time.Time `gorm:"type:date;uniqueIndex:idx_skip_user_date;not null" json:"date"`
	SkipsUsed      int       `gorm:"default:0" json:"skips_used"`
	MaxSkipsPerDay int       `gorm:"default:2" json:"max_skips_per_day"`
}

func (SkipLimit) TableName() string { return "skip_limits" }

// CanSkip reports whether another skip is allowed today.
func (s *SkipLimit) CanSkip() bool {
	return s.SkipsUsed < s.MaxSkipsPerDay
}
