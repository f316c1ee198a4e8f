package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an app user. A user may be linked to exactly one partner; the link
// is symmetric and both sides are always written inside one transaction.
type User struct {
	ID           string  `gorm:"type:char(36);primaryKey" json:"id"`
	Username     string  `gorm:"size:64;not null" json:"username"`
	Email        string  `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string  `gorm:"size:255" json:"-"`
	GoogleID     *string `gorm:"size:255;uniqueIndex" json:"-"`
	PhoneNumber  string  `gorm:"size:15" json:"phone_number,omitempty"`

	Age            *int   `json:"age,omitempty"`
	ProfilePicture string `gorm:"size:512" json:"profile_picture,omitempty"`
	Bio            string `gorm:"size:500" json:"bio,omitempty"`

	PartnerID             *string    `gorm:"type:char(36);index" json:"partner_id,omitempty"`
	Partner               *User      `gorm:"foreignKey:PartnerID" json:"-"`
	RelationshipStartDate *time.Time `gorm:"type:date" json:"relationship_start_date,omitempty"`
	InvitationCode        *string    `gorm:"size:8;uniqueIndex" json:"invitation_code,omitempty"`

	PreferredLanguage string `gorm:"size:5;default:en" json:"preferred_language"`
	Theme             string `gorm:"size:10;default:auto" json:"theme"`

	TotalPoints  int `gorm:"default:0" json:"total_points"`
	CurrentLevel int `gorm:"default:1" json:"current_level"`
	Coins        int `gorm:"default:0" json:"coins"`

	LastActive time.Time `json:"last_active"`
	IsOnline   bool      `gorm:"default:false" json:"is_online"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// BeforeCreate assigns a UUID primary key and initial activity timestamp.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.LastActive.IsZero() {
		u.LastActive = time.Now()
	}
	return nil
}

// HasPartner reports whether a partner link is present.
func (u *User) HasPartner() bool {
	return u.PartnerID != nil && *u.PartnerID != ""
}

// RelationshipDurationDays returns whole days since the relationship started,
// or 0 when no start date is recorded.
func (u *User) RelationshipDurationDays(today time.Time) int {
	if u.RelationshipStartDate == nil {
		return 0
	}
	days := int(today.Sub(*u.RelationshipStartDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
