package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session status values. A session is "open" in started or in_progress.
const (
	SessionStarted    = "started"
	SessionInProgress = "in_progress"
	SessionCompleted  = "completed"
	SessionSkipped    = "skipped"
	SessionAbandoned  = "abandoned"
)

// OpenSessionStatuses is the set of states a session can still be completed from.
var OpenSessionStatuses = []string{SessionStarted, SessionInProgress}

// ActivitySession is a started attempt at an activity, owned by one user.
type ActivitySession struct {
	ID         string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserID     string    `gorm:"type:char(36);index:idx_sessions_user_status;not null" json:"user_id"`
	ActivityID string    `gorm:"type:char(36);not null" json:"activity_id"`
	Activity   *Activity `gorm:"foreignKey:ActivityID" json:"-"`

	Status string `gorm:"size:20;default:started;index:idx_sessions_user_status" json:"status"`
	Mode   string `gorm:"size:10;default:solo" json:"mode"`

	PartnerSessionID *string `gorm:"type:char(36)" json:"partner_session_id,omitempty"`

	StartedAt        time.Time  `gorm:"index" json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	TimeSpentSeconds int        `gorm:"default:0" json:"time_spent_seconds"`
}

func (ActivitySession) TableName() string { return "activity_sessions" }

func (s *ActivitySession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now()
	}
	return nil
}

// IsOpen reports whether the session can still transition to a terminal state.
func (s *ActivitySession) IsOpen() bool {
	return s.Status == SessionStarted || s.Status == SessionInProgress
}
