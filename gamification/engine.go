package gamification

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bondlyapp/bondly/models"
)

// Engine runs the gamification bookkeeping: activity completion, streaks,
// the coin ledger, achievements and partner links. Every mutating operation
// executes inside a single database transaction.
type Engine struct {
	db *gorm.DB

	// Now supplies the engine's clock. Overridable so date-sensitive logic
	// (streaks, skip limits, daily bonus) is deterministic in tests.
	Now func() time.Time

	MaxSkipsPerDay  int
	DailyBonusCoins int
}

// New creates an engine with default settings.
func New(db *gorm.DB) *Engine {
	return &Engine{
		db:              db,
		Now:             time.Now,
		MaxSkipsPerDay:  2,
		DailyBonusCoins: 5,
	}
}

// Today returns the engine clock's current calendar date.
func (e *Engine) Today() time.Time {
	return models.DateOnly(e.Now())
}

// StreakFor loads the user's streak row, creating a zeroed one on first use.
func (e *Engine) StreakFor(userID string) (*models.Streak, error) {
	var streak models.Streak
	err := e.db.Where("user_id = ?", userID).Take(&streak).Error
	if err == gorm.ErrRecordNotFound {
		streak = models.Streak{UserID: userID}
		err = e.db.Create(&streak).Error
	}
	if err != nil {
		return nil, err
	}
	return &streak, nil
}

func lockForUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

func streakForTx(tx *gorm.DB, userID string) (*models.Streak, error) {
	var streak models.Streak
	err := tx.Where("user_id = ?", userID).Take(&streak).Error
	if err == gorm.ErrRecordNotFound {
		streak = models.Streak{UserID: userID}
		err = tx.Create(&streak).Error
	}
	if err != nil {
		return nil, err
	}
	return &streak, nil
}
