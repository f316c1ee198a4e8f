package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Coin transaction types. Positive amounts earn, negative amounts spend.
const (
	TxEarnedActivity   = "earned_activity"
	TxEarnedDailyBonus = "earned_daily_bonus"
	TxEarnedStreak     = "earned_streak"
	TxEarnedBadge      = "earned_badge"
	TxEarnedMilestone  = "earned_milestone"
	TxSpentUnlock      = "spent_unlock"
	TxSpentHint        = "spent_hint"
	TxSpentTheme       = "spent_theme"
	TxSpentCustom      = "spent_custom"
)

// CoinTransaction is an append-only ledger row. BalanceAfter is a snapshot of
// the user's balance after the amount was applied; replaying all rows for a
// user in creation order must always reproduce the current balance.
type CoinTransaction struct {
	ID     string `gorm:"type:char(36);primaryKey" json:"id"`
	UserID string `gorm:"type:char(36);index:idx_coin_tx_user_created;not null" json:"user_id"`

	TransactionType string `gorm:"size:30;not null" json:"transaction_type"`
	Amount          int    `gorm:"not null" json:"amount"`
	BalanceAfter    int    `gorm:"not null" json:"balance_after"`

	RelatedObjectID   *string `gorm:"type:char(36)" json:"related_object_id,omitempty"`
	RelatedObjectType string  `gorm:"size:50" json:"related_object_type,omitempty"`

	Description string    `gorm:"size:200" json:"description"`
	CreatedAt   time.Time `gorm:"index:idx_coin_tx_user_created" json:"created_at"`
}

func (CoinTransaction) TableName() string { return "coin_transactions" }

func (t *CoinTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
