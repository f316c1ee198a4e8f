package gamification

import (
	"gorm.io/gorm"

	"github.com/bondlyapp/bondly/models"
)

// recordTransaction appends one ledger row. The caller must have already
// applied amount to the user's in-memory balance: BalanceAfter snapshots
// user.Coins as-is and is never recomputed later.
func recordTransaction(tx *gorm.DB, user *models.User, txType string, amount int, relatedID, relatedType, description string) (*models.CoinTransaction, error) {
	row := models.CoinTransaction{
		UserID:            user.ID,
		TransactionType:   txType,
		Amount:            amount,
		BalanceAfter:      user.Coins,
		RelatedObjectType: relatedType,
		Description:       description,
	}
	if relatedID != "" {
		row.RelatedObjectID = &relatedID
	}
	if err := tx.Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// RecentTransactions returns the newest ledger rows for a user.
func (e *Engine) RecentTransactions(userID string, limit int) ([]models.CoinTransaction, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []models.CoinTransaction
	err := e.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
