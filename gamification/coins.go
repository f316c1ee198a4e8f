package gamification

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/bondlyapp/bondly/models"
)

var spendTypes = map[string]string{
	"unlock_activity": models.TxSpentUnlock,
	"hint":            models.TxSpentHint,
	"theme":           models.TxSpentTheme,
	"custom_activity": models.TxSpentCustom,
}

// SpendResult reports the outcome of a coin spend.
type SpendResult struct {
	NewBalance  int
	Transaction models.CoinTransaction
}

// SpendCoins deducts cost from the user's balance and appends the matching
// ledger row. Balance is re-checked under a row lock inside the transaction,
// so concurrent spends cannot overdraft; on failure no ledger row is written.
func (e *Engine) SpendCoins(userID, itemType, itemID string, cost int) (*SpendResult, error) {
	txType, ok := spendTypes[itemType]
	if !ok {
		return nil, ErrInvalidSpendType
	}
	if cost < 1 {
		return nil, ErrInvalidSpendType
	}

	var result SpendResult

	err := e.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(lockForUpdate()).Take(&user, "id = ?", userID).Error; err != nil {
			return err
		}
		if user.Coins < cost {
			return ErrInsufficientCoins
		}

		user.Coins -= cost
		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		row, err := recordTransaction(tx, &user, txType, -cost, itemID, itemType,
			fmt.Sprintf("Spent on %s", itemType))
		if err != nil {
			return err
		}

		result = SpendResult{NewBalance: user.Coins, Transaction: *row}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ClaimDailyBonus grants the once-per-day login bonus. The same-day guard
// runs against the ledger inside the transaction, keyed on the engine clock's
// calendar date.
func (e *Engine) ClaimDailyBonus(userID string) (*SpendResult, error) {
	var result SpendResult

	err := e.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(lockForUpdate()).Take(&user, "id = ?", userID).Error; err != nil {
			return err
		}

		today := e.Today()
		var claimed int64
		if err := tx.Model(&models.CoinTransaction{}).
			Where("user_id = ? AND transaction_type = ? AND created_at >= ?",
				userID, models.TxEarnedDailyBonus, today).
			Count(&claimed).Error; err != nil {
			return err
		}
		if claimed > 0 {
			return ErrBonusAlreadyClaimed
		}

		user.Coins += e.DailyBonusCoins
		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		row, err := recordTransaction(tx, &user, models.TxEarnedDailyBonus, e.DailyBonusCoins,
			"", "", "Daily login bonus")
		if err != nil {
			return err
		}

		result = SpendResult{NewBalance: user.Coins, Transaction: *row}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
