package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bondlyapp/bondly/gamification"
	"github.com/bondlyapp/bondly/utils"
)

// RewardController serves the coin economy and level table.
type RewardController struct {
	db     *gorm.DB
	engine *gamification.Engine
}

// NewRewardController creates a RewardController.
func NewRewardController(db *gorm.DB, engine *gamification.Engine) *RewardController {
	return &RewardController{db: db, engine: engine}
}

// GetCoins returns the balance and recent ledger rows.
func (r *RewardController) GetCoins(ctx *gin.Context) {
	user, ok := loadCurrentUser(ctx, r.db)
	if !ok {
		return
	}

	limit := 20
	if v := strings.TrimSpace(ctx.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	rows, err := r.engine.RecentTransactions(user.ID, limit)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to load transactions")
		return
	}

	utils.Success(ctx, gin.H{
		"coins":               user.Coins,
		"recent_transactions": rows,
	})
}

// SpendCoins deducts coins for an in-app purchase.
func (r *RewardController) SpendCoins(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req struct {
		ItemType string `json:"item_type" binding:"required"`
		ItemID   string `json:"item_id"`
		Cost     int    `json:"cost" binding:"required,min=1"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40018, "invalid request payload")
		return
	}

	result, err := r.engine.SpendCoins(userID, req.ItemType, req.ItemID, req.Cost)
	if err != nil {
		engineError(ctx, err)
		return
	}

	utils.SuccessMsg(ctx, "coins spent", gin.H{
		"new_balance": result.NewBalance,
		"transaction": result.Transaction,
	})
}

// GetLevels returns the level table and the caller's position in it.
func (r *RewardController) GetLevels(ctx *gin.Context) {
	user, ok := loadCurrentUser(ctx, r.db)
	if !ok {
		return
	}

	levels := make([]gin.H, 0, len(gamification.LevelThresholds))
	for _, t := range gamification.LevelThresholds {
		item := gin.H{
			"level":      t.Level,
			"name":       t.Name,
			"min_points": t.Min,
		}
		if t.Max >= 0 {
			item["max_points"] = t.Max
		}
		levels = append(levels, item)
	}

	utils.Success(ctx, gin.H{
		"levels":       levels,
		"total_points": user.TotalPoints,
		"progress":     gamification.LevelFor(user.TotalPoints),
	})
}

// ClaimDailyBonus grants the once-per-day login bonus.
func (r *RewardController) ClaimDailyBonus(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	result, err := r.engine.ClaimDailyBonus(userID)
	if err != nil {
		engineError(ctx, err)
		return
	}

	utils.SuccessMsg(ctx, "daily bonus claimed", gin.H{
		"coins_earned": result.Transaction.Amount,
		"new_balance":  result.NewBalance,
	})
}
