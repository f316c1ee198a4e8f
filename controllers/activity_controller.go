package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bondlyapp/bondly/gamification"
	"github.com/bondlyapp/bondly/models"
	"github.com/bondlyapp/bondly/utils"
)

const dailyActivityCount = 3

// ActivityController serves the activity catalog and the session lifecycle.
type ActivityController struct {
	db     *gorm.DB
	engine *gamification.Engine
}

// NewActivityController creates an ActivityController.
func NewActivityController(db *gorm.DB, engine *gamification.Engine) *ActivityController {
	return &ActivityController{db: db, engine: engine}
}

// ListActivities returns a paginated, filtered slice of the catalog.
func (a *ActivityController) ListActivities(ctx *gin.Context) {
	user, ok := loadCurrentUser(ctx, a.db)
	if !ok {
		return
	}
	lang := langOf(ctx, user)
	page, pageSize := pagination(ctx)

	q := a.db.Model(&models.Activity{}).Where("is_active = ?", true)
	if cat := strings.TrimSpace(ctx.Query("category_id")); cat != "" {
		q = q.Where("category_id = ?", cat)
	}
	if diff := strings.TrimSpace(ctx.Query("difficulty")); diff != "" {
		q = q.Where("difficulty = ?", diff)
	}
	if mode := strings.TrimSpace(ctx.Query("mode")); mode != "" {
		q = q.Where("mode = ? OR mode = ?", mode, models.ModeBoth)
	}
	if prem := strings.TrimSpace(ctx.Query("is_premium")); prem != "" {
		q = q.Where("is_premium = ?", prem == "true")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to count activities")
		return
	}

	var activities []models.Activity
	if err := q.Order("completion_count DESC, created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&activities).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to list activities")
		return
	}

	items := make([]gin.H, 0, len(activities))
	for i := range activities {
		items = append(items, activityResponse(&activities[i], lang))
	}

	utils.Success(ctx, gin.H{
		"items": items,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	})
}

// GetActivity returns full details for one activity.
func (a *ActivityController) GetActivity(ctx *gin.Context) {
	user, ok := loadCurrentUser(ctx, a.db)
	if !ok {
		return
	}
	lang := langOf(ctx, user)

	id := strings.TrimSpace(ctx.Param("id"))
	var activity models.Activity
	err := a.db.Take(&activity, "id = ? AND is_active = ?", id, true).Error
	if err == gorm.ErrRecordNotFound {
		utils.Error(ctx, http.StatusNotFound, 40403, "activity not found")
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to load activity")
		return
	}

	out := activityDetailResponse(&activity, lang)

	// Caller context: already completed, open session.
	var completed int64
	_ = a.db.Model(&models.ActivityCompletion{}).
		Where("user_id = ? AND activity_id = ?", user.ID, activity.ID).
		Count(&completed).Error
	out["completed_by_user"] = completed > 0

	var open models.ActivitySession
	if err := a.db.Where("user_id = ? AND activity_id = ? AND status IN ?",
		user.ID, activity.ID, models.OpenSessionStatuses).First(&open).Error; err == nil {
		out["open_session_id"] = open.ID
	}

	utils.Success(ctx, out)
}

// DailyActivities returns today's featured set, cached per language and date.
// Explicitly featured activities win; otherwise the set rotates through the
// catalog deterministically by date.
func (a *ActivityController) DailyActivities(ctx *gin.Context) {
	user, ok := loadCurrentUser(ctx, a.db)
	if !ok {
		return
	}
	lang := langOf(ctx, user)
	today := a.engine.Today().Format("2006-01-02")
	cacheKey := fmt.Sprintf("cache:daily-activities:%s:%s", today, lang)

	var cached []gin.H
	if utils.CacheGetJSON(cacheKey, &cached) {
		utils.Success(ctx, gin.H{"date": today, "items": cached})
		return
	}

	var featured []models.Activity
	if err := a.db.Where("is_active = ? AND is_daily_featured = ?", true, true).
		Limit(dailyActivityCount).Find(&featured).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to load daily activities")
		return
	}

	if len(featured) < dailyActivityCount {
		var total int64
		if err := a.db.Model(&models.Activity{}).Where("is_active = ?", true).Count(&total).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to load daily activities")
			return
		}
		if total > 0 {
			need := dailyActivityCount - len(featured)
			offset := int(a.engine.Today().Unix()/86400) % int(total)
			var extra []models.Activity
			if err := a.db.Where("is_active = ? AND is_daily_featured = ?", true, false).
				Order("id").Offset(offset).Limit(need).Find(&extra).Error; err != nil {
				utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to load daily activities")
				return
			}
			if len(extra) < need {
				// Wrap around the catalog.
				var wrap []models.Activity
				_ = a.db.Where("is_active = ? AND is_daily_featured = ?", true, false).
					Order("id").Limit(need - len(extra)).Find(&wrap).Error
				extra = append(extra, wrap...)
			}
			featured = append(featured, extra...)
		}
	}

	items := make([]gin.H, 0, len(featured))
	for i := range featured {
		items = append(items, activityResponse(&featured[i], lang))
	}

	utils.CacheSetJSON(cacheKey, items, utils.DailyActivitiesTTL)
	utils.Success(ctx, gin.H{"date": today, "items": items})
}

// ListCategories returns the active categories, cached per language.
func (a *ActivityController) ListCategories(ctx *gin.Context) {
	user, ok := loadCurrentUser(ctx, a.db)
	if !ok {
		return
	}
	lang := langOf(ctx, user)
	cacheKey := "cache:categories:" + lang

	var cached []gin.H
	if utils.CacheGetJSON(cacheKey, &cached) {
		utils.Success(ctx, gin.H{"items": cached})
		return
	}

	var categories []models.ActivityCategory
	if err := a.db.Where("is_active = ?", true).
		Order("display_order, name_en").Find(&categories).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50014, "failed to list categories")
		return
	}

	items := make([]gin.H, 0, len(categories))
	for i := range categories {
		items = append(items, categoryResponse(&categories[i], lang))
	}

	utils.CacheSetJSON(cacheKey, items, utils.CategoriesTTL)
	utils.Success(ctx, gin.H{"items": items})
}

// StartActivity opens a session, or returns the already-open one.
func (a *ActivityController) StartActivity(ctx *gin.Context) {
	user, ok := loadCurrentUser(ctx, a.db)
	if !ok {
		return
	}

	var req struct {
		ActivityID string `json:"activity_id" binding:"required"`
		Mode       string `json:"mode"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40015, "invalid request payload")
		return
	}

	session, created, err := a.engine.StartActivity(user, req.ActivityID, req.Mode)
	if err != nil {
		engineError(ctx, err)
		return
	}

	msg := "session started"
	if !created {
		msg = "session already open"
	}
	utils.SuccessMsg(ctx, msg, gin.H{"session": session, "created": created})
}

// CompleteActivity finishes an open session and reports everything earned.
func (a *ActivityController) CompleteActivity(ctx *gin.Context) {
	user, ok := loadCurrentUser(ctx, a.db)
	if !ok {
		return
	}
	lang := langOf(ctx, user)

	var req struct {
		SessionID         string            `json:"session_id" binding:"required"`
		Responses         models.JSONMap    `json:"responses"`
		Photos            models.StringList `json:"photos"`
		Notes             string            `json:"notes"`
		Rating            *int              `json:"rating"`
		Feedback          string            `json:"feedback"`
		SharedWithPartner *bool             `json:"shared_with_partner"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40016, "invalid request payload")
		return
	}

	result, err := a.engine.CompleteActivity(user.ID, gamification.CompletionInput{
		SessionID:         req.SessionID,
		Responses:         req.Responses,
		Photos:            req.Photos,
		Notes:             utils.Sanitize(req.Notes),
		Rating:            req.Rating,
		Feedback:          utils.Sanitize(req.Feedback),
		SharedWithPartner: req.SharedWithPartner,
	})
	if err != nil {
		engineError(ctx, err)
		return
	}

	badges := make([]gin.H, 0, len(result.UnlockedBadges))
	for i := range result.UnlockedBadges {
		b := &result.UnlockedBadges[i]
		badges = append(badges, gin.H{
			"id":   b.ID,
			"name": b.Name(lang),
			"icon": b.Icon,
		})
	}
	milestones := make([]gin.H, 0, len(result.AchievedMilestones))
	for i := range result.AchievedMilestones {
		m := &result.AchievedMilestones[i]
		milestones = append(milestones, gin.H{
			"id":   m.ID,
			"name": m.Name(lang),
			"icon": m.Icon,
		})
	}

	utils.SuccessMsg(ctx, "activity completed", gin.H{
		"completion_id":       result.Completion.ID,
		"points_earned":       result.PointsEarned,
		"coins_earned":        result.CoinsEarned,
		"total_points":        result.TotalPoints,
		"total_coins":         result.TotalCoins,
		"current_level":       result.Level,
		"leveled_up":          result.LeveledUp,
		"streak":              result.Streak,
		"unlocked_badges":     badges,
		"achieved_milestones": milestones,
	})
}

// SkipActivity consumes a daily skip and closes any open session.
func (a *ActivityController) SkipActivity(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req struct {
		ActivityID string `json:"activity_id" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40017, "invalid request payload")
		return
	}

	result, err := a.engine.SkipActivity(userID, req.ActivityID)
	if err != nil {
		engineError(ctx, err)
		return
	}

	utils.SuccessMsg(ctx, "activity skipped", gin.H{
		"skips_used":        result.SkipsUsed,
		"max_skips_per_day": result.MaxSkipsPerDay,
		"skips_remaining":   result.SkipsRemaining,
	})
}
