package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bondlyapp/bondly/gamification"
	"github.com/bondlyapp/bondly/models"
	"github.com/bondlyapp/bondly/utils"
)

// ProgressController reports levels, streaks, bond score and history.
type ProgressController struct {
	db     *gorm.DB
	engine *gamification.Engine
}

// NewProgressController creates a ProgressController.
func NewProgressController(db *gorm.DB, engine *gamification.Engine) *ProgressController {
	return &ProgressController{db: db, engine: engine}
}

// Overview returns the dashboard summary in one call.
func (p *ProgressController) Overview(ctx *gin.Context) {
	user, ok := loadCurrentUser(ctx, p.db)
	if !ok {
		return
	}
	lang := langOf(ctx, user)

	streak, err := p.engine.StreakFor(user.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load streak")
		return
	}

	bond, err := p.engine.BondScore(user)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to compute bond score")
		return
	}

	var totalCompletions int64
	if err := p.db.Model(&models.ActivityCompletion{}).
		Where("user_id = ?", user.ID).Count(&totalCompletions).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to count completions")
		return
	}

	now := p.engine.Now()
	weekAgo := now.Add(-7 * 24 * time.Hour)
	monthAgo := now.Add(-30 * 24 * time.Hour)
	var weekCompletions, monthCompletions int64
	_ = p.db.Model(&models.ActivityCompletion{}).
		Where("user_id = ? AND completed_at >= ?", user.ID, weekAgo).
		Count(&weekCompletions).Error
	_ = p.db.Model(&models.ActivityCompletion{}).
		Where("user_id = ? AND completed_at >= ?", user.ID, monthAgo).
		Count(&monthCompletions).Error

	var badgeCount, milestoneCount int64
	_ = p.db.Model(&models.UserBadge{}).Where("user_id = ?", user.ID).Count(&badgeCount).Error
	_ = p.db.Model(&models.UserMilestone{}).Where("user_id = ?", user.ID).Count(&milestoneCount).Error

	utils.Success(ctx, gin.H{
		"total_points":           user.TotalPoints,
		"coins":                  user.Coins,
		"level":                  gamification.LevelFor(user.TotalPoints),
		"streak":                 streak,
		"streak_active":          streak.IsActive(p.engine.Today()),
		"bond_score":             bond,
		"total_completions":      totalCompletions,
		"completions_this_week":  weekCompletions,
		"completions_this_month": monthCompletions,
		"badges_earned":          badgeCount,
		"milestones_achieved":    milestoneCount,
		"favorite_category":      p.favoriteCategory(user.ID, lang),
		"most_active_day":        p.mostActiveDay(user.ID, monthAgo),
		"partner_sync_rate":      p.partnerSyncRate(user, monthAgo, monthCompletions),
		"has_partner":            user.HasPartner(),
	})
}

// favoriteCategory returns the localized name of the category the user has
// completed the most activities in, or nil with no completions yet.
func (p *ProgressController) favoriteCategory(userID, lang string) interface{} {
	var top struct {
		CategoryID string
		N          int
	}
	err := p.db.Model(&models.ActivityCompletion{}).
		Select("activities.category_id AS category_id, COUNT(*) AS n").
		Joins("JOIN activities ON activities.id = activity_completions.activity_id").
		Where("activity_completions.user_id = ?", userID).
		Group("activities.category_id").
		Order("n DESC").Limit(1).
		Scan(&top).Error
	if err != nil || top.CategoryID == "" {
		return nil
	}
	var cat models.ActivityCategory
	if err := p.db.Take(&cat, "id = ?", top.CategoryID).Error; err != nil {
		return nil
	}
	return gin.H{"id": cat.ID, "name": cat.Name(lang), "completions": top.N}
}

// mostActiveDay returns the weekday with the most completions since cutoff,
// or nil with none.
func (p *ProgressController) mostActiveDay(userID string, since time.Time) interface{} {
	var stamps []time.Time
	if err := p.db.Model(&models.ActivityCompletion{}).
		Where("user_id = ? AND completed_at >= ?", userID, since).
		Pluck("completed_at", &stamps).Error; err != nil || len(stamps) == 0 {
		return nil
	}
	counts := map[time.Weekday]int{}
	for _, ts := range stamps {
		counts[ts.Weekday()]++
	}
	best := time.Sunday
	for day := time.Sunday; day <= time.Saturday; day++ {
		if counts[day] > counts[best] {
			best = day
		}
	}
	return best.String()
}

// partnerSyncRate is the share of the user's recent completions whose
// activity the partner also completed in the same window, as a percentage.
func (p *ProgressController) partnerSyncRate(user *models.User, since time.Time, userCompletions int64) float64 {
	if !user.HasPartner() || userCompletions == 0 {
		return 0
	}
	partnerActivities := p.db.Model(&models.ActivityCompletion{}).
		Select("activity_id").
		Where("user_id = ? AND completed_at >= ?", *user.PartnerID, since)

	var matched int64
	if err := p.db.Model(&models.ActivityCompletion{}).
		Where("user_id = ? AND completed_at >= ? AND activity_id IN (?)",
			user.ID, since, partnerActivities).
		Count(&matched).Error; err != nil {
		return 0
	}
	return float64(matched) / float64(userCompletions) * 100
}

// GetStreak returns streak details and whether it is at risk today.
func (p *ProgressController) GetStreak(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	streak, err := p.engine.StreakFor(userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load streak")
		return
	}

	today := p.engine.Today()
	utils.Success(ctx, gin.H{
		"current_streak":     streak.CurrentStreak,
		"longest_streak":     streak.LongestStreak,
		"total_active_days":  streak.TotalActiveDays,
		"last_activity_date": streak.LastActivityDate,
		"streak_start_date":  streak.StreakStartDate,
		"is_active":          streak.IsActive(today),
		"days_until_break":   streak.DaysUntilBreak(today),
	})
}

// BondScore returns the couple's 0-100 engagement score with its inputs.
func (p *ProgressController) BondScore(ctx *gin.Context) {
	user, ok := loadCurrentUser(ctx, p.db)
	if !ok {
		return
	}

	score, err := p.engine.BondScore(user)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to compute bond score")
		return
	}

	utils.Success(ctx, gin.H{
		"bond_score":  score,
		"has_partner": user.HasPartner(),
	})
}

// Achievements lists every badge and milestone with unlock state and progress.
func (p *ProgressController) Achievements(ctx *gin.Context) {
	user, ok := loadCurrentUser(ctx, p.db)
	if !ok {
		return
	}
	lang := langOf(ctx, user)

	streak, err := p.engine.StreakFor(user.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load streak")
		return
	}

	var badges []models.Badge
	if err := p.db.Where("is_active = ?", true).
		Order("display_order, created_at").Find(&badges).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to list badges")
		return
	}
	var owned []models.UserBadge
	if err := p.db.Where("user_id = ?", user.ID).Find(&owned).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to list badges")
		return
	}
	unlockedAt := make(map[string]time.Time, len(owned))
	for _, ub := range owned {
		unlockedAt[ub.BadgeID] = ub.UnlockedAt
	}

	badgeItems := make([]gin.H, 0, len(badges))
	for i := range badges {
		b := &badges[i]
		current, err := p.engine.MetricValue(user, streak, b.Criteria.Type)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to list badges")
			return
		}
		item := gin.H{
			"id":            b.ID,
			"name":          b.Name(lang),
			"description":   b.Description(lang),
			"icon":          b.Icon,
			"category":      b.Category,
			"rarity":        b.Rarity,
			"points_reward": b.PointsReward,
			"coins_reward":  b.CoinsReward,
			"progress":      gamification.AchievementProgressPercent(current, b.Criteria.Threshold),
		}
		if at, ok := unlockedAt[b.ID]; ok {
			item["unlocked"] = true
			item["unlocked_at"] = at
		} else {
			item["unlocked"] = false
		}
		badgeItems = append(badgeItems, item)
	}

	var milestones []models.Milestone
	if err := p.db.Where("is_active = ?", true).
		Order("criteria_value").Find(&milestones).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to list milestones")
		return
	}
	var achievedRows []models.UserMilestone
	if err := p.db.Where("user_id = ?", user.ID).Find(&achievedRows).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to list milestones")
		return
	}
	achievedAt := make(map[string]time.Time, len(achievedRows))
	for _, um := range achievedRows {
		achievedAt[um.MilestoneID] = um.AchievedAt
	}

	milestoneItems := make([]gin.H, 0, len(milestones))
	for i := range milestones {
		m := &milestones[i]
		current, err := p.engine.MetricValue(user, streak, m.MilestoneType)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to list milestones")
			return
		}
		item := gin.H{
			"id":             m.ID,
			"name":           m.Name(lang),
			"description":    m.Description(lang),
			"icon":           m.Icon,
			"milestone_type": m.MilestoneType,
			"criteria_value": m.CriteriaValue,
			"points_reward":  m.PointsReward,
			"coins_reward":   m.CoinsReward,
			"progress":       gamification.AchievementProgressPercent(current, m.CriteriaValue),
		}
		if at, ok := achievedAt[m.ID]; ok {
			item["achieved"] = true
			item["achieved_at"] = at
		} else {
			item["achieved"] = false
		}
		milestoneItems = append(milestoneItems, item)
	}

	utils.Success(ctx, gin.H{
		"badges":     badgeItems,
		"milestones": milestoneItems,
	})
}

// History returns the user's completion records, newest first.
func (p *ProgressController) History(ctx *gin.Context) {
	user, ok := loadCurrentUser(ctx, p.db)
	if !ok {
		return
	}
	lang := langOf(ctx, user)
	page, pageSize := pagination(ctx)

	var total int64
	if err := p.db.Model(&models.ActivityCompletion{}).
		Where("user_id = ?", user.ID).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50045, "failed to count history")
		return
	}

	var completions []models.ActivityCompletion
	if err := p.db.Preload("Activity").
		Where("user_id = ?", user.ID).
		Order("completed_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&completions).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50046, "failed to load history")
		return
	}

	items := make([]gin.H, 0, len(completions))
	for i := range completions {
		c := &completions[i]
		item := gin.H{
			"id":                  c.ID,
			"activity_id":         c.ActivityID,
			"points_earned":       c.PointsEarned,
			"coins_earned":        c.CoinsEarned,
			"rating":              c.Rating,
			"notes":               c.Notes,
			"shared_with_partner": c.SharedWithPartner,
			"completed_at":        c.CompletedAt,
		}
		if c.Activity != nil {
			item["activity_title"] = c.Activity.Title(lang)
			item["difficulty"] = c.Activity.Difficulty
		}
		items = append(items, item)
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
