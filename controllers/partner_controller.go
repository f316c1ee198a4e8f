package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bondlyapp/bondly/gamification"
	"github.com/bondlyapp/bondly/models"
	"github.com/bondlyapp/bondly/utils"
)

// PartnerController exposes the partner's side of the relationship.
type PartnerController struct {
	db     *gorm.DB
	engine *gamification.Engine
}

// NewPartnerController creates a PartnerController.
func NewPartnerController(db *gorm.DB, engine *gamification.Engine) *PartnerController {
	return &PartnerController{db: db, engine: engine}
}

// Status returns the partner's profile, presence and shared metrics.
func (p *PartnerController) Status(ctx *gin.Context) {
	user, ok := loadCurrentUser(ctx, p.db)
	if !ok {
		return
	}

	if !user.HasPartner() {
		utils.Success(ctx, gin.H{
			"has_partner":     false,
			"invitation_code": user.InvitationCode,
		})
		return
	}

	var partner models.User
	if err := p.db.Take(&partner, "id = ?", *user.PartnerID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to load partner")
		return
	}

	bond, err := p.engine.BondScore(user)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50061, "failed to compute bond score")
		return
	}

	partnerStreak, err := p.engine.StreakFor(partner.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50062, "failed to load partner streak")
		return
	}

	utils.Success(ctx, gin.H{
		"has_partner":                true,
		"partner":                    partnerResponse(&partner),
		"relationship_start_date":    user.RelationshipStartDate,
		"relationship_duration_days": user.RelationshipDurationDays(p.engine.Today()),
		"bond_score":                 bond,
		"partner_streak":             partnerStreak.CurrentStreak,
	})
}

// ActivityStatus reports what the partner is doing right now: open sessions
// and completions shared today.
func (p *PartnerController) ActivityStatus(ctx *gin.Context) {
	user, ok := loadCurrentUser(ctx, p.db)
	if !ok {
		return
	}
	lang := langOf(ctx, user)

	if !user.HasPartner() {
		utils.Error(ctx, http.StatusBadRequest, 40014, "no partner linked")
		return
	}
	partnerID := *user.PartnerID

	var openSessions []models.ActivitySession
	if err := p.db.Preload("Activity").
		Where("user_id = ? AND status IN ?", partnerID, models.OpenSessionStatuses).
		Order("started_at DESC").Find(&openSessions).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50063, "failed to load partner sessions")
		return
	}

	sessions := make([]gin.H, 0, len(openSessions))
	for i := range openSessions {
		s := &openSessions[i]
		item := gin.H{
			"session_id": s.ID,
			"status":     s.Status,
			"mode":       s.Mode,
			"started_at": s.StartedAt,
		}
		if s.Activity != nil {
			item["activity_id"] = s.Activity.ID
			item["activity_title"] = s.Activity.Title(lang)
		}
		sessions = append(sessions, item)
	}

	today := p.engine.Today()
	var completions []models.ActivityCompletion
	if err := p.db.Preload("Activity").
		Where("user_id = ? AND shared_with_partner = ? AND completed_at >= ?", partnerID, true, today).
		Order("completed_at DESC").Find(&completions).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50064, "failed to load partner completions")
		return
	}

	completedToday := make([]gin.H, 0, len(completions))
	for i := range completions {
		c := &completions[i]
		item := gin.H{
			"completion_id": c.ID,
			"completed_at":  c.CompletedAt,
			"rating":        c.Rating,
		}
		if c.Activity != nil {
			item["activity_id"] = c.Activity.ID
			item["activity_title"] = c.Activity.Title(lang)
		}
		completedToday = append(completedToday, item)
	}

	utils.Success(ctx, gin.H{
		"open_sessions":   sessions,
		"completed_today": completedToday,
	})
}

// Notifications lists partner related notifications for the caller.
func (p *PartnerController) Notifications(ctx *gin.Context) {
	user, ok := loadCurrentUser(ctx, p.db)
	if !ok {
		return
	}
	lang := langOf(ctx, user)
	page, pageSize := pagination(ctx)

	partnerTypes := []string{
		models.NotifyPartnerActivity,
		models.NotifyPartnerInvite,
		models.NotifyPartnerJoined,
	}

	var total int64
	if err := p.db.Model(&models.Notification{}).
		Where("user_id = ? AND notification_type IN ?", user.ID, partnerTypes).
		Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50065, "failed to count notifications")
		return
	}

	var rows []models.Notification
	if err := p.db.Where("user_id = ? AND notification_type IN ?", user.ID, partnerTypes).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50066, "failed to load notifications")
		return
	}

	items := make([]gin.H, 0, len(rows))
	for i := range rows {
		items = append(items, notificationResponse(&rows[i], lang))
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
