package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bondlyapp/bondly/gamification"
	"github.com/bondlyapp/bondly/middleware"
	"github.com/bondlyapp/bondly/models"
	"github.com/bondlyapp/bondly/utils"
)

// currentUserID extracts the authenticated user ID placed by AuthRequired.
func currentUserID(ctx *gin.Context) (string, bool) {
	v, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return "", false
	}
	id, ok := v.(string)
	if !ok || id == "" {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return "", false
	}
	return id, true
}

// loadCurrentUser fetches the authenticated user row, writing the error
// response itself on failure.
func loadCurrentUser(ctx *gin.Context, db *gorm.DB) (*models.User, bool) {
	id, ok := currentUserID(ctx)
	if !ok {
		return nil, false
	}
	var user models.User
	if err := db.Take(&user, "id = ?", id).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return nil, false
	}
	return &user, true
}

// langOf resolves the response language: explicit ?lang= wins, then the
// user's stored preference, then English.
func langOf(ctx *gin.Context, user *models.User) string {
	if l := strings.TrimSpace(ctx.Query("lang")); l == "en" || l == "hi" {
		return l
	}
	if user != nil && user.PreferredLanguage == "hi" {
		return "hi"
	}
	return "en"
}

// pagination reads page/page_size query params with sane bounds.
func pagination(ctx *gin.Context) (page, pageSize int) {
	page, pageSize = 1, 20
	if v := strings.TrimSpace(ctx.Query("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := strings.TrimSpace(ctx.Query("page_size")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			pageSize = n
		}
	}
	return page, pageSize
}

// engineError maps gamification sentinel errors onto HTTP responses.
func engineError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, gamification.ErrSessionNotFound):
		utils.Error(ctx, http.StatusNotFound, 40402, "session not found")
	case errors.Is(err, gamification.ErrActivityNotFound):
		utils.Error(ctx, http.StatusNotFound, 40403, "activity not found")
	case errors.Is(err, gamification.ErrNotSessionOwner):
		utils.Error(ctx, http.StatusForbidden, 40301, "session belongs to another user")
	case errors.Is(err, gamification.ErrSessionNotOpen):
		utils.Error(ctx, http.StatusConflict, 40902, "session already closed")
	case errors.Is(err, gamification.ErrInvalidRating):
		utils.Error(ctx, http.StatusBadRequest, 40010, "rating must be between 1 and 5")
	case errors.Is(err, gamification.ErrPremiumLocked):
		utils.Error(ctx, http.StatusPaymentRequired, 40201, "premium activity locked")
	case errors.Is(err, gamification.ErrInsufficientCoins):
		utils.Error(ctx, http.StatusPaymentRequired, 40202, "insufficient coins")
	case errors.Is(err, gamification.ErrSkipLimitReached):
		utils.Error(ctx, http.StatusTooManyRequests, 42902, "daily skip limit reached")
	case errors.Is(err, gamification.ErrInvalidSpendType):
		utils.Error(ctx, http.StatusBadRequest, 40011, "invalid spend request")
	case errors.Is(err, gamification.ErrBonusAlreadyClaimed):
		utils.Error(ctx, http.StatusConflict, 40903, "daily bonus already claimed")
	case errors.Is(err, gamification.ErrInvalidInviteCode):
		utils.Error(ctx, http.StatusBadRequest, 40012, "invalid invitation code")
	case errors.Is(err, gamification.ErrSelfLink):
		utils.Error(ctx, http.StatusBadRequest, 40013, "cannot link to yourself")
	case errors.Is(err, gamification.ErrAlreadyLinked):
		utils.Error(ctx, http.StatusConflict, 40904, "you already have a partner")
	case errors.Is(err, gamification.ErrPartnerTaken):
		utils.Error(ctx, http.StatusConflict, 40905, "that user already has a partner")
	case errors.Is(err, gamification.ErrNoPartner):
		utils.Error(ctx, http.StatusBadRequest, 40014, "no partner linked")
	default:
		utils.Error(ctx, http.StatusInternalServerError, 50000, "internal error")
	}
}

// userResponse serializes a user for API output.
func userResponse(user *models.User) gin.H {
	return gin.H{
		"id":                      user.ID,
		"username":                user.Username,
		"email":                   user.Email,
		"phone_number":            user.PhoneNumber,
		"age":                     user.Age,
		"profile_picture":         user.ProfilePicture,
		"bio":                     user.Bio,
		"partner_id":              user.PartnerID,
		"relationship_start_date": user.RelationshipStartDate,
		"invitation_code":         user.InvitationCode,
		"preferred_language":      user.PreferredLanguage,
		"theme":                   user.Theme,
		"total_points":            user.TotalPoints,
		"current_level":           user.CurrentLevel,
		"coins":                   user.Coins,
		"is_online":               user.IsOnline,
		"last_active":             user.LastActive,
		"created_at":              user.CreatedAt,
	}
}

// partnerResponse is the reduced view a user gets of their partner.
func partnerResponse(partner *models.User) gin.H {
	return gin.H{
		"id":              partner.ID,
		"username":        partner.Username,
		"profile_picture": partner.ProfilePicture,
		"bio":             partner.Bio,
		"total_points":    partner.TotalPoints,
		"current_level":   partner.CurrentLevel,
		"is_online":       partner.IsOnline,
		"last_active":     partner.LastActive,
	}
}

// activityResponse serializes an activity with localized text.
func activityResponse(a *models.Activity, lang string) gin.H {
	return gin.H{
		"id":                     a.ID,
		"category_id":            a.CategoryID,
		"title":                  a.Title(lang),
		"description":            a.Description(lang),
		"instructions":           a.Instructions(lang),
		"difficulty":             a.Difficulty,
		"estimated_time_minutes": a.EstimatedTimeMinutes,
		"best_time":              a.BestTime,
		"mode":                   a.Mode,
		"points_reward":          a.PointsReward,
		"coins_reward":           a.CoinsReward,
		"is_premium":             a.IsPremium,
		"unlock_cost_coins":      a.UnlockCostCoins,
		"completion_count":       a.CompletionCount,
		"average_rating":         a.AverageRating,
	}
}

// activityDetailResponse adds the material, tip and question lists.
func activityDetailResponse(a *models.Activity, lang string) gin.H {
	out := activityResponse(a, lang)
	if lang == "hi" {
		out["materials_needed"] = a.MaterialsNeededHI
		out["tips"] = a.TipsHI
		out["questions"] = a.QuestionsHI
	} else {
		out["materials_needed"] = a.MaterialsNeededEN
		out["tips"] = a.TipsEN
		out["questions"] = a.QuestionsEN
	}
	return out
}

// categoryResponse serializes a category with localized text.
func categoryResponse(c *models.ActivityCategory, lang string) gin.H {
	return gin.H{
		"id":            c.ID,
		"name":          c.Name(lang),
		"description":   c.Description(lang),
		"icon":          c.Icon,
		"color":         c.Color,
		"display_order": c.DisplayOrder,
	}
}

// notificationResponse serializes a notification with localized text.
func notificationResponse(n *models.Notification, lang string) gin.H {
	return gin.H{
		"id":                n.ID,
		"notification_type": n.NotificationType,
		"title":             n.Title(lang),
		"message":           n.Message(lang),
		"data":              n.Data,
		"is_read":           n.IsRead,
		"created_at":        n.CreatedAt,
		"read_at":           n.ReadAt,
	}
}
