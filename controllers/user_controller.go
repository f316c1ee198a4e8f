package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bondlyapp/bondly/gamification"
	"github.com/bondlyapp/bondly/models"
	"github.com/bondlyapp/bondly/utils"
)

// UserController handles partner linking, preferences and settings.
type UserController struct {
	db     *gorm.DB
	engine *gamification.Engine
}

// NewUserController creates a UserController.
func NewUserController(db *gorm.DB, engine *gamification.Engine) *UserController {
	return &UserController{db: db, engine: engine}
}

// LinkPartner connects the caller to the owner of an invitation code.
func (u *UserController) LinkPartner(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req struct {
		InvitationCode string `json:"invitation_code" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	partner, err := u.engine.LinkPartners(userID, req.InvitationCode)
	if err != nil {
		engineError(ctx, err)
		return
	}

	utils.SuccessMsg(ctx, "partner linked", gin.H{
		"partner":                 partnerResponse(partner),
		"relationship_start_date": partner.RelationshipStartDate,
	})
}

// UnlinkPartner removes the partner link from both sides.
func (u *UserController) UnlinkPartner(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	if err := u.engine.UnlinkPartners(userID); err != nil {
		engineError(ctx, err)
		return
	}

	utils.SuccessMsg(ctx, "partner unlinked", nil)
}

// GetPreferences returns the caller's preference row, creating defaults on
// first access.
func (u *UserController) GetPreferences(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	pref, err := u.preferenceFor(userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to load preferences")
		return
	}
	utils.Success(ctx, pref)
}

// UpdatePreferences applies a partial update to the preference row.
func (u *UserController) UpdatePreferences(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req struct {
		DailyReminderEnabled   *bool   `json:"daily_reminder_enabled"`
		DailyReminderTime      *string `json:"daily_reminder_time"`
		PartnerActivityAlerts  *bool   `json:"partner_activity_alerts"`
		StreakReminders        *bool   `json:"streak_reminders"`
		MilestoneNotifications *bool   `json:"milestone_notifications"`
		SoundEnabled           *bool   `json:"sound_enabled"`
		VibrationEnabled       *bool   `json:"vibration_enabled"`
		ActivityDifficulty     *string `json:"activity_difficulty"`
		NotificationFrequency  *string `json:"notification_frequency"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40021, "invalid request payload")
		return
	}

	pref, err := u.preferenceFor(userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to load preferences")
		return
	}

	if req.DailyReminderEnabled != nil {
		pref.DailyReminderEnabled = *req.DailyReminderEnabled
	}
	if req.DailyReminderTime != nil {
		t := strings.TrimSpace(*req.DailyReminderTime)
		if !validReminderTime(t) {
			utils.Error(ctx, http.StatusBadRequest, 40022, "reminder time must be HH:MM")
			return
		}
		pref.DailyReminderTime = t
	}
	if req.PartnerActivityAlerts != nil {
		pref.PartnerActivityAlerts = *req.PartnerActivityAlerts
	}
	if req.StreakReminders != nil {
		pref.StreakReminders = *req.StreakReminders
	}
	if req.MilestoneNotifications != nil {
		pref.MilestoneNotifications = *req.MilestoneNotifications
	}
	if req.SoundEnabled != nil {
		pref.SoundEnabled = *req.SoundEnabled
	}
	if req.VibrationEnabled != nil {
		pref.VibrationEnabled = *req.VibrationEnabled
	}
	if req.ActivityDifficulty != nil {
		d := *req.ActivityDifficulty
		if d != "all" && d != models.DifficultyEasy && d != models.DifficultyMedium && d != models.DifficultyDeep {
			utils.Error(ctx, http.StatusBadRequest, 40023, "invalid activity difficulty")
			return
		}
		pref.ActivityDifficulty = d
	}
	if req.NotificationFrequency != nil {
		f := *req.NotificationFrequency
		if f != "low" && f != "medium" && f != "high" {
			utils.Error(ctx, http.StatusBadRequest, 40024, "invalid notification frequency")
			return
		}
		pref.NotificationFrequency = f
	}

	if err := u.db.Save(pref).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to update preferences")
		return
	}
	utils.Success(ctx, pref)
}

// GetSettings returns the app-level settings: language, theme and the
// preference row combined.
func (u *UserController) GetSettings(ctx *gin.Context) {
	user, ok := loadCurrentUser(ctx, u.db)
	if !ok {
		return
	}

	pref, err := u.preferenceFor(user.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to load preferences")
		return
	}

	utils.Success(ctx, gin.H{
		"preferred_language": user.PreferredLanguage,
		"theme":              user.Theme,
		"preferences":        pref,
	})
}

// UpdateSettings changes language and theme.
func (u *UserController) UpdateSettings(ctx *gin.Context) {
	user, ok := loadCurrentUser(ctx, u.db)
	if !ok {
		return
	}

	var req struct {
		PreferredLanguage *string `json:"preferred_language"`
		Theme             *string `json:"theme"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40025, "invalid request payload")
		return
	}

	if req.PreferredLanguage != nil {
		l := *req.PreferredLanguage
		if l != "en" && l != "hi" {
			utils.Error(ctx, http.StatusBadRequest, 40026, "unsupported language")
			return
		}
		user.PreferredLanguage = l
	}
	if req.Theme != nil {
		t := *req.Theme
		if t != "light" && t != "dark" && t != "auto" {
			utils.Error(ctx, http.StatusBadRequest, 40027, "unsupported theme")
			return
		}
		user.Theme = t
	}

	if err := u.db.Save(user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to update settings")
		return
	}

	utils.Success(ctx, gin.H{
		"preferred_language": user.PreferredLanguage,
		"theme":              user.Theme,
	})
}

func (u *UserController) preferenceFor(userID string) (*models.UserPreference, error) {
	var pref models.UserPreference
	err := u.db.Where("user_id = ?", userID).Take(&pref).Error
	if err == gorm.ErrRecordNotFound {
		pref = models.UserPreference{UserID: userID}
		err = u.db.Create(&pref).Error
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

// validReminderTime accepts HH:MM in 24-hour time.
func validReminderTime(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	for _, c := range []byte{s[0], s[1], s[3], s[4]} {
		if c < '0' || c > '9' {
			return false
		}
	}
	return h >= 0 && h <= 23 && m >= 0 && m <= 59
}
