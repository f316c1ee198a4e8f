package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bondlyapp/bondly/config"
	"github.com/bondlyapp/bondly/controllers"
	"github.com/bondlyapp/bondly/gamification"
	"github.com/bondlyapp/bondly/middleware"
	"github.com/bondlyapp/bondly/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, engine *gamification.Engine) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	userController := controllers.NewUserController(db, engine)
	activityController := controllers.NewActivityController(db, engine)
	progressController := controllers.NewProgressController(db, engine)
	rewardController := controllers.NewRewardController(db, engine)
	partnerController := controllers.NewPartnerController(db, engine)
	notificationController := controllers.NewNotificationController(db)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/google-login", authController.GoogleLogin)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())

	usersGroup := protected.Group("/users")
	usersGroup.GET("/me", authController.Me)
	usersGroup.PATCH("/me", authController.UpdateProfile)
	usersGroup.POST("/partner/link", userController.LinkPartner)
	usersGroup.POST("/partner/unlink", userController.UnlinkPartner)
	usersGroup.GET("/preferences", userController.GetPreferences)
	usersGroup.PATCH("/preferences", userController.UpdatePreferences)

	activitiesGroup := protected.Group("/activities")
	activitiesGroup.GET("", activityController.ListActivities)
	activitiesGroup.GET("/daily", activityController.DailyActivities)
	activitiesGroup.GET("/categories", activityController.ListCategories)
	activitiesGroup.GET("/:id", activityController.GetActivity)
	activitiesGroup.POST("/start", activityController.StartActivity)
	activitiesGroup.POST("/complete", activityController.CompleteActivity)
	activitiesGroup.POST("/skip", activityController.SkipActivity)

	progressGroup := protected.Group("/progress")
	progressGroup.GET("/overview", progressController.Overview)
	progressGroup.GET("/streak", progressController.GetStreak)
	progressGroup.GET("/bond-score", progressController.BondScore)
	progressGroup.GET("/achievements", progressController.Achievements)
	progressGroup.GET("/history", progressController.History)

	rewardsGroup := protected.Group("/rewards")
	rewardsGroup.GET("/coins", rewardController.GetCoins)
	rewardsGroup.POST("/spend-coins", rewardController.SpendCoins)
	rewardsGroup.GET("/levels", rewardController.GetLevels)
	rewardsGroup.POST("/claim-daily-bonus", rewardController.ClaimDailyBonus)

	partnerGroup := protected.Group("/partner")
	partnerGroup.GET("/status", partnerController.Status)
	partnerGroup.GET("/activity-status", partnerController.ActivityStatus)
	partnerGroup.GET("/notifications", partnerController.Notifications)

	notificationsGroup := protected.Group("/notifications")
	notificationsGroup.GET("", notificationController.List)
	notificationsGroup.GET("/unread-count", notificationController.UnreadCount)
	notificationsGroup.POST("/:id/mark-read", notificationController.MarkRead)
	notificationsGroup.POST("/mark-all-read", notificationController.MarkAllRead)

	settingsGroup := protected.Group("/settings")
	settingsGroup.GET("", userController.GetSettings)
	settingsGroup.PATCH("", userController.UpdateSettings)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
