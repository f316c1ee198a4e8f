package main

import (
	"github.com/bondlyapp/bondly/config"
	"github.com/bondlyapp/bondly/gamification"
	"github.com/bondlyapp/bondly/models"
	"github.com/bondlyapp/bondly/routes"
	"github.com/bondlyapp/bondly/tasks"
	"github.com/bondlyapp/bondly/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.UserPreference{},
		&models.ActivityCategory{},
		&models.Activity{},
		&models.ActivitySession{},
		&models.ActivityCompletion{},
		&models.Streak{},
		&models.Badge{},
		&models.UserBadge{},
		&models.Milestone{},
		&models.UserMilestone{},
		&models.Notification{},
		&models.SkipLimit{},
		&models.CoinTransaction{},
	)

	engine := gamification.New(db)
	engine.MaxSkipsPerDay = cfg.MaxSkipsPerDay
	engine.DailyBonusCoins = cfg.DailyBonusCoins

	r := routes.SetupRouter(db, engine)

	tasks.NewScheduler(db, engine).Start()

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
