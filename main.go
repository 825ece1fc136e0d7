package main

import (
	"github.com/studypulse/studypulse/config"
	"github.com/studypulse/studypulse/models"
	"github.com/studypulse/studypulse/routes"
	"github.com/studypulse/studypulse/streak"
	"github.com/studypulse/studypulse/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.Task{},
		&models.Activity{},
		&models.LoginDay{},
	)

	// The streak service is shared by every trigger adapter: login,
	// dashboard mount, task completion and the client rollover poll.
	store := streak.NewGormStore(db)
	ledger := streak.NewLedger(store, utils.Sugar)
	locker := streak.NewRedisLocker(utils.GetRedis())
	streaks := streak.NewService(store, ledger, locker, utils.Sugar)

	r := routes.SetupRouter(db, streaks)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
