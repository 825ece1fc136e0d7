package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/studypulse/studypulse/models"
	"github.com/studypulse/studypulse/streak"
	"github.com/studypulse/studypulse/utils"
)

// DashboardController serves the aggregate view the app shows on mount.
// Mounting the dashboard is a streak trigger; evaluating more than once
// per day is a no-op, so refreshes cost one cheap read-only pass.
type DashboardController struct {
	db      *gorm.DB
	streaks *streak.Service
}

// NewDashboardController creates a new controller instance.
func NewDashboardController(db *gorm.DB, streaks *streak.Service) *DashboardController {
	return &DashboardController{db: db, streaks: streaks}
}

// GetDashboard returns task aggregates plus the streak block.
func (d *DashboardController) GetDashboard(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	now := time.Now()
	dayStart := streak.DayOf(now).Time()
	dayEnd := dayStart.AddDate(0, 0, 1)

	// Fall back to 0 for individual aggregates instead of failing the
	// whole endpoint.
	var openTasks, dueToday, completedToday int64
	if err := d.db.Model(&models.Task{}).
		Where("user_id = ? AND completed = ?", userID, false).
		Count(&openTasks).Error; err != nil {
		openTasks = 0
	}
	if err := d.db.Model(&models.Task{}).
		Where("user_id = ? AND completed = ? AND due_at >= ? AND due_at < ?", userID, false, dayStart, dayEnd).
		Count(&dueToday).Error; err != nil {
		dueToday = 0
	}
	if err := d.db.Model(&models.Task{}).
		Where("user_id = ? AND completed_at >= ? AND completed_at < ?", userID, dayStart, dayEnd).
		Count(&completedToday).Error; err != nil {
		completedToday = 0
	}

	resp := gin.H{
		"open_tasks":      openTasks,
		"due_today":       dueToday,
		"completed_today": completedToday,
	}
	if result, err := d.streaks.Evaluate(ctx.Request.Context(), userID, now); err != nil {
		// Degrade to "streak unknown" rather than failing the mount.
		utils.Sugar.Warnw("streak evaluation failed on dashboard", "user_id", userID, "err", err)
	} else {
		resp["streak"] = result
	}

	utils.Success(ctx, resp)
}
