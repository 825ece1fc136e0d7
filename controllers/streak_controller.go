package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studypulse/studypulse/streak"
	"github.com/studypulse/studypulse/utils"
)

// StreakController exposes the streak read endpoints and the rollover
// check target for the client's periodic poll.
type StreakController struct {
	streaks *streak.Service
}

// NewStreakController creates a new controller instance.
func NewStreakController(streaks *streak.Service) *StreakController {
	return &StreakController{streaks: streaks}
}

// Check is polled by clients (roughly once a minute). It runs the cheap
// day-rollover test and only performs a full evaluation when the recorded
// day differs from today, so idle same-day polls cost a single read.
func (s *StreakController) Check(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	now := time.Now()
	needed, err := s.streaks.NeedsEvaluation(ctx.Request.Context(), userID, now)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to check streak")
		return
	}
	if !needed {
		state, err := s.streaks.Status(ctx.Request.Context(), userID)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to check streak")
			return
		}
		utils.Success(ctx, streak.Result{Streak: state.Streak})
		return
	}

	result, err := s.streaks.Evaluate(ctx.Request.Context(), userID, now)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to evaluate streak")
		return
	}
	utils.Success(ctx, result)
}

// Status returns the current streak state without evaluating.
func (s *StreakController) Status(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	state, err := s.streaks.Status(ctx.Request.Context(), userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to load streak")
		return
	}

	resp := gin.H{
		"streak":     state.Streak,
		"login_days": len(state.LoginDays),
	}
	if state.LastLoginDay != nil {
		resp["last_login_day"] = state.LastLoginDay.String()
	}
	utils.Success(ctx, resp)
}
