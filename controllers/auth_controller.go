package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/studypulse/studypulse/middleware"
	"github.com/studypulse/studypulse/models"
	"github.com/studypulse/studypulse/streak"
	"github.com/studypulse/studypulse/utils"
)

// AuthController handles registration, login and session endpoints.
// Login success is the primary streak trigger: after the credential check
// it evaluates the streak best-effort and surfaces the result next to the
// token, but a streak failure never fails the login itself.
type AuthController struct {
	db      *gorm.DB
	streaks *streak.Service
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB, streaks *streak.Service) *AuthController {
	return &AuthController{db: db, streaks: streaks}
}

// Register creates a local account.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=3,max=32"`
		Email    string `json:"email" binding:"omitempty,email"`
		Password string `json:"password" binding:"required,min=8,max=72"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}

	username := utils.SanitizeStrict(strings.TrimSpace(req.Username))
	if username == "" {
		utils.Error(ctx, http.StatusBadRequest, 40011, "username cannot be empty")
		return
	}

	var count int64
	if err := a.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to check username")
		return
	}
	if count > 0 {
		utils.Error(ctx, http.StatusConflict, 40910, "username already taken")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to hash password")
		return
	}

	user := models.User{
		Username:     username,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
	}
	if err := a.db.Create(&user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to create user")
		return
	}

	utils.Success(ctx, gin.H{"user": publicUser(user)})
}

// Login verifies credentials, issues a token and triggers the streak
// evaluation for today.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40012, "invalid request payload")
		return
	}

	var user models.User
	err := a.db.Where("username = ?", strings.TrimSpace(req.Username)).First(&user).Error
	if err != nil || !utils.CheckPassword(user.PasswordHash, req.Password) {
		// Same answer for unknown user and wrong password.
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, utils.TokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to issue token")
		return
	}

	resp := gin.H{"token": token, "user": publicUser(user)}
	if result, err := a.streaks.Evaluate(ctx.Request.Context(), user.ID, time.Now()); err != nil {
		// Degrade to "streak unknown"; the login itself succeeded.
		utils.Sugar.Warnw("streak evaluation failed on login", "user_id", user.ID, "err", err)
	} else {
		resp["streak"] = result
	}

	utils.Success(ctx, resp)
}

// Logout revokes the current token until its natural expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	tokenVal, _ := ctx.Get(middleware.ContextTokenKey)
	tokenStr, _ := tokenVal.(string)
	if tokenStr != "" {
		if claims, err := utils.ParseToken(tokenStr); err == nil && claims.ExpiresAt != nil {
			utils.BlacklistToken(tokenStr, claims.ExpiresAt.Time)
		}
	}
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated user's profile.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50014, "failed to load user")
		return
	}

	utils.Success(ctx, gin.H{"user": publicUser(user)})
}

func publicUser(user models.User) gin.H {
	return gin.H{
		"id":             user.ID,
		"username":       user.Username,
		"email":          user.Email,
		"avatar_url":     user.AvatarURL,
		"streak":         user.Streak,
		"last_login_day": user.LastLoginDay,
		"created_at":     user.CreatedAt,
	}
}
