package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/studypulse/studypulse/models"
	"github.com/studypulse/studypulse/utils"
)

// ActivityController serves the user's activity feed. Records are
// append-only; this surface is read-only.
type ActivityController struct {
	db *gorm.DB
}

// NewActivityController creates a new controller instance.
func NewActivityController(db *gorm.DB) *ActivityController {
	return &ActivityController{db: db}
}

// ListActivity returns the user's records, newest first, optionally
// filtered by type. The first page is briefly cached since the dashboard
// requests it on every mount.
func (a *ActivityController) ListActivity(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	typeFilter := strings.TrimSpace(ctx.Query("type"))

	cacheKey := ""
	if page == 1 && typeFilter == "" {
		cacheKey = fmt.Sprintf("cache:activity:%d:size=%d", userID, pageSize)
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	query := a.db.Where("user_id = ?", userID)
	if typeFilter != "" {
		query = query.Where("type = ?", typeFilter)
	}

	var total int64
	if err := query.Model(&models.Activity{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to count activity")
		return
	}

	var records []models.Activity
	if err := query.Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&records).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to list activity")
		return
	}

	payload := gin.H{
		"items": records,
		"pagination": gin.H{
			"page":      page,
			"page_size": pageSize,
			"total":     total,
		},
	}
	if cacheKey != "" {
		wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
		utils.CacheSetJSON(cacheKey, wrapper, 30*time.Second)
	}
	utils.Success(ctx, payload)
}
