package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studypulse/studypulse/models"
	"github.com/studypulse/studypulse/streak"
	"github.com/studypulse/studypulse/utils"
)

// TaskController manages CRUD operations for study tasks. Completing a
// task is a streak trigger: any qualifying engagement keeps the streak
// alive, not only logins.
type TaskController struct {
	db      *gorm.DB
	streaks *streak.Service
}

// NewTaskController creates a new TaskController instance.
func NewTaskController(db *gorm.DB, streaks *streak.Service) *TaskController {
	return &TaskController{db: db, streaks: streaks}
}

// CreateTask adds a task for the authenticated user.
func (t *TaskController) CreateTask(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Title    string     `json:"title" binding:"required,min=1"`
		Notes    string     `json:"notes"`
		Subject  string     `json:"subject"`
		Priority string     `json:"priority"`
		DueAt    *time.Time `json:"due_at"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	title := utils.SanitizeStrict(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
		return
	}
	priority := req.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	}
	if !validPriority(priority) {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid priority")
		return
	}

	task := models.Task{
		UserID:   userID,
		Title:    title,
		Notes:    utils.Sanitize(req.Notes),
		Subject:  utils.SanitizeStrict(strings.TrimSpace(req.Subject)),
		Priority: priority,
		DueAt:    req.DueAt,
	}
	if err := t.db.Create(&task).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create task")
		return
	}

	t.appendActivity(ctx, userID, models.ActivityTaskCreated, fmt.Sprintf("Created task: %s", task.Title))
	utils.Success(ctx, gin.H{"task": task})
}

// ListTasks returns the user's tasks, optionally filtered by completion.
func (t *TaskController) ListTasks(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	query := t.db.Where("user_id = ?", userID)
	switch ctx.Query("completed") {
	case "true":
		query = query.Where("completed = ?", true)
	case "false":
		query = query.Where("completed = ?", false)
	}
	if subject := strings.TrimSpace(ctx.Query("subject")); subject != "" {
		query = query.Where("subject = ?", subject)
	}

	var total int64
	if err := query.Model(&models.Task{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to count tasks")
		return
	}

	var tasks []models.Task
	if err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&tasks).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list tasks")
		return
	}

	utils.Success(ctx, gin.H{
		"items": tasks,
		"pagination": gin.H{
			"page":      page,
			"page_size": pageSize,
			"total":     total,
		},
	})
}

// GetTask returns a single task owned by the user.
func (t *TaskController) GetTask(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	task, ok := t.ownedTask(ctx, userID)
	if !ok {
		return
	}
	utils.Success(ctx, gin.H{"task": task})
}

// UpdateTask edits title, notes, subject, priority or due date.
func (t *TaskController) UpdateTask(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	task, ok := t.ownedTask(ctx, userID)
	if !ok {
		return
	}

	var req struct {
		Title    *string    `json:"title"`
		Notes    *string    `json:"notes"`
		Subject  *string    `json:"subject"`
		Priority *string    `json:"priority"`
		DueAt    *time.Time `json:"due_at"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid request payload")
		return
	}

	if req.Title != nil {
		title := utils.SanitizeStrict(strings.TrimSpace(*req.Title))
		if title == "" {
			utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
			return
		}
		task.Title = title
	}
	if req.Notes != nil {
		task.Notes = utils.Sanitize(*req.Notes)
	}
	if req.Subject != nil {
		task.Subject = utils.SanitizeStrict(strings.TrimSpace(*req.Subject))
	}
	if req.Priority != nil {
		if !validPriority(*req.Priority) {
			utils.Error(ctx, http.StatusBadRequest, 40022, "invalid priority")
			return
		}
		task.Priority = *req.Priority
	}
	if req.DueAt != nil {
		task.DueAt = req.DueAt
	}

	if err := t.db.Save(&task).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to update task")
		return
	}

	t.appendActivity(ctx, userID, models.ActivityTaskUpdated, fmt.Sprintf("Updated task: %s", task.Title))
	utils.Success(ctx, gin.H{"task": task})
}

// CompleteTask marks a task done and triggers a streak evaluation.
func (t *TaskController) CompleteTask(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	task, ok := t.ownedTask(ctx, userID)
	if !ok {
		return
	}
	if task.Completed {
		utils.Error(ctx, http.StatusBadRequest, 40024, "task already completed")
		return
	}

	now := time.Now()
	task.Completed = true
	task.CompletedAt = &now
	if err := t.db.Save(&task).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to complete task")
		return
	}

	t.appendActivity(ctx, userID, models.ActivityTaskCompleted, fmt.Sprintf("Completed task: %s", task.Title))

	resp := gin.H{"task": task}
	if result, err := t.streaks.Evaluate(ctx.Request.Context(), userID, now); err != nil {
		utils.Sugar.Warnw("streak evaluation failed on task completion", "user_id", userID, "err", err)
	} else {
		resp["streak"] = result
	}
	utils.Success(ctx, resp)
}

// DeleteTask removes a task owned by the user.
func (t *TaskController) DeleteTask(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	task, ok := t.ownedTask(ctx, userID)
	if !ok {
		return
	}
	if err := t.db.Delete(&task).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to delete task")
		return
	}
	utils.Success(ctx, gin.H{"deleted": task.ID})
}

// ownedTask loads the task in the :id param and enforces ownership. On
// failure it writes the error response and returns ok=false.
func (t *TaskController) ownedTask(ctx *gin.Context, userID uint) (models.Task, bool) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		utils.Error(ctx, http.StatusBadRequest, 40025, "invalid task id")
		return models.Task{}, false
	}

	var task models.Task
	if err := t.db.First(&task, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40420, "task not found")
			return models.Task{}, false
		}
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to load task")
		return models.Task{}, false
	}
	if task.UserID != userID {
		// Do not leak existence of other users' tasks.
		utils.Error(ctx, http.StatusNotFound, 40420, "task not found")
		return models.Task{}, false
	}
	return task, true
}

func validPriority(p string) bool {
	switch p {
	case models.TaskPriorityLow, models.TaskPriorityMedium, models.TaskPriorityHigh:
		return true
	}
	return false
}

// appendActivity records a non-streak activity row. Best-effort: the feed
// is telemetry, a failed insert never fails the request.
func (t *TaskController) appendActivity(ctx *gin.Context, userID uint, typ, description string) {
	rec := models.Activity{
		UserID:      userID,
		Type:        typ,
		Description: description,
		DedupKey:    uuid.NewString(),
		CreatedAt:   time.Now(),
	}
	if err := t.db.WithContext(ctx.Request.Context()).Create(&rec).Error; err != nil {
		utils.Sugar.Warnw("activity append failed", "user_id", userID, "type", typ, "err", err)
	}
}
