package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-task-manager/internal/models"
	"go-task-manager/internal/services"
)

// TaskHandler はタスク関連のハンドラーを管理します。
type TaskHandler struct {
	taskService *services.TaskService
	log         *zap.Logger
}

// NewTaskHandler は新しいTaskHandlerを作成します。
func NewTaskHandler(taskService *services.TaskService, log *zap.Logger) *TaskHandler {
	return &TaskHandler{taskService: taskService, log: log}
}

// ListTasksHandler はログインユーザーのタスクを取得します。
func (h *TaskHandler) ListTasksHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	tasks, err := h.taskService.ListTasks(c.Request.Context(), userID)
	h.respondList(c, tasks, err)
}

// GetTaskHandler は指定IDのタスクを取得します。
func (h *TaskHandler) GetTaskHandler(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve task")
		return
	}
	c.JSON(http.StatusOK, task)
}

// ListByDateHandler は指定日のタスクを取得します。
func (h *TaskHandler) ListByDateHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	date, err := models.ParseDate(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format, expected YYYY-MM-DD"})
		return
	}
	tasks, err := h.taskService.ListByDate(c.Request.Context(), userID, date)
	h.respondList(c, tasks, err)
}

// ListByPeriodHandler は startDate から endDate までのタスクを取得します。
func (h *TaskHandler) ListByPeriodHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	start, err := models.ParseDate(c.Query("startDate"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid startDate, expected YYYY-MM-DD"})
		return
	}
	end, err := models.ParseDate(c.Query("endDate"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid endDate, expected YYYY-MM-DD"})
		return
	}
	tasks, err := h.taskService.ListByDateRange(c.Request.Context(), userID, start, end)
	h.respondList(c, tasks, err)
}

// ListWeekHandler は今週のタスクを取得します。
func (h *TaskHandler) ListWeekHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	tasks, err := h.taskService.ListCurrentWeek(c.Request.Context(), userID)
	h.respondList(c, tasks, err)
}

// ListMonthHandler は今月のタスクを取得します。
func (h *TaskHandler) ListMonthHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	tasks, err := h.taskService.ListCurrentMonth(c.Request.Context(), userID)
	h.respondList(c, tasks, err)
}

// ListByStatusHandler は完了状態で絞り込みます。
func (h *TaskHandler) ListByStatusHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	completed, err := strconv.ParseBool(c.Param("completed"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status, expected true or false"})
		return
	}
	tasks, err := h.taskService.ListByStatus(c.Request.Context(), userID, completed)
	h.respondList(c, tasks, err)
}

// ListByPriorityHandler は優先度で絞り込みます。
func (h *TaskHandler) ListByPriorityHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	priority, err := models.ParsePriority(c.Param("priority"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tasks, err := h.taskService.ListByPriority(c.Request.Context(), userID, priority)
	h.respondList(c, tasks, err)
}

// ListByCategoryHandler はカテゴリで絞り込みます。
func (h *TaskHandler) ListByCategoryHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	category, err := models.ParseCategory(c.Param("category"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tasks, err := h.taskService.ListByCategory(c.Request.Context(), userID, category)
	h.respondList(c, tasks, err)
}

// SearchHandler はタイトルで検索します。
func (h *TaskHandler) SearchHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	title, ok := c.GetQuery("title")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title query parameter is required"})
		return
	}
	tasks, err := h.taskService.SearchByTitle(c.Request.Context(), userID, title)
	h.respondList(c, tasks, err)
}

// CreateTaskHandler は新しいタスクを作成します。
func (h *TaskHandler) CreateTaskHandler(c *gin.Context) {
	var req models.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, h.log, err, "Failed to save task to database")
		return
	}
	c.JSON(http.StatusCreated, task)
}

// UpdateTaskHandler はタスクを更新します。
func (h *TaskHandler) UpdateTaskHandler(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req models.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), id, userID, &req)
	if err != nil {
		respondError(c, h.log, err, "Failed to update task")
		return
	}
	c.JSON(http.StatusOK, task)
}

// ToggleTaskHandler は完了状態を切り替えます。
func (h *TaskHandler) ToggleTaskHandler(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req models.ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "completed is required"})
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	task, err := h.taskService.ToggleCompletion(c.Request.Context(), id, userID, *req.Completed)
	if err != nil {
		respondError(c, h.log, err, "Failed to update task")
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeleteTaskHandler はタスクを削除します。
func (h *TaskHandler) DeleteTaskHandler(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), id, userID); err != nil {
		respondError(c, h.log, err, "Failed to delete task")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// StatsHandler は完了・未完了の件数を返します。
func (h *TaskHandler) StatsHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	stats, err := h.taskService.Stats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *TaskHandler) respondList(c *gin.Context, tasks []*models.Task, err error) {
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve tasks")
		return
	}
	c.JSON(http.StatusOK, tasks)
}
