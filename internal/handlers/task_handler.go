package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sky366trade/backend/internal/auth"
	"github.com/sky366trade/backend/internal/services"
)

// TaskHandler handles the daily task endpoints.
type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// ListTasks returns the user's task list for today, assigning the catalog
// on first view.
// GET /tasks
func (h *TaskHandler) ListTasks(c *gin.Context) {
	username, exists := auth.GetUsername(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	tasks, err := h.taskService.ListTasks(username)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// CompleteTask marks a task completed and credits the reward.
// POST /tasks/:id/complete
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	username, exists := auth.GetUsername(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task id"})
		return
	}

	wallet, err := h.taskService.CompleteTask(username, uint(taskID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"wallet": wallet})
}

// SubmitTask adds a task to the global catalog.
// POST /tasks
func (h *TaskHandler) SubmitTask(c *gin.Context) {
	var req struct {
		Title  string `json:"title" binding:"required"`
		Reward string `json:"reward" binding:"required"`
		Type   string `json:"type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskService.SubmitTask(req.Title, req.Reward, req.Type)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Task submitted successfully",
		"data":    task,
	})
}

// GetCatalog returns the global task catalog.
// GET /tasks/catalog
func (h *TaskHandler) GetCatalog(c *gin.Context) {
	tasks, err := h.taskService.GetCatalog()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, tasks)
}
