package delivery

import (
	"errors"
	"net/http"

	"betterish-backend/internal/task/domain"
	"betterish-backend/internal/task/usecase"

	"github.com/gin-gonic/gin"
)

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	taskUsecase usecase.TaskUsecase
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskUsecase usecase.TaskUsecase) *TaskHandler {
	return &TaskHandler{
		taskUsecase: taskUsecase,
	}
}

// CreateTaskRequest represents the request body for creating a task
type CreateTaskRequest struct {
	Title    string          `json:"title" binding:"required"`
	Category domain.Category `json:"category"`
}

// CreateProjectRequest represents the request body for creating a project with subtasks
type CreateProjectRequest struct {
	Title    string   `json:"title" binding:"required"`
	Subtasks []string `json:"subtasks"`
}

// AttachSubtasksRequest represents the request body for appending subtasks
type AttachSubtasksRequest struct {
	Titles []string `json:"titles" binding:"required"`
}

// GetTasks returns the sorted task list with stats
// GET /api/tasks
func (h *TaskHandler) GetTasks(c *gin.Context) {
	userID := c.GetString("userID")

	view, err := h.taskUsecase.ListTasks(userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetTaskByID returns a specific task or subtask
// GET /api/tasks/:id
func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	userID := c.GetString("userID")
	taskID := c.Param("id")

	task, err := h.taskUsecase.GetTask(userID, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// CreateTask creates a new top-level task
// POST /api/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID := c.GetString("userID")

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.taskUsecase.CreateTask(userID, req.Title, req.Category)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// CreateProject creates a project task with its subtasks
// POST /api/tasks/projects
func (h *TaskHandler) CreateProject(c *gin.Context) {
	userID := c.GetString("userID")

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.taskUsecase.CreateProject(userID, req.Title, req.Subtasks)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// DeleteTask deletes a task with its subtasks, or a single subtask
// DELETE /api/tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID := c.GetString("userID")

	view, err := h.taskUsecase.DeleteTask(userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// ToggleTask flips completion of a task or subtask
// POST /api/tasks/:id/toggle
func (h *TaskHandler) ToggleTask(c *gin.Context) {
	userID := c.GetString("userID")

	view, err := h.taskUsecase.ToggleTask(userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// ToggleExpansion shows or hides a task's subtasks
// POST /api/tasks/:id/expand
func (h *TaskHandler) ToggleExpansion(c *gin.Context) {
	userID := c.GetString("userID")

	view, err := h.taskUsecase.ToggleExpansion(userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// AttachSubtasks appends subtasks to a top-level task
// POST /api/tasks/:id/subtasks
func (h *TaskHandler) AttachSubtasks(c *gin.Context) {
	userID := c.GetString("userID")

	var req AttachSubtasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	attached, err := h.taskUsecase.AttachSubtasks(userID, c.Param("id"), req.Titles)
	if err != nil {
		writeError(c, err)
		return
	}
	view, err := h.taskUsecase.ListTasks(userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attached": attached,
		"tasks":    view.Tasks,
		"stats":    view.Stats,
	})
}

func writeError(c *gin.Context, err error) {
	if usecase.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
