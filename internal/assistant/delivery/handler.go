package delivery

import (
	"errors"
	"net/http"

	"betterish-backend/internal/assistant/usecase"
	taskusecase "betterish-backend/internal/task/usecase"
	"betterish-backend/pkg/requeststate"

	"github.com/gin-gonic/gin"
)

// AssistantHandler handles the AI-backed endpoints
type AssistantHandler struct {
	pipeline    usecase.Pipeline
	taskUsecase taskusecase.TaskUsecase
}

// NewAssistantHandler creates a new AssistantHandler
func NewAssistantHandler(pipeline usecase.Pipeline, taskUsecase taskusecase.TaskUsecase) *AssistantHandler {
	return &AssistantHandler{
		pipeline:    pipeline,
		taskUsecase: taskUsecase,
	}
}

// ApplyPrioritiesRequest represents a confirmed priority analysis
type ApplyPrioritiesRequest struct {
	PriorityIDs []string `json:"priority_ids"`
	StaleIDs    []string `json:"stale_ids"`
}

// BreakdownTask splits a task into generated subtasks
// POST /api/tasks/:id/breakdown
func (h *AssistantHandler) BreakdownTask(c *gin.Context) {
	userID := c.GetString("userID")

	attached, err := h.pipeline.Breakdown(c.Request.Context(), userID, c.Param("id"))
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

// AnalyzePriorities suggests survival and stale tasks
// POST /api/assistant/priorities/analyze
func (h *AssistantHandler) AnalyzePriorities(c *gin.Context) {
	userID := c.GetString("userID")

	analysis, err := h.pipeline.AnalyzePriorities(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// ApplyPriorities applies a confirmed analysis
// POST /api/assistant/priorities/apply
func (h *AssistantHandler) ApplyPriorities(c *gin.Context) {
	userID := c.GetString("userID")

	var req ApplyPrioritiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.pipeline.ApplyPriorities(userID, req.PriorityIDs, req.StaleIDs)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetSuggestions returns task ideas
// GET /api/assistant/suggestions
func (h *AssistantHandler) GetSuggestions(c *gin.Context) {
	userID := c.GetString("userID")

	suggestions, err := h.pipeline.Suggestions(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// GetDailyTip returns today's tip
// GET /api/assistant/daily-tip
func (h *AssistantHandler) GetDailyTip(c *gin.Context) {
	userID := c.GetString("userID")

	tip, err := h.pipeline.DailyTip(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, tip)
}

// GetLibrary returns the curated task library
// GET /api/assistant/library
func (h *AssistantHandler) GetLibrary(c *gin.Context) {
	c.JSON(http.StatusOK, h.pipeline.Library())
}

// GetRequests returns the state of the user's AI requests
// GET /api/assistant/requests
func (h *AssistantHandler) GetRequests(c *gin.Context) {
	userID := c.GetString("userID")
	c.JSON(http.StatusOK, gin.H{"requests": h.pipeline.Requests(userID)})
}

func writeError(c *gin.Context, err error) {
	if errors.Is(err, requeststate.ErrRequestInFlight) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
