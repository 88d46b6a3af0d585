package delivery

import (
	"errors"
	"net/http"

	"betterish-backend/internal/chat/domain"
	"betterish-backend/internal/chat/usecase"
	"betterish-backend/pkg/requeststate"

	"github.com/gin-gonic/gin"
)

// ChatHandler handles chat HTTP requests
type ChatHandler struct {
	sessionUsecase usecase.SessionUsecase
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(sessionUsecase usecase.SessionUsecase) *ChatHandler {
	return &ChatHandler{sessionUsecase: sessionUsecase}
}

// SendMessageRequest represents the request body for sending a chat message
type SendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// SetContextRequest represents the request body for scoping the chat to a task
type SetContextRequest struct {
	TaskID string `json:"task_id"`
}

// GetMessages returns the full chat history
// GET /api/chat/messages
func (h *ChatHandler) GetMessages(c *gin.Context) {
	userID := c.GetString("userID")

	messages, err := h.sessionUsecase.History(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages":       messages,
		"active_task_id": h.sessionUsecase.ActiveTaskContext(userID),
	})
}

// SendMessage appends the user's message and the assistant's reply
// POST /api/chat/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID := c.GetString("userID")

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.sessionUsecase.Send(c.Request.Context(), userID, req.Text)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SetContext scopes the next message to a task and returns a draft prompt
// PUT /api/chat/context
func (h *ChatHandler) SetContext(c *gin.Context) {
	userID := c.GetString("userID")

	var req SetContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	draft, err := h.sessionUsecase.SetActiveTaskContext(userID, req.TaskID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"active_task_id": h.sessionUsecase.ActiveTaskContext(userID),
		"draft":          draft,
	})
}

// ClearContext drops the active task context
// DELETE /api/chat/context
func (h *ChatHandler) ClearContext(c *gin.Context) {
	userID := c.GetString("userID")

	if _, err := h.sessionUsecase.SetActiveTaskContext(userID, ""); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"active_task_id": ""})
}

// ConvertMessage turns a message into tasks
// POST /api/chat/messages/:id/convert
func (h *ChatHandler) ConvertMessage(c *gin.Context) {
	userID := c.GetString("userID")

	count, err := h.sessionUsecase.Convert(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"created": count})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyMessage), errors.Is(err, domain.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, requeststate.ErrRequestInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
