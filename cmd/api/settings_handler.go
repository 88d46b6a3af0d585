package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RuntimeConfig holds the AI settings that can change without a restart
type RuntimeConfig struct {
	Provider      string `json:"provider"`
	GeminiEnabled bool   `json:"gemini_enabled"`
	OllamaBaseURL string `json:"ollama_base_url"`
	OllamaModel   string `json:"ollama_model,omitempty"`
}

// Pinger checks that an Ollama server answers at baseURL
type Pinger interface {
	Ping(ctx context.Context, baseURL string) error
}

// SettingsHandler serves and updates the runtime AI settings
type SettingsHandler struct {
	mu     sync.RWMutex
	config RuntimeConfig
	pinger Pinger
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(initial RuntimeConfig, pinger Pinger) *SettingsHandler {
	return &SettingsHandler{config: initial, pinger: pinger}
}

// OllamaBaseURL returns the current Ollama base URL
func (h *SettingsHandler) OllamaBaseURL() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.config.OllamaBaseURL
}

// OllamaModel returns the current Ollama model
func (h *SettingsHandler) OllamaModel() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.config.OllamaModel
}

// UpdateAISettingsRequest represents the request body for updating AI settings
type UpdateAISettingsRequest struct {
	OllamaBaseURL string `json:"ollama_base_url" binding:"required,url"`
	OllamaModel   string `json:"ollama_model,omitempty"`
}

// GetSettings returns the current AI configuration
// GET /api/settings/ai
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c.JSON(http.StatusOK, h.config)
}

// UpdateSettings changes the Ollama endpoint at runtime
// PUT /api/settings/ai
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req UpdateAISettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mu.Lock()
	h.config.OllamaBaseURL = req.OllamaBaseURL
	if req.OllamaModel != "" {
		h.config.OllamaModel = req.OllamaModel
	}
	updated := h.config
	h.mu.Unlock()

	c.JSON(http.StatusOK, updated)
}

// TestConnection checks that the Ollama server is reachable
// POST /api/settings/ai/test
func (h *SettingsHandler) TestConnection(c *gin.Context) {
	var req struct {
		OllamaBaseURL string `json:"ollama_base_url"`
	}
	// An empty body tests the current setting.
	_ = c.ShouldBindJSON(&req)
	if req.OllamaBaseURL == "" {
		req.OllamaBaseURL = h.OllamaBaseURL()
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	if err := h.pinger.Ping(ctx, req.OllamaBaseURL); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"connected": false,
			"error":     err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connected":       true,
		"ollama_base_url": req.OllamaBaseURL,
	})
}
