package delivery

import (
	"net/http"

	"betterish-backend/internal/stats/usecase"

	"github.com/gin-gonic/gin"
)

// StatsHandler handles stats HTTP requests
type StatsHandler struct {
	statsUsecase usecase.StatsUsecase
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(statsUsecase usecase.StatsUsecase) *StatsHandler {
	return &StatsHandler{statsUsecase: statsUsecase}
}

// GetStats returns streak, completed count and level progress
// GET /api/stats
func (h *StatsHandler) GetStats(c *gin.Context) {
	view, err := h.statsUsecase.GetStats(c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}
