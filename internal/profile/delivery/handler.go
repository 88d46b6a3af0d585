package delivery

import (
	"errors"
	"net/http"

	"betterish-backend/internal/profile/domain"
	"betterish-backend/internal/profile/usecase"

	"github.com/gin-gonic/gin"
)

// ProfileHandler handles profile HTTP requests
type ProfileHandler struct {
	profileUsecase usecase.ProfileUsecase
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profileUsecase usecase.ProfileUsecase) *ProfileHandler {
	return &ProfileHandler{profileUsecase: profileUsecase}
}

// GetProfile returns the user's profile together with the selectable kid stages
// GET /api/profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.profileUsecase.GetProfile(c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"profile":    profile,
		"kid_stages": domain.KidStages,
	})
}

// UpdateProfile changes name, kid name or kid stage
// PUT /api/profile
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req usecase.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.profileUsecase.UpdateProfile(c.GetString("userID"), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidKidStage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, profile)
}
