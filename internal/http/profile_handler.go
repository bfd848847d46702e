package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ask-io/internal/service"
)

type ProfileHandler struct {
	logger   *zap.Logger
	profiles *service.ProfileService
}

func NewProfileHandler(logger *zap.Logger, profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{logger: logger, profiles: profiles}
}

// Get maneja GET /profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	profile, err := h.profiles.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err, "could not load profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// Update maneja PUT /profile.
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req service.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid profile update request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	profile, err := h.profiles.Update(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, h.logger, err, "could not update profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "profile": profile})
}
