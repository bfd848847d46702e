package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ask-io/internal/service"
)

// AuthHandler expone el login sin password por codigo de email.
type AuthHandler struct {
	logger   *zap.Logger
	otp      *service.OTPService
	profiles *service.ProfileService
	jwtServ  *service.JWTService
}

func NewAuthHandler(logger *zap.Logger, otp *service.OTPService, profiles *service.ProfileService, jwtServ *service.JWTService) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		otp:      otp,
		profiles: profiles,
		jwtServ:  jwtServ,
	}
}

// RequestOTP maneja POST /auth/otp/request.
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid otp request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	issued, err := h.otp.Issue(c.Request.Context(), req.Email)
	if err != nil {
		writeError(c, h.logger, err, "could not request otp")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "expires_at": issued.ExpiresAt})
}

// VerifyOTP maneja POST /auth/otp/verify.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		Code  string `json:"code" binding:"required"`
		Name  string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid otp verify request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	// sin JWT no se consume el codigo
	if h.jwtServ == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
		return
	}

	verified, err := h.otp.Verify(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		if errors.Is(err, service.ErrInvalidOrExpired) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "verified": false, "error": publicMessage(err, "")})
			return
		}
		writeError(c, h.logger, err, "could not verify otp")
		return
	}

	profile, created, err := h.profiles.EnsureVerified(c.Request.Context(), verified.Email, req.Name)
	if err != nil {
		writeError(c, h.logger, err, "could not load profile")
		return
	}

	tokens, err := h.jwtServ.IssueSession(c.Request.Context(), profile)
	if err != nil {
		writeError(c, h.logger, err, "could not issue tokens")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"verified":    true,
		"new_profile": created,
		"profile":     profile,
		"tokens":      tokens,
	})
}

// RefreshToken maneja POST /auth/refresh.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid refresh request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if h.jwtServ == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
		return
	}
	tokens, profile, err := h.jwtServ.Rotate(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrJWTInvalid) || errors.Is(err, service.ErrJWTExpired) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		writeError(c, h.logger, err, "could not refresh session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens, "profile": profile})
}

// Logout maneja POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid logout request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if h.jwtServ == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
		return
	}
	if err := h.jwtServ.Revoke(c.Request.Context(), req.RefreshToken); err != nil {
		if errors.Is(err, service.ErrStorageFailure) {
			writeError(c, h.logger, err, "could not revoke session")
			return
		}
		// un token invalido o vencido ya no abre sesion
		h.logger.Debug("logout with unusable token", zap.Error(err))
	}
	c.Status(http.StatusNoContent)
}
