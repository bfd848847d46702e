package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ask-io/internal/domain"
	"ask-io/internal/service"
)

// CreditHandler expone saldo, historial y autorizacion de creditos.
type CreditHandler struct {
	logger  *zap.Logger
	credits *service.CreditService
}

func NewCreditHandler(logger *zap.Logger, credits *service.CreditService) *CreditHandler {
	return &CreditHandler{logger: logger, credits: credits}
}

// GetAccount maneja GET /credits.
func (h *CreditHandler) GetAccount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	account, err := h.credits.GetOrCreateAccount(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err, "could not load credits")
		return
	}
	c.JSON(http.StatusOK, gin.H{"credits": account, "remaining": account.Remaining()})
}

// History maneja GET /credits/history.
func (h *CreditHandler) History(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	records, err := h.credits.ListUsageHistory(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err, "could not load credit history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": records})
}

// Authorize maneja POST /credits/authorize.
func (h *CreditHandler) Authorize(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		Operation string `json:"operation" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid authorize request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	kind, valid := domain.ParseOperationKind(req.Operation)
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown operation"})
		return
	}
	auth, err := h.credits.Authorize(c.Request.Context(), userID, kind)
	if err != nil {
		writeError(c, h.logger, err, "could not authorize operation")
		return
	}
	c.JSON(http.StatusOK, auth)
}

// Grant maneja POST /admin/credits/grant.
func (h *CreditHandler) Grant(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
		Amount int    `json:"amount" binding:"required,min=1,max=1000000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid grant request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if _, err := h.credits.GetOrCreateAccount(c.Request.Context(), req.UserID); err != nil {
		writeError(c, h.logger, err, "could not load credits")
		return
	}
	account, err := h.credits.Grant(c.Request.Context(), req.UserID, req.Amount)
	if err != nil {
		writeError(c, h.logger, err, "could not grant credits")
		return
	}
	h.logger.Info("admin credit grant", zap.String("user_id", req.UserID), zap.Int("amount", req.Amount))
	c.JSON(http.StatusOK, gin.H{"success": true, "credits": account, "remaining": account.Remaining()})
}
