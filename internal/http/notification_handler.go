package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ask-io/internal/service"
)

type NotificationHandler struct {
	logger        *zap.Logger
	notifications *service.NotificationService
}

func NewNotificationHandler(logger *zap.Logger, notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{logger: logger, notifications: notifications}
}

// List maneja GET /notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	unreadOnly, _ := strconv.ParseBool(c.DefaultQuery("unread_only", "false"))
	items, err := h.notifications.List(c.Request.Context(), userID, unreadOnly)
	if err != nil {
		writeError(c, h.logger, err, "could not load notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

// UnreadCount maneja GET /notifications/unread-count.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	n, err := h.notifications.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err, "could not count notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}

// MarkRead maneja POST /notifications/read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		IDs []string `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid mark read request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	n, err := h.notifications.MarkRead(c.Request.Context(), userID, req.IDs)
	if err != nil {
		writeError(c, h.logger, err, "could not update notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "updated": n})
}

// MarkAllRead maneja POST /notifications/read-all.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	n, err := h.notifications.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err, "could not update notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "updated": n})
}

// Delete maneja DELETE /notifications/:id.
func (h *NotificationHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.notifications.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeError(c, h.logger, err, "could not delete notification")
		return
	}
	c.Status(http.StatusNoContent)
}
