package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ask-io/internal/domain"
	"ask-io/internal/service"
)

// AskHandler expone preguntas al asistente e historial de chat.
type AskHandler struct {
	logger *zap.Logger
	ask    *service.AskService
}

func NewAskHandler(logger *zap.Logger, ask *service.AskService) *AskHandler {
	return &AskHandler{logger: logger, ask: ask}
}

// Ask maneja POST /ask.
func (h *AskHandler) Ask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		Operation  string             `json:"operation"`
		Prompt     string             `json:"prompt" binding:"required"`
		Attachment *domain.Attachment `json:"attachment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid ask request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	kind := domain.OperationTextQuery
	if req.Operation != "" {
		parsed, valid := domain.ParseOperationKind(req.Operation)
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown operation"})
			return
		}
		kind = parsed
	}

	res, err := h.ask.Ask(c.Request.Context(), service.AskInput{
		UserID:     userID,
		Operation:  kind,
		Prompt:     req.Prompt,
		Attachment: req.Attachment,
	})
	if err != nil {
		writeError(c, h.logger, err, "could not answer question")
		return
	}
	c.JSON(http.StatusOK, res)
}

// History maneja GET /chat/history.
func (h *AskHandler) History(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	msgs, err := h.ask.History(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err, "could not load chat history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
