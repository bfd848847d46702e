package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ask-io/internal/service"
)

// statusFor traduce los errores del servicio a codigos HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidOrExpired):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrDeliveryFailure):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrInsufficientCredits):
		return http.StatusPaymentRequired
	case errors.Is(err, service.ErrGenerationFailed):
		return http.StatusBadGateway
	case errors.Is(err, service.ErrNotificationNotFound), errors.Is(err, service.ErrProfileNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func publicMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, service.ErrInvalidOrExpired):
		return "invalid or expired code"
	case errors.Is(err, service.ErrInvalidInput):
		return err.Error()
	case errors.Is(err, service.ErrRateLimited):
		return "too many requests"
	case errors.Is(err, service.ErrDeliveryFailure):
		return "email delivery unavailable"
	case errors.Is(err, service.ErrInsufficientCredits):
		return "insufficient credits"
	case errors.Is(err, service.ErrGenerationFailed):
		return "could not generate answer"
	case errors.Is(err, service.ErrNotificationNotFound):
		return "notification not found"
	case errors.Is(err, service.ErrProfileNotFound):
		return "profile not found"
	default:
		return fallback
	}
}

func writeError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	status := statusFor(err)
	var limited *service.RateLimitError
	if errors.As(err, &limited) && limited.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(limited.RetryAfter.Seconds()))))
	}
	if status >= http.StatusInternalServerError {
		logger.Error(fallback, zap.Error(err), zap.String("path", c.FullPath()))
	}
	c.JSON(status, gin.H{"error": publicMessage(err, fallback)})
}
