package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ask-io/internal/service"
)

// Handlers agrupa los handlers expuestos por el router.
type Handlers struct {
	Health        *HealthHandler
	Auth          *AuthHandler
	Profile       *ProfileHandler
	Credits       *CreditHandler
	Ask           *AskHandler
	Notifications *NotificationHandler
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(logger *zap.Logger, jwtSvc *service.JWTService, adminToken string, h Handlers) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/health", h.Health.Check)

	auth := r.Group("/auth")
	auth.POST("/otp/request", h.Auth.RequestOTP)
	auth.POST("/otp/verify", h.Auth.VerifyOTP)
	auth.POST("/refresh", h.Auth.RefreshToken)
	auth.POST("/logout", h.Auth.Logout)

	protected := r.Group("")
	protected.Use(JWTAuthMiddleware(jwtSvc))

	protected.GET("/profile", h.Profile.Get)
	protected.PUT("/profile", h.Profile.Update)

	protected.GET("/credits", h.Credits.GetAccount)
	protected.GET("/credits/history", h.Credits.History)
	protected.POST("/credits/authorize", h.Credits.Authorize)

	protected.POST("/ask", h.Ask.Ask)
	protected.GET("/chat/history", h.Ask.History)

	notes := protected.Group("/notifications")
	notes.GET("", h.Notifications.List)
	notes.GET("/unread-count", h.Notifications.UnreadCount)
	notes.POST("/read", h.Notifications.MarkRead)
	notes.POST("/read-all", h.Notifications.MarkAllRead)
	notes.DELETE("/:id", h.Notifications.Delete)

	admin := r.Group("/admin")
	admin.Use(AdminTokenMiddleware(adminToken))
	admin.POST("/credits/grant", h.Credits.Grant)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
