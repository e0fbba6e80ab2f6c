package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"therapy-chat/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	tokens *service.SessionTokenService,
	chatH *ChatHandler,
	streamH *StreamHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/disclaimer", GetDisclaimer)
	r.GET("/resources", ListResources)
	r.POST("/session", chatH.CreateSession)

	session := r.Group("/session", SessionAuthMiddleware(tokens))
	session.GET("", chatH.GetSession)
	session.GET("/messages", chatH.ListMessages)
	session.POST("/messages", chatH.PostMessage)
	session.PUT("/emergency", chatH.SetEmergencyPanel)
	session.GET("/mood", chatH.MoodHistory)
	if streamH != nil {
		session.GET("/ws", streamH.Connect)
	}

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
// El upgrade de WebSocket queda fuera.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			c.Writer.Header().Set("Content-Type", "application/json")
		}
		c.Next()
	}
}
