package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all API routes on the router. metricsHandler may be
// nil when metrics are disabled.
func SetupRoutes(router *gin.Engine, handler *Handler, metricsHandler http.Handler) {
	v1 := router.Group("/api/v1")

	chat := v1.Group("/chat")
	chat.POST("", handler.Chat)       // POST /api/v1/chat
	chat.POST("/poll", handler.Poll)  // POST /api/v1/chat/poll

	telegram := v1.Group("/telegram")
	telegram.POST("/webhook", handler.TelegramWebhook) // POST /api/v1/telegram/webhook

	router.GET("/health", handler.HealthCheck)
	router.GET("/ready", handler.ReadyCheck)

	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}
}
