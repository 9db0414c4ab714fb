package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vikas-assistant-backend/config"
	"vikas-assistant-backend/controllers"
	"vikas-assistant-backend/logger"
	"vikas-assistant-backend/middleware"
	"vikas-assistant-backend/services"
)

// Dependencies are the services the HTTP layer is built on.
type Dependencies struct {
	Config          *config.Config
	ChatbotService  *services.ChatbotService
	WhatsAppService *services.WhatsAppService
	Logger          logger.Logger
	// HealthCheck reports the state of the history store; nil means always healthy.
	HealthCheck func(ctx context.Context) error
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	cfg := deps.Config

	chatbotController := controllers.NewChatbotController(deps.ChatbotService, deps.Logger)
	wsController := controllers.NewWebSocketController(deps.ChatbotService, cfg.AllowedOrigins, deps.Logger)
	whatsappController := controllers.NewWhatsAppController(deps.WhatsAppService, deps.ChatbotService, deps.Logger)

	router.GET("/health", healthHandler(deps))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := router.Group("/api/v1")
	{
		public.GET("/welcome", chatbotController.Welcome)
		public.GET("/services", chatbotController.GetServices)
		public.GET("/intents", chatbotController.GetSupportedIntents)

		public.POST("/chat", chatbotController.HandleChat)
		public.POST("/extract-name", chatbotController.ExtractName)

		public.GET("/history/:session_id", chatbotController.GetHistory)
		public.DELETE("/history/:session_id", chatbotController.ClearHistory)

		// WebSocket for real-time chat
		public.GET("/ws", wsController.HandleWebSocket)
	}

	whatsapp := router.Group("/api/whatsapp")
	{
		whatsapp.GET("/webhook", whatsappController.VerifyWebhook)
		whatsapp.POST("/webhook", middleware.VerifyWhatsAppSignature(cfg.WhatsApp.AppSecret), whatsappController.HandleWebhook)

		admin := whatsapp.Group("/admin", middleware.RequireAdminToken(cfg.AdminToken))
		{
			admin.POST("/send", whatsappController.SendMessage)
			admin.GET("/status", whatsappController.GetStatus)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Route not found",
			"path":  c.Request.URL.Path,
		})
	})
}

func healthHandler(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		body := gin.H{
			"timestamp":           time.Now(),
			"whatsapp_configured": deps.Config.WhatsApp.Enabled(),
			"database":            deps.Config.Database.Type,
		}

		if deps.HealthCheck != nil {
			if err := deps.HealthCheck(c.Request.Context()); err != nil {
				status, code = "degraded", http.StatusServiceUnavailable
				body["error"] = err.Error()
			}
		}

		body["status"] = status
		c.JSON(code, body)
	}
}
