package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"vikas-assistant-backend/config"
	"vikas-assistant-backend/database"
	"vikas-assistant-backend/logger"
	"vikas-assistant-backend/middleware"
	"vikas-assistant-backend/routes"
	"vikas-assistant-backend/services"
)

func main() {
	// Load configuration
	if err := config.Load(); err != nil {
		logger.NewStructured("info", "console").WithError(err).Error("Failed to load configuration", nil)
		os.Exit(1)
	}
	cfg, err := config.Get()
	if err != nil {
		logger.NewStructured("info", "console").WithError(err).Error("Failed to read configuration", nil)
		os.Exit(1)
	}

	appLogger := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	defer appLogger.Sync()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := database.Connect(cfg, appLogger); err != nil {
		appLogger.WithError(err).Error("Failed to connect to database", nil)
		os.Exit(1)
	}
	defer database.Disconnect()

	sessions, closeSessions := newSessionStore(cfg, appLogger)
	defer closeSessions()

	history, err := database.NewMessageRepository(cfg)
	if err != nil {
		appLogger.WithError(err).Error("Failed to open message history", nil)
		os.Exit(1)
	}

	chatbotService := services.NewChatbotService(services.NewReplyEngine(), sessions, history, appLogger)
	whatsappService := services.NewWhatsAppService(cfg.WhatsApp, appLogger)
	if cfg.AdminToken == "" {
		appLogger.Warn("ADMIN_TOKEN not set, WhatsApp admin routes are disabled", nil)
	}
	if !cfg.WhatsApp.Enabled() {
		appLogger.Warn("WhatsApp integration disabled: WHATSAPP_ACCESS_TOKEN or WHATSAPP_PHONE_NUMBER_ID missing", nil)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(appLogger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	routes.SetupRoutes(router, routes.Dependencies{
		Config:          cfg,
		ChatbotService:  chatbotService,
		WhatsAppService: whatsappService,
		Logger:          appLogger,
		HealthCheck: func(ctx context.Context) error {
			return database.HealthCheck(ctx, cfg)
		},
	})

	logAvailableEndpoints(router, appLogger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLogger.Info("Server starting", map[string]interface{}{
			"port":        cfg.Port,
			"environment": cfg.Environment,
			"database":    cfg.Database.Type,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Error("Failed to start server", nil)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown", nil)
	}

	appLogger.Info("Server exited", nil)
}

// newSessionStore uses Redis when REDIS_ADDR is set and falls back to memory
// if it is unset or unreachable.
func newSessionStore(cfg *config.Config, lg logger.Logger) (services.SessionStore, func()) {
	if cfg.Redis.Address == "" {
		lg.Info("Known names kept in memory", nil)
		return services.NewMemorySessionStore(cfg.Redis.SessionTTL), func() {}
	}

	client, err := database.NewRedis(context.Background(), cfg.Redis)
	if err != nil {
		lg.WithError(err).Warn("Redis unavailable, keeping known names in memory", map[string]interface{}{
			"address": cfg.Redis.Address,
		})
		return services.NewMemorySessionStore(cfg.Redis.SessionTTL), func() {}
	}

	lg.Info("Connected to Redis", map[string]interface{}{"address": cfg.Redis.Address})
	return services.NewRedisSessionStore(client, cfg.Redis.SessionTTL), func() { _ = client.Close() }
}

func logAvailableEndpoints(router *gin.Engine, lg logger.Logger) {
	for _, route := range router.Routes() {
		lg.Debug("route", map[string]interface{}{
			"method": route.Method,
			"path":   route.Path,
		})
	}
}
