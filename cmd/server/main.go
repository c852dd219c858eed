package main

import (
	"context"
	"os"

	"rosterhub/backend/internal/auth"
	"rosterhub/backend/internal/config"
	"rosterhub/backend/internal/database"
	"rosterhub/backend/internal/handler"
	"rosterhub/backend/internal/hub"
	"rosterhub/backend/internal/presence"
	"rosterhub/backend/internal/upload"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	// Swagger imports
	_ "rosterhub/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           RosterHub Chat API
// @version         1.0
// @description     Team chat service for the RosterHub league-management backend.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Connect to the database
	database.Connect(config.AppConfig.DatabaseURL)

	// Typing presence rides the in-process broker on a single node and
	// Redis pub/sub when scaled out.
	var broker presence.Broker = presence.NewMemoryBroker()
	if config.AppConfig.RedisURL != "" {
		redisBroker, err := presence.NewRedisBroker(context.Background(), config.AppConfig.RedisURL, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisBroker.Close()
		broker = redisBroker
	}

	diskStore, err := upload.NewDiskStore(config.AppConfig.UploadDir, config.AppConfig.MediaURLPrefix)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare upload directory")
	}
	uploads := upload.NewService(diskStore, config.AppConfig.MaxUploadBytes())

	handler.Setup(hub.GlobalHub, broker, uploads, logger)

	router := gin.New()
	router.Use(gin.Recovery(), handler.RequestLogger(logger), handler.Metrics())

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Uploaded media
	router.Static(config.AppConfig.MediaURLPrefix, config.AppConfig.UploadDir)

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", handler.RegisterUser)
			authRoutes.POST("/login", handler.LoginUser)
		}

		// User routes (protected)
		userRoutes := apiV1.Group("/users")
		userRoutes.Use(auth.AuthMiddleware())
		{
			userRoutes.GET("/me", handler.GetMe)
		}

		// Team routes (protected)
		teamRoutes := apiV1.Group("/teams")
		teamRoutes.Use(auth.AuthMiddleware())
		{
			teamRoutes.POST("/:id/chat", handler.EnsureTeamChat)
		}

		// Channel routes (protected)
		channelRoutes := apiV1.Group("/channels")
		channelRoutes.Use(auth.AuthMiddleware())
		{
			channelRoutes.GET("", handler.ListChannels)
			channelRoutes.POST("/:id/join", handler.JoinChannel)
			channelRoutes.GET("/:id/messages", handler.GetMessages)
			channelRoutes.POST("/:id/messages", handler.SendMessage)
			channelRoutes.GET("/:id/media", handler.ListMedia)
			channelRoutes.POST("/:id/read", handler.MarkRead)
			channelRoutes.GET("/:id/unread", handler.GetUnread)
			channelRoutes.GET("/:id/events", handler.StreamEvents)
			channelRoutes.GET("/:id/typing", handler.Typing)
		}

		// Message routes (protected)
		messageRoutes := apiV1.Group("/messages")
		messageRoutes.Use(auth.AuthMiddleware())
		{
			messageRoutes.POST("/:id/reactions", handler.ToggleReaction)
			messageRoutes.DELETE("/:id", handler.DeleteMessage)
		}

		// Upload routes (protected)
		uploadRoutes := apiV1.Group("/uploads")
		uploadRoutes.Use(auth.AuthMiddleware())
		{
			uploadRoutes.POST("", handler.UploadMedia)
		}

		// Admin routes (protected by auth and admin check)
		adminRoutes := apiV1.Group("/admin")
		adminRoutes.Use(auth.AuthMiddleware(), auth.AdminMiddleware())
		{
			adminChannels := adminRoutes.Group("/channels")
			{
				adminChannels.POST("", handler.CreateChannel)
				adminChannels.POST("/:id/archive", handler.ArchiveChannel)
			}
		}
	}

	logger.Info().Str("port", config.AppConfig.Port).Msg("server starting")
	logger.Info().Msg("Swagger UI is available at http://localhost:" + config.AppConfig.Port + "/swagger/index.html")
	if err := router.Run(":" + config.AppConfig.Port); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
