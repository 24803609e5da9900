package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/user/track-daily/docs" // Swagger docs
	"github.com/user/track-daily/internal/attachment"
	"github.com/user/track-daily/internal/config"
	"github.com/user/track-daily/internal/handler"
	"github.com/user/track-daily/internal/repository"
	"github.com/user/track-daily/internal/service"
	"github.com/user/track-daily/pkg/database"
	fiberserver "github.com/user/track-daily/pkg/fiber"
	ginserver "github.com/user/track-daily/pkg/gin"
	"github.com/user/track-daily/pkg/storage"
)

// @title Track Daily API
// @version 1.0
// @description Personal daily activity tracking API.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token obtained from /auth/login or /auth/register.

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config.env")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	setupLogger(cfg)

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	// Update Swagger info based on config
	docs.SwaggerInfo.Host = cfg.SwaggerHost
	docs.SwaggerInfo.BasePath = cfg.SwaggerBasePath
	docs.SwaggerInfo.Schemes = cfg.SwaggerSchemes
	docs.SwaggerInfo.Title = cfg.AppName + " API"

	// Connect to database
	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.CloseDB(db)

	// Run migrations
	if err := database.MigrateDB(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	// File storage
	store, err := storage.NewS3Store(context.Background(), cfg.S3Region, cfg.S3Bucket, cfg.S3PublicBaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure file storage")
	}

	previews := attachment.NewPreviewStore(cfg.SwaggerBasePath + "/previews")
	staging := attachment.NewManager(previews)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	entryRepo := repository.NewEntryRepository(db)

	// Services
	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL)
	activitySvc := service.NewActivityService(activityRepo)
	entrySvc := service.NewEntryService(entryRepo, activityRepo, store, previews, staging)

	api := &handler.API{
		Health:     handler.NewHealthHandler(db),
		Auth:       handler.NewAuthHandler(authSvc),
		Activities: handler.NewActivityHandler(activitySvc),
		Entries:    handler.NewEntryHandler(entrySvc, staging, previews),
	}

	// Graceful shutdown channel
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start the selected server
	switch cfg.ServerFramework {
	case "fiber":
		fiberApp := fiberserver.NewFiberServer(cfg, api)
		go func() {
			if err := fiberserver.StartFiberServer(fiberApp, cfg); err != nil {
				log.Fatal().Err(err).Msg("failed to start Fiber server")
			}
		}()
		<-quit
		log.Info().Msg("shutting down Fiber server")
		if err := fiberApp.Shutdown(); err != nil {
			log.Error().Err(err).Msg("error during Fiber server shutdown")
		}
	case "gin":
		ginEngine := ginserver.NewGinServer(cfg, api)
		httpServer, err := ginserver.StartGinServer(ginEngine, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to start Gin server")
		}
		<-quit
		ginserver.ShutdownGinServer(httpServer, 5*time.Second)

	default:
		log.Fatal().Str("framework", cfg.ServerFramework).Msg("unsupported server framework, expected 'fiber' or 'gin'")
	}

	log.Info().Msg("server gracefully stopped")
}

func setupLogger(cfg *config.AppConfig) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.AppEnv == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
