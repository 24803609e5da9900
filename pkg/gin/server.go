package gin

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggoFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/user/track-daily/internal/config"
	"github.com/user/track-daily/internal/handler"
	"github.com/user/track-daily/internal/middleware"

	// Import docs for swagger
	_ "github.com/user/track-daily/docs"
)

const RequestIDKey = "requestID"

// NewGinServer creates and configures a new Gin application.
func NewGinServer(cfg *config.AppConfig, api *handler.API) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = 8 << 20

	// Middleware
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware())

	corsConfig := cors.DefaultConfig()
	if len(cfg.CorsAllowedOrigins) == 1 && cfg.CorsAllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CorsAllowedOrigins
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.Use(middleware.MetricsGin())
	router.Use(middleware.RateLimiterGin(cfg.RateLimitPerSecond, cfg.RateLimitBurst))

	// Swagger UI
	url := ginSwagger.URL("/swagger/doc.json")
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggoFiles.Handler, url))

	router.GET("/health", api.Health.CheckHealthGin)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api1 := router.Group("/api/v1")

	api1.POST("/auth/register", api.Auth.RegisterGin)
	api1.POST("/auth/login", api.Auth.LoginGin)

	auth := api1.Group("")
	auth.Use(middleware.AuthGin([]byte(cfg.JWTSecret)))
	{
		auth.GET("/user/profile", api.Auth.ProfileGin)
		auth.PUT("/user/profile", api.Auth.UpdateProfileGin)

		auth.GET("/activities", api.Activities.ListGin)
		auth.POST("/activities", api.Activities.AddGin)
		auth.DELETE("/activities", api.Activities.DeleteAllGin)
		auth.GET("/activities/templates", api.Activities.TemplatesGin)
		auth.POST("/activities/from-template", api.Activities.AddFromTemplateGin)
		auth.DELETE("/activities/:id", api.Activities.DeleteGin)

		auth.GET("/entries/:date", api.Entries.GetGin)
		auth.PUT("/entries/:date", api.Entries.SaveGin)
		auth.DELETE("/entries/:date/attachments/:index", api.Entries.RemoveAttachmentGin)
		auth.POST("/entries/:date/files", api.Entries.StageFilesGin)
		auth.GET("/entries/:date/files", api.Entries.StagedFilesGin)
		auth.DELETE("/entries/:date/files/:index", api.Entries.RemoveStagedGin)
		auth.GET("/previews/:token", api.Entries.PreviewGin)

		auth.GET("/months/:month/entries", api.Entries.MonthEntriesGin)
		auth.GET("/months/:month/summary", api.Entries.MonthSummaryGin)

		auth.GET("/files", api.Entries.BrowseFilesGin)
	}

	return router
}

// requestIDMiddleware adds a request ID to each request.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

// loggingMiddleware logs requests using a structured format.
func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		requestID, _ := c.Get(RequestIDKey)

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info().
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()).
			Interface("request_id", requestID).
			Msg("request")
	}
}

// StartGinServer starts the Gin server.
func StartGinServer(router *gin.Engine, cfg *config.AppConfig) (*http.Server, error) {
	addr := fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort)

	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	log.Info().Str("addr", addr).Msg("starting Gin server")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	return srv, nil
}

// ShutdownGinServer gracefully shuts down the Gin server.
func ShutdownGinServer(srv *http.Server, timeout time.Duration) {
	log.Info().Msg("shutting down Gin server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("Gin server exiting")
}
