package fiber

import (
	"fmt"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggoFiber "github.com/swaggo/fiber-swagger"

	"github.com/user/track-daily/internal/config"
	"github.com/user/track-daily/internal/handler"
	"github.com/user/track-daily/internal/middleware"

	// Import docs for swagger
	_ "github.com/user/track-daily/docs"
)

// maxRequestBody leaves headroom for five attachments at the per-file
// limit plus the rest of the form.
const maxRequestBody = 30 * 1024 * 1024

// NewFiberServer creates and configures a new Fiber application.
func NewFiberServer(cfg *config.AppConfig, api *handler.API) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
		BodyLimit:    maxRequestBody,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${status} - ${method} ${path} ${latency}\nREQUEST_ID: ${locals:requestid}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CorsAllowedOrigins[0], // Fiber's CORS AllowOrigins is a string, not a slice. Taking the first one.
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(middleware.MetricsFiber())
	app.Use(middleware.RateLimiterFiber(cfg.RateLimitPerSecond, cfg.RateLimitBurst))

	// Swagger UI
	app.Get("/swagger/*", swaggoFiber.WrapHandler)

	app.Get("/health", api.Health.CheckHealthFiber)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api1 := app.Group("/api/v1")

	api1.Post("/auth/register", api.Auth.RegisterFiber)
	api1.Post("/auth/login", api.Auth.LoginFiber)

	auth := api1.Group("", middleware.AuthFiber([]byte(cfg.JWTSecret)))

	auth.Get("/user/profile", api.Auth.ProfileFiber)
	auth.Put("/user/profile", api.Auth.UpdateProfileFiber)

	auth.Get("/activities", api.Activities.ListFiber)
	auth.Post("/activities", api.Activities.AddFiber)
	auth.Delete("/activities", api.Activities.DeleteAllFiber)
	auth.Get("/activities/templates", api.Activities.TemplatesFiber)
	auth.Post("/activities/from-template", api.Activities.AddFromTemplateFiber)
	auth.Delete("/activities/:id", api.Activities.DeleteFiber)

	auth.Get("/entries/:date", api.Entries.GetFiber)
	auth.Put("/entries/:date", api.Entries.SaveFiber)
	auth.Delete("/entries/:date/attachments/:index", api.Entries.RemoveAttachmentFiber)
	auth.Post("/entries/:date/files", api.Entries.StageFilesFiber)
	auth.Get("/entries/:date/files", api.Entries.StagedFilesFiber)
	auth.Delete("/entries/:date/files/:index", api.Entries.RemoveStagedFiber)
	auth.Get("/previews/:token", api.Entries.PreviewFiber)

	auth.Get("/months/:month/entries", api.Entries.MonthEntriesFiber)
	auth.Get("/months/:month/summary", api.Entries.MonthSummaryFiber)

	auth.Get("/files", api.Entries.BrowseFilesFiber)

	return app
}

// customErrorHandler for Fiber
func customErrorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	log.Error().Err(err).Str("path", ctx.Path()).Msg("fiber error")

	return ctx.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}

// StartFiberServer starts the Fiber server.
func StartFiberServer(app *fiber.App, cfg *config.AppConfig) error {
	addr := fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort)
	log.Info().Str("addr", addr).Msg("starting Fiber server")
	return app.Listen(addr)
}
