package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/user/track-daily/internal/apperr"
	"github.com/user/track-daily/internal/middleware"
)

// ErrorResponse is the envelope every failed request returns.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

func errorFiber(c *fiber.Ctx, err error) error {
	status := apperr.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(status).JSON(ErrorResponse{Error: true, Message: apperr.MessageOf(err)})
}

func errorGin(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= 500 {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.JSON(status, ErrorResponse{Error: true, Message: apperr.MessageOf(err)})
}

func userIDFiber(c *fiber.Ctx) string {
	uid, _ := c.Locals(middleware.UserIDKey).(string)
	return uid
}

func userIDGin(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}
