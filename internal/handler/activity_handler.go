package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gofiber/fiber/v2"

	"github.com/user/track-daily/internal/apperr"
	"github.com/user/track-daily/internal/service"
)

// ActivityHandler handles activity definition requests.
type ActivityHandler struct {
	Service *service.ActivityService
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(svc *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{Service: svc}
}

// FromTemplateRequest names the template to instantiate.
type FromTemplateRequest struct {
	Code string `json:"code"`
}

// DeleteAllResponse reports how many activities were removed.
type DeleteAllResponse struct {
	Deleted int64 `json:"deleted"`
}

// @Summary List the user's activities
// @Tags Activities
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Activity "Activities in creation order"
// @Failure 401 {object} ErrorResponse "Sign in required"
// @Router /activities [get]
// ListFiber is the activity list endpoint handler for Fiber.
func (h *ActivityHandler) ListFiber(c *fiber.Ctx) error {
	activities, err := h.Service.List(userIDFiber(c))
	if err != nil {
		return errorFiber(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(activities)
}

// ListGin is the activity list endpoint handler for Gin.
func (h *ActivityHandler) ListGin(c *gin.Context) {
	activities, err := h.Service.List(userIDGin(c))
	if err != nil {
		errorGin(c, err)
		return
	}
	c.JSON(http.StatusOK, activities)
}

// @Summary Add a custom activity
// @Tags Activities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.AddActivityInput true "Activity definition"
// @Success 201 {object} model.Activity "Created activity"
// @Failure 400 {object} ErrorResponse "Validation error"
// @Failure 409 {object} ErrorResponse "Duplicate title"
// @Router /activities [post]
// AddFiber is the activity create endpoint handler for Fiber.
func (h *ActivityHandler) AddFiber(c *fiber.Ctx) error {
	var input service.AddActivityInput
	if err := c.BodyParser(&input); err != nil {
		return errorFiber(c, apperr.New(apperr.KindValidation, "Invalid request body"))
	}
	activity, err := h.Service.Add(userIDFiber(c), input)
	if err != nil {
		return errorFiber(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(activity)
}

// AddGin is the activity create endpoint handler for Gin.
func (h *ActivityHandler) AddGin(c *gin.Context) {
	var input service.AddActivityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		errorGin(c, apperr.New(apperr.KindValidation, "Invalid request body"))
		return
	}
	activity, err := h.Service.Add(userIDGin(c), input)
	if err != nil {
		errorGin(c, err)
		return
	}
	c.JSON(http.StatusCreated, activity)
}

// @Summary List the built-in activity templates
// @Tags Activities
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.ActivityTemplate "Templates"
// @Router /activities/templates [get]
// TemplatesFiber is the template list endpoint handler for Fiber.
func (h *ActivityHandler) TemplatesFiber(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(service.Templates)
}

// TemplatesGin is the template list endpoint handler for Gin.
func (h *ActivityHandler) TemplatesGin(c *gin.Context) {
	c.JSON(http.StatusOK, service.Templates)
}

// @Summary Add an activity from a template
// @Tags Activities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body FromTemplateRequest true "Template code"
// @Success 201 {object} model.Activity "Created activity"
// @Failure 400 {object} ErrorResponse "Unknown template"
// @Router /activities/from-template [post]
// AddFromTemplateFiber is the template instantiation endpoint handler for Fiber.
func (h *ActivityHandler) AddFromTemplateFiber(c *fiber.Ctx) error {
	var req FromTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return errorFiber(c, apperr.New(apperr.KindValidation, "Invalid request body"))
	}
	activity, err := h.Service.AddFromTemplate(userIDFiber(c), req.Code)
	if err != nil {
		return errorFiber(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(activity)
}

// AddFromTemplateGin is the template instantiation endpoint handler for Gin.
func (h *ActivityHandler) AddFromTemplateGin(c *gin.Context) {
	var req FromTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorGin(c, apperr.New(apperr.KindValidation, "Invalid request body"))
		return
	}
	activity, err := h.Service.AddFromTemplate(userIDGin(c), req.Code)
	if err != nil {
		errorGin(c, err)
		return
	}
	c.JSON(http.StatusCreated, activity)
}

// @Summary Delete an activity
// @Description Remove an activity and strip its recorded answers from every entry.
// @Tags Activities
// @Produce json
// @Security BearerAuth
// @Param id path int true "Activity ID"
// @Success 204 "Deleted"
// @Failure 404 {object} ErrorResponse "Activity not found"
// @Router /activities/{id} [delete]
// DeleteFiber is the activity delete endpoint handler for Fiber.
func (h *ActivityHandler) DeleteFiber(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return errorFiber(c, apperr.New(apperr.KindValidation, "Invalid activity id"))
	}
	if err := h.Service.Delete(userIDFiber(c), uint(id)); err != nil {
		return errorFiber(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteGin is the activity delete endpoint handler for Gin.
func (h *ActivityHandler) DeleteGin(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		errorGin(c, apperr.New(apperr.KindValidation, "Invalid activity id"))
		return
	}
	if err := h.Service.Delete(userIDGin(c), uint(id)); err != nil {
		errorGin(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Delete every activity
// @Description Remove all activities and clear the answers of every entry.
// @Tags Activities
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DeleteAllResponse "Number deleted"
// @Router /activities [delete]
// DeleteAllFiber is the bulk delete endpoint handler for Fiber.
func (h *ActivityHandler) DeleteAllFiber(c *fiber.Ctx) error {
	deleted, err := h.Service.DeleteAll(userIDFiber(c))
	if err != nil {
		return errorFiber(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(DeleteAllResponse{Deleted: deleted})
}

// DeleteAllGin is the bulk delete endpoint handler for Gin.
func (h *ActivityHandler) DeleteAllGin(c *gin.Context) {
	deleted, err := h.Service.DeleteAll(userIDGin(c))
	if err != nil {
		errorGin(c, err)
		return
	}
	c.JSON(http.StatusOK, DeleteAllResponse{Deleted: deleted})
}
