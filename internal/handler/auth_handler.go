package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofiber/fiber/v2"

	"github.com/user/track-daily/internal/apperr"
	"github.com/user/track-daily/internal/model"
	"github.com/user/track-daily/internal/service"
)

// AuthHandler handles registration, login and profile requests.
type AuthHandler struct {
	Service *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{Service: svc}
}

// RegisterRequest is the body of a registration call.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// LoginRequest is the body of a login call.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the signed token and the user it belongs to.
type AuthResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// @Summary Register a new account
// @Description Create an account with email and password and return a signed token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Registration details"
// @Success 201 {object} AuthResponse "Account created"
// @Failure 400 {object} ErrorResponse "Validation error"
// @Failure 409 {object} ErrorResponse "Email already registered"
// @Router /auth/register [post]
// RegisterFiber is the registration endpoint handler for Fiber.
func (h *AuthHandler) RegisterFiber(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return errorFiber(c, apperr.New(apperr.KindValidation, "Invalid request body"))
	}
	user, err := h.Service.Register(req.Email, req.Password, req.DisplayName)
	if err != nil {
		return errorFiber(c, err)
	}
	token, err := h.Service.GenerateToken(user)
	if err != nil {
		return errorFiber(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(AuthResponse{Token: token, User: user})
}

// RegisterGin is the registration endpoint handler for Gin.
func (h *AuthHandler) RegisterGin(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorGin(c, apperr.New(apperr.KindValidation, "Invalid request body"))
		return
	}
	user, err := h.Service.Register(req.Email, req.Password, req.DisplayName)
	if err != nil {
		errorGin(c, err)
		return
	}
	token, err := h.Service.GenerateToken(user)
	if err != nil {
		errorGin(c, err)
		return
	}
	c.JSON(http.StatusCreated, AuthResponse{Token: token, User: user})
}

// @Summary Log in
// @Description Exchange email and password for a signed token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Credentials"
// @Success 200 {object} AuthResponse "Logged in"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
// LoginFiber is the login endpoint handler for Fiber.
func (h *AuthHandler) LoginFiber(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorFiber(c, apperr.New(apperr.KindValidation, "Invalid request body"))
	}
	token, user, err := h.Service.Login(req.Email, req.Password)
	if err != nil {
		return errorFiber(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(AuthResponse{Token: token, User: user})
}

// LoginGin is the login endpoint handler for Gin.
func (h *AuthHandler) LoginGin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorGin(c, apperr.New(apperr.KindValidation, "Invalid request body"))
		return
	}
	token, user, err := h.Service.Login(req.Email, req.Password)
	if err != nil {
		errorGin(c, err)
		return
	}
	c.JSON(http.StatusOK, AuthResponse{Token: token, User: user})
}

// @Summary Get the signed-in user's profile
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User "Profile"
// @Failure 401 {object} ErrorResponse "Sign in required"
// @Router /user/profile [get]
// ProfileFiber is the profile read endpoint handler for Fiber.
func (h *AuthHandler) ProfileFiber(c *fiber.Ctx) error {
	user, err := h.Service.Profile(userIDFiber(c))
	if err != nil {
		return errorFiber(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(user)
}

// ProfileGin is the profile read endpoint handler for Gin.
func (h *AuthHandler) ProfileGin(c *gin.Context) {
	user, err := h.Service.Profile(userIDGin(c))
	if err != nil {
		errorGin(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary Update the signed-in user's profile
// @Description Apply a partial profile update; absent fields are left unchanged.
// @Tags User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.ProfileUpdate true "Fields to update"
// @Success 200 {object} model.User "Updated profile"
// @Failure 401 {object} ErrorResponse "Sign in required"
// @Router /user/profile [put]
// UpdateProfileFiber is the profile update endpoint handler for Fiber.
func (h *AuthHandler) UpdateProfileFiber(c *fiber.Ctx) error {
	var update model.ProfileUpdate
	if err := c.BodyParser(&update); err != nil {
		return errorFiber(c, apperr.New(apperr.KindValidation, "Invalid request body"))
	}
	user, err := h.Service.UpdateProfile(userIDFiber(c), update)
	if err != nil {
		return errorFiber(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(user)
}

// UpdateProfileGin is the profile update endpoint handler for Gin.
func (h *AuthHandler) UpdateProfileGin(c *gin.Context) {
	var update model.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		errorGin(c, apperr.New(apperr.KindValidation, "Invalid request body"))
		return
	}
	user, err := h.Service.UpdateProfile(userIDGin(c), update)
	if err != nil {
		errorGin(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
