package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// UserIDKey is where the authenticated user's uid is stored on the
// request context by both framework variants.
const UserIDKey = "userID"

const signInRequiredMsg = "Sign in required"

func parseBearerToken(authHeader string, secret []byte) (string, error) {
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return "", errors.New("missing bearer token")
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	uid, _ := claims["sub"].(string)
	if uid == "" {
		return "", errors.New("subject claim missing")
	}
	return uid, nil
}

// AuthFiber gates protected routes: a valid bearer token puts the uid in
// c.Locals, anything else is turned away.
func AuthFiber(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := parseBearerToken(c.Get(fiber.HeaderAuthorization), secret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   true,
				"message": signInRequiredMsg,
			})
		}
		c.Locals(UserIDKey, uid)
		return c.Next()
	}
}

// AuthGin is the Gin variant of AuthFiber.
func AuthGin(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, err := parseBearerToken(c.GetHeader("Authorization"), secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   true,
				"message": signInRequiredMsg,
			})
			return
		}
		c.Set(UserIDKey, uid)
		c.Next()
	}
}
