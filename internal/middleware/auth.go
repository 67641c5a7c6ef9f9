package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskwave-api/internal/constants"
	apierrors "github.com/yukikurage/taskwave-api/internal/errors"
)

const bearerPrefix = "Bearer "

// TokenValidator verifies a bearer token and returns its user id.
type TokenValidator interface {
	Validate(token string) (string, error)
}

// RequireAuth checks the bearer token on the request.
// A missing header is 401; a token that fails verification is 403.
func RequireAuth(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			apierrors.Unauthorized(c, "Missing or malformed Authorization header")
			return
		}

		userID, err := tokens.Validate(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
		if err != nil {
			apierrors.InvalidToken(c, "")
			return
		}

		// Store user ID in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return "", false
	}

	id, ok := userID.(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
