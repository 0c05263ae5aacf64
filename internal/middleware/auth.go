package middleware

import (
	"net/http"
	"strings"

	"task-tracker/backend/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

const userIDKey = "user_id"

// TokenVerifier resolves a bearer token to the owning user.
type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

// AuthRequired admits requests carrying a valid bearer token and stores the
// caller's id under "user_id". It never reads the user store.
func AuthRequired(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   apperr.KindUnauthorized.Code(),
				"message": "No token provided",
			})
			return
		}

		owner, err := tokens.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   apperr.KindUnauthorized.Code(),
				"message": apperr.ErrUnauthorized.Message,
			})
			return
		}

		c.Set(userIDKey, owner)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// UserID returns the authenticated caller set by AuthRequired.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(userIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok && !id.IsNil()
}
