package handlers

import (
	"net/http"

	"task-tracker/backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Logout only acknowledges. Tokens are stateless; the client discards its
// copy and the token stays valid until it expires.
func (h *AuthHandler) Logout(c *gin.Context) {
	if id, ok := middleware.UserID(c); ok {
		h.log.InfoContext(c.Request.Context(), "user logged out", "user_id", id.String())
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
