package handlers

import (
	"net/http"

	"task-tracker/backend/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, h.log)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.respondWithToken(c, http.StatusCreated, user)
}
