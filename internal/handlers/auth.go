package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"task-tracker/backend/internal/apperr"
	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

type TokenIssuer interface {
	Issue(owner uuid.UUID) (string, time.Time, error)
}

// CacheWarmer schedules a refresh of an owner's cached task list.
type CacheWarmer interface {
	ScheduleWarmup(ctx context.Context, owner uuid.UUID) error
}

type AuthHandler struct {
	authService services.AuthService
	tokens      TokenIssuer
	warmer      CacheWarmer
	log         *slog.Logger
}

type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

func NewAuthHandler(authService services.AuthService, tokens TokenIssuer, warmer CacheWarmer, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{authService: authService, tokens: tokens, warmer: warmer, log: log}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, h.log)
		return
	}

	user, err := h.authService.Authenticate(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if h.warmer != nil {
		if err := h.warmer.ScheduleWarmup(c.Request.Context(), user.ID); err != nil {
			h.log.WarnContext(c.Request.Context(), "failed to schedule cache warmup", "user_id", user.ID.String(), "error", err)
		}
	}

	h.respondWithToken(c, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, expiresAt, err := h.tokens.Issue(user.ID)
	if err != nil {
		respondError(c, h.log, apperr.Internal(err))
		return
	}

	c.JSON(status, AuthResponse{Token: token, ExpiresAt: expiresAt, User: user})
}
