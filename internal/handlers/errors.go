package handlers

import (
	"log/slog"

	"task-tracker/backend/internal/apperr"

	"github.com/gin-gonic/gin"
)

// respondError writes err as {"error", "message", "fields"}. Internal errors
// are logged in full and answered with a generic message.
func respondError(c *gin.Context, log *slog.Logger, err error) {
	appErr := apperr.From(err)
	kind := appErr.Kind

	body := gin.H{
		"error":   kind.Code(),
		"message": appErr.Message,
	}

	switch kind {
	case apperr.KindValidation:
		if len(appErr.Fields) > 0 {
			body["fields"] = appErr.Fields
		}
	case apperr.KindDuplicateEmail, apperr.KindInvalidCredentials, apperr.KindUnauthorized, apperr.KindNotFound:
	case apperr.KindInternal:
		log.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
		body["message"] = apperr.ErrInternal.Message
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(kind.HTTPStatus(), body)
}

func invalidBody(c *gin.Context, log *slog.Logger) {
	respondError(c, log, apperr.Validation(map[string]string{"body": "Invalid request body"}))
}
