package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByKind(t *testing.T) {
	err := NotFound("Task not found")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrUnauthorized))

	wrapped := fmt.Errorf("update task: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
}

func TestError_UnwrapExposesCause(t *testing.T) {
	cause := errors.New("token is expired")
	err := Unauthorized("Invalid or expired token", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "Invalid or expired token: token is expired", err.Error())
}

func TestValidation_JoinsMessagesInFieldOrder(t *testing.T) {
	err := Validation(map[string]string{
		"title":  "Title is required",
		"status": "Status must be one of: pending completed",
	})

	assert.Equal(t, KindValidation, err.Kind)
	assert.Equal(t, "Status must be one of: pending completed, Title is required", err.Message)
	assert.Len(t, err.Fields, 2)
}

func TestFrom_ClassifiesUnknownAsInternal(t *testing.T) {
	err := From(errors.New("connection refused"))

	assert.Equal(t, KindInternal, err.Kind)
	assert.Equal(t, "Server error", err.Message)
	assert.Equal(t, KindDuplicateEmail, KindOf(fmt.Errorf("signup: %w", ErrDuplicateEmail)))
}

func TestKind_HTTPStatus(t *testing.T) {
	tests := []struct {
		kind   Kind
		status int
		code   string
	}{
		{KindValidation, http.StatusBadRequest, "validation_failed"},
		{KindDuplicateEmail, http.StatusBadRequest, "duplicate_email"},
		{KindInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{KindUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{KindNotFound, http.StatusNotFound, "not_found"},
		{KindInternal, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.kind.HTTPStatus())
			assert.Equal(t, tt.code, tt.kind.Code())
		})
	}
}
