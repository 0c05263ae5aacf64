package handlers_test

import (
	"net/http"
	"testing"

	"task-tracker/backend/internal/apperr"
	"task-tracker/backend/internal/handlers"
	"task-tracker/backend/internal/logging"
	"task-tracker/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupUserHandler(owner uuid.UUID) (*MockAuthService, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	authService := &MockAuthService{}
	handler := handlers.NewUserHandler(authService, logging.Discard())

	router := gin.New()
	router.GET("/auth/me", asUser(owner), handler.GetProfile)
	router.PUT("/auth/me", asUser(owner), handler.UpdateProfile)
	return authService, router
}

func TestGetProfile(t *testing.T) {
	user := testUser()
	authService, router := setupUserHandler(user.ID)
	authService.On("GetUser", mock.Anything, user.ID).Return(user, nil)

	w := perform(router, http.MethodGet, "/auth/me", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, user.ID.String(), body["id"])
	assert.NotContains(t, body, "passwordHash")
}

func TestGetProfile_DeletedUser(t *testing.T) {
	owner := uuid.Must(uuid.NewV4())
	authService, router := setupUserHandler(owner)
	authService.On("GetUser", mock.Anything, owner).Return(nil, apperr.NotFound("User not found"))

	w := perform(router, http.MethodGet, "/auth/me", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateProfile(t *testing.T) {
	user := testUser()
	authService, router := setupUserHandler(user.ID)
	name := "Ada Lovelace"
	authService.On("UpdateProfile", mock.Anything, user.ID, models.ProfileUpdate{Name: &name}).
		Return(&models.User{ID: user.ID, Name: name, Email: user.Email}, nil)

	w := perform(router, http.MethodPut, "/auth/me", map[string]string{"name": name})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, name, decodeBody(t, w)["name"])
}

func TestUpdateProfile_Unauthenticated(t *testing.T) {
	_, router := setupUserHandler(uuid.Nil)

	w := perform(router, http.MethodPut, "/auth/me", map[string]string{"name": "x"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", decodeBody(t, w)["error"])
}
