package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"task-tracker/backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	tokens map[string]uuid.UUID
	calls  int
}

func (s *stubVerifier) Verify(token string) (uuid.UUID, error) {
	s.calls++
	if id, ok := s.tokens[token]; ok {
		return id, nil
	}
	return uuid.Nil, errors.New("bad token")
}

func newAuthRouter(verifier middleware.TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/private", middleware.AuthRequired(verifier), func(c *gin.Context) {
		id, ok := middleware.UserID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": id.String()})
	})
	return router
}

func doAuth(router http.Handler, header string) (*httptest.ResponseRecorder, map[string]string) {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestAuthRequired_Valid(t *testing.T) {
	owner := uuid.Must(uuid.NewV4())
	verifier := &stubVerifier{tokens: map[string]uuid.UUID{"good": owner}}
	router := newAuthRouter(verifier)

	w, body := doAuth(router, "Bearer good")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, owner.String(), body["user_id"])
}

func TestAuthRequired_MissingOrMalformedHeader(t *testing.T) {
	verifier := &stubVerifier{}
	router := newAuthRouter(verifier)

	for _, header := range []string{"", "Bearer", "Bearer   ", "Basic abc", "good"} {
		w, body := doAuth(router, header)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
		assert.Equal(t, "No token provided", body["message"], "header %q", header)
		assert.Equal(t, "unauthorized", body["error"])
	}
	assert.Zero(t, verifier.calls)
}

func TestAuthRequired_InvalidToken(t *testing.T) {
	router := newAuthRouter(&stubVerifier{})

	w, body := doAuth(router, "Bearer forged")

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid or expired token", body["message"])
}

func TestUserID_Absent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := middleware.UserID(c)
	assert.False(t, ok)

	c.Set("user_id", "not-a-uuid")
	_, ok = middleware.UserID(c)
	assert.False(t, ok)
}
