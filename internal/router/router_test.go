package router_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"task-tracker/backend/internal/handlers"
	"task-tracker/backend/internal/logging"
	"task-tracker/backend/internal/middleware"
	"task-tracker/backend/internal/monitoring"
	"task-tracker/backend/internal/router"
	"task-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestEngine(limiter *middleware.RateLimiter, origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logging.Discard()
	tokens := services.NewTokenService("test-secret", time.Hour, "task-tracker")

	return router.New(router.Deps{
		BasePath:       "/api",
		AllowedOrigins: origins,
		Logger:         log,
		Tokens:         tokens,
		RateLimiter:    limiter,
		Monitor:        monitoring.NewMonitor("test", log),
		Auth:           handlers.NewAuthHandler(nil, tokens, nil, log),
		Users:          handlers.NewUserHandler(nil, log),
		Tasks:          handlers.NewTaskHandler(nil, log),
	})
}

func serve(engine http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	engine := newTestEngine(nil, nil)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/tasks"},
		{http.MethodPost, "/api/tasks"},
		{http.MethodPut, "/api/tasks/abc"},
		{http.MethodDelete, "/api/tasks/abc"},
		{http.MethodGet, "/api/auth/me"},
		{http.MethodPut, "/api/auth/me"},
		{http.MethodPost, "/api/auth/logout"},
	}
	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			w := serve(engine, route.method, route.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "No token provided")
		})
	}
}

func TestOperationalEndpoints(t *testing.T) {
	engine := newTestEngine(nil, nil)

	for _, path := range []string{"/api/health", "/api/health/live", "/api/health/ready", "/api/metrics"} {
		w := serve(engine, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	engine := newTestEngine(nil, nil)

	w := serve(engine, http.MethodGet, "/api/health/live", "", nil)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestCORS(t *testing.T) {
	engine := newTestEngine(nil, []string{"http://localhost:5173"})

	w := serve(engine, http.MethodOptions, "/api/tasks", "", map[string]string{
		"Origin":                        "http://localhost:5173",
		"Access-Control-Request-Method": "GET",
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(engine, http.MethodGet, "/api/health/live", "", map[string]string{"Origin": "http://evil.example"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	engine := newTestEngine(middleware.NewRateLimiter(1, 1, time.Minute), nil)

	first := serve(engine, http.MethodPost, "/api/auth/login", "{", nil)
	assert.Equal(t, http.StatusBadRequest, first.Code)

	second := serve(engine, http.MethodPost, "/api/auth/login", "{", nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))

	// Task routes sit outside the limiter.
	tasks := serve(engine, http.MethodGet, "/api/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, tasks.Code)
}
