// Package router assembles the gin engine: global middleware, the public
// auth routes, the bearer-protected routes and the operational endpoints.
package router

import (
	"log/slog"
	"time"

	"task-tracker/backend/internal/handlers"
	"task-tracker/backend/internal/middleware"
	"task-tracker/backend/internal/monitoring"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Deps struct {
	BasePath       string
	AllowedOrigins []string
	Logger         *slog.Logger

	Tokens      middleware.TokenVerifier
	RateLimiter *middleware.RateLimiter
	Monitor     *monitoring.Monitor

	Auth  *handlers.AuthHandler
	Users *handlers.UserHandler
	Tasks *handlers.TaskHandler
}

// New builds the engine. A nil RateLimiter leaves /auth unthrottled and a
// nil Monitor skips the operational endpoints.
func New(deps Deps) *gin.Engine {
	engine := gin.New()

	engine.Use(middleware.RecoveryWithLog(deps.Logger))
	if deps.Monitor != nil {
		engine.Use(deps.Monitor.Middleware())
	}
	engine.Use(middleware.RequestLogger(deps.Logger))
	engine.Use(middleware.SecureHeaders())
	engine.Use(cors.New(corsConfig(deps.AllowedOrigins)))

	api := engine.Group(deps.BasePath)

	if deps.Monitor != nil {
		api.GET("/health", deps.Monitor.HealthHandler())
		api.GET("/health/live", deps.Monitor.LivenessHandler())
		api.GET("/health/ready", deps.Monitor.ReadinessHandler())
		api.GET("/metrics", deps.Monitor.MetricsHandler())
	}

	requireAuth := middleware.AuthRequired(deps.Tokens)

	auth := api.Group("/auth")
	if deps.RateLimiter != nil {
		auth.Use(deps.RateLimiter.Middleware())
	}
	auth.POST("/signup", deps.Auth.Signup)
	auth.POST("/login", deps.Auth.Login)
	auth.POST("/logout", requireAuth, deps.Auth.Logout)
	auth.GET("/me", requireAuth, deps.Users.GetProfile)
	auth.PUT("/me", requireAuth, deps.Users.UpdateProfile)

	tasks := api.Group("/tasks", requireAuth)
	tasks.GET("", deps.Tasks.GetTasks)
	tasks.POST("", deps.Tasks.CreateTask)
	tasks.PUT("/:id", deps.Tasks.UpdateTask)
	tasks.DELETE("/:id", deps.Tasks.DeleteTask)

	return engine
}

func corsConfig(origins []string) cors.Config {
	config := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Retry-After"},
		MaxAge:        12 * time.Hour,
	}

	if len(origins) == 0 {
		config.AllowAllOrigins = true
		return config
	}
	for _, origin := range origins {
		if origin == "*" {
			config.AllowAllOrigins = true
			return config
		}
	}
	config.AllowOrigins = origins
	config.AllowCredentials = true
	return config
}
