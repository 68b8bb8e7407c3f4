package handlers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-tracker/internal/auth"
	"github.com/justsurfingit/job-tracker/internal/middleware"
)

type RouterConfig struct {
	Production     bool
	AllowedOrigins []string
	Limiter        middleware.Limiter
	AuthRateLimit  int
	AuthRateWindow time.Duration
}

type Dependencies struct {
	Tokens           *auth.TokenManager
	AuthHandler      *AuthHandler
	JobHandler       *JobHandler
	InterviewHandler *InterviewHandler
}

// NewRouter wires middleware and every route onto a fresh engine.
func NewRouter(cfg RouterConfig, deps Dependencies) *gin.Engine {
	useJSONFieldNames()

	r := gin.New()
	r.Use(gin.Logger(), middleware.ErrorHandler(cfg.Production))

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 0 || cfg.AllowedOrigins[0] == "*" {
		// the extension's chrome-extension:// origin changes per install
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowBrowserExtensions = true
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", HealthCheck)

	api := r.Group("/api")
	{
		authRoutes := api.Group("/auth")
		limited := middleware.RateLimit(cfg.Limiter, cfg.AuthRateLimit, cfg.AuthRateWindow)
		authRoutes.POST("/register", limited, deps.AuthHandler.Register)
		authRoutes.POST("/login", limited, deps.AuthHandler.Login)
		authRoutes.GET("/me", middleware.Authenticate(deps.Tokens), deps.AuthHandler.Me)

		// All job routes require authentication
		jobs := api.Group("/jobs", middleware.Authenticate(deps.Tokens))
		jobs.GET("", deps.JobHandler.ListJobs)
		jobs.POST("", deps.JobHandler.CreateJob)
		jobs.GET("/stats", deps.JobHandler.Stats)
		jobs.POST("/extract", deps.JobHandler.ParseJob)
		jobs.GET("/:id", deps.JobHandler.GetJob)
		jobs.PUT("/:id", deps.JobHandler.UpdateJob)
		jobs.DELETE("/:id", deps.JobHandler.DeleteJob)
		jobs.GET("/:id/events", deps.JobHandler.ListEvents)

		jobs.GET("/:id/interviews", deps.InterviewHandler.List)
		jobs.POST("/:id/interviews", deps.InterviewHandler.Create)
		jobs.PUT("/:id/interviews/:interviewId", deps.InterviewHandler.Update)
		jobs.DELETE("/:id/interviews/:interviewId", deps.InterviewHandler.Delete)
	}

	return r
}
