package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"triage-backend/internal/notices"
	"triage-backend/internal/prompts"
	"triage-backend/internal/services/health"
	"triage-backend/internal/sessions"
	"triage-backend/internal/shared/config"
	"triage-backend/internal/shared/metrics"
	"triage-backend/internal/shared/server/middleware"
	"triage-backend/internal/shared/server/respond"
)

// RouterDeps carries the wired handlers the router mounts.
type RouterDeps struct {
	Config          config.Config
	Health          *health.Service
	PromptsHandler  *prompts.Handler
	NoticesHandler  *notices.Handler
	SessionsHandler *sessions.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			// Progress polling is the hot path for the UI; keep it
			// bounded without starving the rest of the API.
			"PROGRESS": {Rate: 10, Burst: 20},
			"DEFAULT":  {Rate: 50, Burst: 100},
		},
		GroupFor: func(c *gin.Context) string {
			if strings.HasSuffix(c.FullPath(), "/progress") {
				return "PROGRESS"
			}
			return ""
		},
	}))

	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, deps.Health.Status(c.Request.Context()))
	})

	if deps.PromptsHandler != nil {
		deps.PromptsHandler.RegisterRoutes(api)
	}
	if deps.NoticesHandler != nil {
		deps.NoticesHandler.RegisterRoutes(api)
	}
	if deps.SessionsHandler != nil {
		deps.SessionsHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
