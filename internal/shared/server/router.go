package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tweetpilot/internal/shared/metrics"
	"tweetpilot/internal/shared/server/middleware"
	"tweetpilot/internal/shared/server/respond"
)

// InteractionHandler registers the webhook endpoint on the engine.
type InteractionHandler interface {
	RegisterRoutes(r gin.IRoutes)
}

// NewRouter constructs the Gin engine with middleware and routes registered.
// Slack retries interactions aggressively, so the webhook gets a generous
// burst before throttling kicks in.
func NewRouter(interactions InteractionHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
	)

	r.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"status": "healthy"})
	})
	r.GET("/metrics", metrics.Handler())

	limiter := middleware.NewRateLimiter(nil)
	webhook := r.Group("/")
	webhook.Use(middleware.RateLimit(limiter, middleware.RateLimitRule{Rate: 5, Burst: 20}))
	interactions.RegisterRoutes(webhook)

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":5003"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
