// Package router assembles the gin engine, middleware chain, and routes.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumicare/review-backend/config"
	"github.com/lumicare/review-backend/handlers"
	"github.com/lumicare/review-backend/middleware"
	"github.com/lumicare/review-backend/services"
	"github.com/lumicare/review-backend/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies carries everything the router needs, constructed once at
// startup.
type Dependencies struct {
	Config        *config.Config
	ReviewHandler *handlers.ReviewHandler
	HealthHandler *handlers.HealthHandler
	// RateLimiter is optional; nil disables submission rate limiting.
	RateLimiter services.RateLimiterInterface
}

// New builds the HTTP router.
func New(deps Dependencies) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(&deps.Config.Server))
	r.Use(middleware.ErrorHandler())

	// Anything but POST on the submit route is rejected before any side
	// effect can happen.
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, types.ErrorResponse{Error: "Method Not Allowed"})
	})

	r.GET("/health", deps.HealthHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	submit := api.Group("/submit-review")
	if deps.RateLimiter != nil {
		submit.Use(middleware.SubmitRateLimiter(deps.RateLimiter, deps.Config.RateLimit.SubmitRequestsPerMinute))
	}
	submit.POST("", deps.ReviewHandler.SubmitReview)

	return r
}
