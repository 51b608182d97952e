package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lumicare/review-backend/services"
	"github.com/lumicare/review-backend/types"
)

// SubmitRateLimiter limits review submissions per client IP using a
// fixed one-minute window. A rate limiter backend failure does not block
// the submission; the primary persistence path stays available.
func SubmitRateLimiter(limiter services.RateLimiterInterface, requestsPerMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("submit:%s", c.ClientIP())

		allowed, retryAfter, err := limiter.CheckLimit(
			c.Request.Context(),
			key,
			requestsPerMinute,
			time.Minute,
		)
		if err != nil {
			// Fail open: losing Redis must not take down intake.
			c.Next()
			return
		}

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, types.ErrorResponse{
				Error: "Rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}
