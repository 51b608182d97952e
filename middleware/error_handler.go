// Package middleware provides the gin middleware chain: error
// translation, request IDs, CORS, and submission rate limiting.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/lumicare/review-backend/errors"
	"github.com/lumicare/review-backend/logger"
	"github.com/lumicare/review-backend/types"
)

// ErrorHandler translates errors attached with c.Error into the wire
// error shape. Handlers never write error responses themselves; every
// failing path attaches an AppError and returns.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		log := logger.GetLogger()

		if appErr, ok := err.(*apperrors.AppError); ok {
			status := appErr.GetHTTPStatus()
			if status >= http.StatusInternalServerError {
				log.Errorw("Request failed",
					"type", string(appErr.Type),
					"error", appErr.Message,
					"detail", appErr.Detail,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
					"request_id", c.GetString(RequestIDKey))
			} else {
				log.Warnw("Request rejected",
					"type", string(appErr.Type),
					"error", appErr.Message,
					"detail", appErr.Detail,
					"path", c.Request.URL.Path,
					"request_id", c.GetString(RequestIDKey))
			}

			c.JSON(status, types.ErrorResponse{
				Error:   appErr.Message,
				Details: appErr.Detail,
			})
			return
		}

		log.Errorw("Unhandled error",
			"error", err,
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"request_id", c.GetString(RequestIDKey))
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error: "Internal server error",
		})
	}
}
