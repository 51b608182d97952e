package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumicare/review-backend/internal/store"
	"github.com/lumicare/review-backend/types"
)

// HealthHandler reports service liveness and database reachability.
type HealthHandler struct {
	feedbackStore store.FeedbackStore
}

func NewHealthHandler(feedbackStore store.FeedbackStore) *HealthHandler {
	return &HealthHandler{feedbackStore: feedbackStore}
}

// Health returns 200 when the database responds to a ping, 503
// otherwise.
func (h *HealthHandler) Health(c *gin.Context) {
	if err := h.feedbackStore.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, types.HealthResponse{
			Status:   "degraded",
			Database: "unreachable",
		})
		return
	}
	c.JSON(http.StatusOK, types.HealthResponse{
		Status:   "ok",
		Database: "up",
	})
}
