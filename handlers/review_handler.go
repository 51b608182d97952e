// Package handlers contains the HTTP request handlers. The intake
// handler is the sole authority on whether a submission is accepted:
// client-side validation is never trusted.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/lumicare/review-backend/errors"
	"github.com/lumicare/review-backend/internal/store"
	"github.com/lumicare/review-backend/logger"
	"github.com/lumicare/review-backend/services"
	"github.com/lumicare/review-backend/types"
)

// ReviewHandler handles review submission. It is stateless: every
// request is processed independently with no cache between invocations.
type ReviewHandler struct {
	feedbackStore store.FeedbackStore
	notifier      services.Notifier
	dispatcher    services.JobDispatcher
}

// NewReviewHandler creates a ReviewHandler. notifier and dispatcher may
// both be nil, which silently disables the confirmation email step.
func NewReviewHandler(feedbackStore store.FeedbackStore, notifier services.Notifier, dispatcher services.JobDispatcher) *ReviewHandler {
	return &ReviewHandler{
		feedbackStore: feedbackStore,
		notifier:      notifier,
		dispatcher:    dispatcher,
	}
}

// SubmitReview accepts one product review, persists it, and queues a
// best-effort confirmation email. The email can never change the
// response: persistence alone decides success.
func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	var req types.ReviewSubmission
	if !bindJSONOrError(c, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Product = strings.TrimSpace(req.Product)
	req.Review = strings.TrimSpace(req.Review)

	if missing := missingFields(&req); len(missing) > 0 {
		_ = c.Error(apperrors.ValidationFailed("Missing required fields", strings.Join(missing, ", ")))
		return
	}

	if !req.Rating.InRange() {
		_ = c.Error(apperrors.ValidationFailed("Invalid rating", "rating must be an integer between 1 and 5"))
		return
	}

	if req.IdempotencyKey != "" {
		if _, err := uuid.Parse(req.IdempotencyKey); err != nil {
			_ = c.Error(apperrors.ValidationFailed("Invalid idempotency key", "idempotency_key must be a UUID"))
			return
		}
	}

	fb := &types.Feedback{
		Name:           req.Name,
		Email:          req.Email,
		Product:        req.Product,
		Rating:         req.Rating,
		Review:         req.Review,
		Subscribe:      bool(req.Subscribe),
		IdempotencyKey: req.IdempotencyKey,
	}

	id, created, err := h.feedbackStore.CreateFeedback(c.Request.Context(), fb)
	if err != nil {
		_ = c.Error(apperrors.NewDatabaseError(err))
		return
	}
	fb.ID = id

	log := logger.GetLogger()
	if created {
		log.Infow("Review stored",
			"id", id,
			"product", fb.Product,
			"email", logger.MaskEmail(fb.Email),
			"rated", fb.Rating.IsRated())
		h.queueConfirmation(fb)
	} else {
		log.Infow("Duplicate submission deduplicated",
			"id", id,
			"idempotency_key", fb.IdempotencyKey)
	}

	c.JSON(http.StatusOK, types.MessageResponse{Message: "Review submitted successfully"})
}

// queueConfirmation hands the confirmation email to the worker pool.
// This is the only place the notifier is touched; nothing downstream of
// it can reach the response. A full queue drops the job.
func (h *ReviewHandler) queueConfirmation(fb *types.Feedback) {
	if h.notifier == nil || h.dispatcher == nil {
		return
	}

	record := *fb
	h.dispatcher.Submit(services.Job{
		Name: "review-confirmation",
		Execute: func(ctx context.Context) error {
			return h.notifier.SendReviewConfirmation(ctx, &record)
		},
	})
}

// missingFields returns the names of required fields that are empty
// after trimming, in a stable order, so a response can flag all
// violations at once.
func missingFields(req *types.ReviewSubmission) []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"name", req.Name},
		{"email", req.Email},
		{"product", req.Product},
		{"review", req.Review},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func bindJSONOrError(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		_ = c.Error(apperrors.ValidationFailed("Invalid request body", err.Error()))
		return false
	}
	return true
}
