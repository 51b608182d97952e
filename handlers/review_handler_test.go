package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lumicare/review-backend/logger"
	"github.com/lumicare/review-backend/middleware"
	"github.com/lumicare/review-backend/services"
	"github.com/lumicare/review-backend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.IsTest = true
	gin.SetMode(gin.TestMode)
}

// MockFeedbackStore implements store.FeedbackStore for handler tests.
type MockFeedbackStore struct {
	mock.Mock
}

func (m *MockFeedbackStore) CreateFeedback(ctx context.Context, fb *types.Feedback) (string, bool, error) {
	args := m.Called(ctx, fb)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockFeedbackStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockNotifier implements services.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendReviewConfirmation(ctx context.Context, fb *types.Feedback) error {
	args := m.Called(ctx, fb)
	return args.Error(0)
}

// syncDispatcher runs jobs inline so tests observe notifier calls
// deterministically.
type syncDispatcher struct {
	submitted int
}

func (d *syncDispatcher) Submit(job services.Job) bool {
	d.submitted++
	_ = job.Execute(context.Background())
	return true
}

func setupRouter(h *ReviewHandler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, types.ErrorResponse{Error: "Method Not Allowed"})
	})
	r.POST("/api/submit-review", h.SubmitReview)
	return r
}

func postJSON(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/submit-review", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func validBody() map[string]interface{} {
	return map[string]interface{}{
		"name":      "Jane",
		"email":     "jane@x.com",
		"product":   "Soap",
		"rating":    5,
		"review":    "Great!",
		"subscribe": true,
	}
}

func marshal(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestSubmitReview_MissingFields(t *testing.T) {
	required := []string{"name", "email", "product", "review"}

	for _, field := range required {
		t.Run("missing_"+field, func(t *testing.T) {
			store := new(MockFeedbackStore)
			h := NewReviewHandler(store, nil, nil)

			body := validBody()
			delete(body, field)
			w := postJSON(setupRouter(h), marshal(t, body))

			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp types.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "Missing required fields", resp.Error)
			assert.Contains(t, resp.Details, field)

			store.AssertNotCalled(t, "CreateFeedback", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmitReview_WhitespaceOnlyFieldIsMissing(t *testing.T) {
	store := new(MockFeedbackStore)
	h := NewReviewHandler(store, nil, nil)

	body := validBody()
	body["name"] = "   "
	w := postJSON(setupRouter(h), marshal(t, body))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	store.AssertNotCalled(t, "CreateFeedback", mock.Anything, mock.Anything)
}

func TestSubmitReview_AllMissingFieldsFlagged(t *testing.T) {
	store := new(MockFeedbackStore)
	h := NewReviewHandler(store, nil, nil)

	w := postJSON(setupRouter(h), `{"rating": 3}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp types.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	for _, field := range []string{"name", "email", "product", "review"} {
		assert.Contains(t, resp.Details, field)
	}
}

func TestSubmitReview_MalformedJSON(t *testing.T) {
	store := new(MockFeedbackStore)
	h := NewReviewHandler(store, nil, nil)

	w := postJSON(setupRouter(h), `{"name": "Jane", `)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	store.AssertNotCalled(t, "CreateFeedback", mock.Anything, mock.Anything)
}

func TestSubmitReview_MethodNotAllowed(t *testing.T) {
	store := new(MockFeedbackStore)
	h := NewReviewHandler(store, nil, nil)
	r := setupRouter(h)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/api/submit-review", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

			var resp types.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "Method Not Allowed", resp.Error)
		})
	}

	store.AssertNotCalled(t, "CreateFeedback", mock.Anything, mock.Anything)
}

func TestSubmitReview_Success(t *testing.T) {
	store := new(MockFeedbackStore)
	store.On("CreateFeedback", mock.Anything, mock.MatchedBy(func(fb *types.Feedback) bool {
		return fb.Name == "Jane" &&
			fb.Email == "jane@x.com" &&
			fb.Product == "Soap" &&
			fb.Rating == types.Rating(5) &&
			fb.Review == "Great!" &&
			fb.Subscribe == true
	})).Return("feedback-id-1", true, nil).Once()

	h := NewReviewHandler(store, nil, nil)
	w := postJSON(setupRouter(h), marshal(t, validBody()))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp types.MessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Review submitted successfully", resp.Message)

	store.AssertExpectations(t)
	store.AssertNumberOfCalls(t, "CreateFeedback", 1)
}

func TestSubmitReview_SubscribeCoercion(t *testing.T) {
	tests := []struct {
		name      string
		subscribe interface{}
		omit      bool
		want      bool
	}{
		{name: "bool true", subscribe: true, want: true},
		{name: "string true", subscribe: "true", want: true},
		{name: "number one", subscribe: 1, want: true},
		{name: "string false", subscribe: "false", want: false},
		{name: "number zero", subscribe: 0, want: false},
		{name: "omitted", omit: true, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := new(MockFeedbackStore)
			store.On("CreateFeedback", mock.Anything, mock.MatchedBy(func(fb *types.Feedback) bool {
				return fb.Subscribe == tc.want
			})).Return("id", true, nil).Once()

			body := validBody()
			if tc.omit {
				delete(body, "subscribe")
			} else {
				body["subscribe"] = tc.subscribe
			}

			h := NewReviewHandler(store, nil, nil)
			w := postJSON(setupRouter(h), marshal(t, body))

			assert.Equal(t, http.StatusOK, w.Code)
			store.AssertExpectations(t)
		})
	}
}

func TestSubmitReview_RatingPolicy(t *testing.T) {
	t.Run("unrated sentinel accepted", func(t *testing.T) {
		store := new(MockFeedbackStore)
		store.On("CreateFeedback", mock.Anything, mock.MatchedBy(func(fb *types.Feedback) bool {
			return !fb.Rating.IsRated()
		})).Return("id", true, nil).Once()

		body := validBody()
		body["rating"] = "Not rated"
		h := NewReviewHandler(store, nil, nil)
		w := postJSON(setupRouter(h), marshal(t, body))

		assert.Equal(t, http.StatusOK, w.Code)
		store.AssertExpectations(t)
	})

	t.Run("rating absent accepted", func(t *testing.T) {
		store := new(MockFeedbackStore)
		store.On("CreateFeedback", mock.Anything, mock.Anything).Return("id", true, nil).Once()

		body := validBody()
		delete(body, "rating")
		h := NewReviewHandler(store, nil, nil)
		w := postJSON(setupRouter(h), marshal(t, body))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("string rating accepted", func(t *testing.T) {
		store := new(MockFeedbackStore)
		store.On("CreateFeedback", mock.Anything, mock.MatchedBy(func(fb *types.Feedback) bool {
			return fb.Rating == types.Rating(4)
		})).Return("id", true, nil).Once()

		body := validBody()
		body["rating"] = "4"
		h := NewReviewHandler(store, nil, nil)
		w := postJSON(setupRouter(h), marshal(t, body))

		assert.Equal(t, http.StatusOK, w.Code)
		store.AssertExpectations(t)
	})

	for _, bad := range []interface{}{0.5, 6, -1, "ten"} {
		t.Run("rejected", func(t *testing.T) {
			store := new(MockFeedbackStore)
			body := validBody()
			body["rating"] = bad
			h := NewReviewHandler(store, nil, nil)
			w := postJSON(setupRouter(h), marshal(t, body))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			store.AssertNotCalled(t, "CreateFeedback", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmitReview_StoreFailure(t *testing.T) {
	store := new(MockFeedbackStore)
	store.On("CreateFeedback", mock.Anything, mock.Anything).
		Return("", false, errors.New("connection refused")).Once()

	notifier := new(MockNotifier)
	dispatcher := &syncDispatcher{}
	h := NewReviewHandler(store, notifier, dispatcher)

	w := postJSON(setupRouter(h), marshal(t, validBody()))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp types.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to save review", resp.Error)
	assert.Contains(t, resp.Details, "connection refused")

	// Persistence failure is fatal: the notifier must never run.
	notifier.AssertNotCalled(t, "SendReviewConfirmation", mock.Anything, mock.Anything)
	assert.Zero(t, dispatcher.submitted)
}

func TestSubmitReview_NotifierFailureStillSucceeds(t *testing.T) {
	store := new(MockFeedbackStore)
	store.On("CreateFeedback", mock.Anything, mock.Anything).Return("id-1", true, nil).Once()

	notifier := new(MockNotifier)
	notifier.On("SendReviewConfirmation", mock.Anything, mock.Anything).
		Return(errors.New("provider down")).Once()

	h := NewReviewHandler(store, notifier, &syncDispatcher{})
	w := postJSON(setupRouter(h), marshal(t, validBody()))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp types.MessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Review submitted successfully", resp.Message)

	notifier.AssertExpectations(t)
}

func TestSubmitReview_NotifierInvokedOnSuccess(t *testing.T) {
	store := new(MockFeedbackStore)
	store.On("CreateFeedback", mock.Anything, mock.Anything).Return("id-1", true, nil).Once()

	notifier := new(MockNotifier)
	notifier.On("SendReviewConfirmation", mock.Anything, mock.MatchedBy(func(fb *types.Feedback) bool {
		return fb.ID == "id-1" && fb.Product == "Soap" && fb.Email == "jane@x.com"
	})).Return(nil).Once()

	h := NewReviewHandler(store, notifier, &syncDispatcher{})
	w := postJSON(setupRouter(h), marshal(t, validBody()))

	assert.Equal(t, http.StatusOK, w.Code)
	notifier.AssertExpectations(t)
}

func TestSubmitReview_NoNotifierConfigured(t *testing.T) {
	store := new(MockFeedbackStore)
	store.On("CreateFeedback", mock.Anything, mock.Anything).Return("id-1", true, nil).Once()

	// nil notifier and dispatcher: the step is skipped silently.
	h := NewReviewHandler(store, nil, nil)
	w := postJSON(setupRouter(h), marshal(t, validBody()))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubmitReview_DuplicateIdempotencyKey(t *testing.T) {
	store := new(MockFeedbackStore)
	store.On("CreateFeedback", mock.Anything, mock.Anything).Return("existing-id", false, nil).Once()

	notifier := new(MockNotifier)
	dispatcher := &syncDispatcher{}
	h := NewReviewHandler(store, notifier, dispatcher)

	body := validBody()
	body["idempotency_key"] = "7b47a9c6-90bb-4a54-9c2e-0eec42b643f5"
	w := postJSON(setupRouter(h), marshal(t, body))

	// The duplicate still acknowledges success, but no second email.
	assert.Equal(t, http.StatusOK, w.Code)
	notifier.AssertNotCalled(t, "SendReviewConfirmation", mock.Anything, mock.Anything)
	assert.Zero(t, dispatcher.submitted)
}

func TestSubmitReview_InvalidIdempotencyKey(t *testing.T) {
	store := new(MockFeedbackStore)
	h := NewReviewHandler(store, nil, nil)

	body := validBody()
	body["idempotency_key"] = "not-a-uuid"
	w := postJSON(setupRouter(h), marshal(t, body))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	store.AssertNotCalled(t, "CreateFeedback", mock.Anything, mock.Anything)
}

func TestSubmitReview_AdvisoryTimestampIgnored(t *testing.T) {
	store := new(MockFeedbackStore)
	store.On("CreateFeedback", mock.Anything, mock.Anything).Return("id", true, nil).Once()

	body := validBody()
	body["timestamp"] = "1/1/2024, 10:00:00 AM"
	h := NewReviewHandler(store, nil, nil)
	w := postJSON(setupRouter(h), marshal(t, body))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthHandler(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		store := new(MockFeedbackStore)
		store.On("Ping", mock.Anything).Return(nil).Once()

		r := gin.New()
		r.GET("/health", NewHealthHandler(store).Health)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("database down", func(t *testing.T) {
		store := new(MockFeedbackStore)
		store.On("Ping", mock.Anything).Return(errors.New("dial error")).Once()

		r := gin.New()
		r.GET("/health", NewHealthHandler(store).Health)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
