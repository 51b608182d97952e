package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/lumicare/review-backend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSubmission() types.ReviewSubmission {
	return types.ReviewSubmission{
		Name:    "Jane",
		Email:   "jane@x.com",
		Product: "Soap",
		Rating:  types.Rating(5),
		Review:  "Great!",
	}
}

func TestSubmit_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"Review submitted successfully"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	outcome, err := c.Submit(context.Background(), testSubmission())
	require.NoError(t, err)
	assert.Equal(t, "Review submitted successfully", outcome.Message)
}

func TestSubmit_ServerErrorSurfacesDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to save review","details":"connection refused"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Submit(context.Background(), testSubmission())

	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusInternalServerError, serverErr.StatusCode)
	assert.Equal(t, "connection refused", serverErr.Reason)
}

func TestSubmit_ValidationErrorWithoutDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Missing required fields"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Submit(context.Background(), testSubmission())

	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, "Missing required fields", serverErr.Reason)
}

func TestSubmit_EnvironmentGuard(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
	}{
		{name: "empty endpoint", endpoint: ""},
		{name: "file protocol", endpoint: "file:///index.html"},
		{name: "no host", endpoint: "http://"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := New(tc.endpoint)
			_, err := c.Submit(context.Background(), testSubmission())
			assert.ErrorIs(t, err, ErrNoBackend)
		})
	}
}

func TestSubmit_InFlightLock(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(`{"message":"Review submitted successfully"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := c.Submit(context.Background(), testSubmission())
		assert.NoError(t, err)
	}()

	// Wait for the first submission to hold the lock.
	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.inFlight
	}, time.Second, 5*time.Millisecond)

	_, err := c.Submit(context.Background(), testSubmission())
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(release)
	wg.Wait()

	// After the round trip completes, submissions are allowed again.
	outcome, err := c.Submit(context.Background(), testSubmission())
	require.NoError(t, err)
	assert.Equal(t, "Review submitted successfully", outcome.Message)
}

func TestSubmit_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // immediately closed: connection refused

	c := New(srv.URL)
	_, err := c.Submit(context.Background(), testSubmission())
	require.Error(t, err)

	var serverErr *ServerError
	assert.False(t, errors.As(err, &serverErr), "network errors are not server rejections")
}
