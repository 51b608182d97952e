package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/lumicare/review-backend/types"
)

// ErrSubmissionInFlight is returned when Submit is called while another
// submission from the same client is still awaiting its response.
var ErrSubmissionInFlight = errors.New("a submission is already in flight")

// ErrNoBackend is returned by the environment guard when the endpoint
// cannot possibly reach an intake handler, before any network call.
var ErrNoBackend = errors.New("submission endpoint is not reachable from this environment")

// ServerError is a non-2xx response from the intake handler. The form
// state is untouched, so the caller can correct and resubmit.
type ServerError struct {
	StatusCode int
	Reason     string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("submission rejected (status %d): %s", e.StatusCode, e.Reason)
}

// Outcome is a successful submission acknowledgment.
type Outcome struct {
	Message string
}

// Client submits reviews to the intake endpoint. A single in-flight
// lock prevents concurrent submissions from the same form instance;
// this is the only client-side concurrency control.
type Client struct {
	endpoint   string
	httpClient *http.Client

	mu       sync.Mutex
	inFlight bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a submission client for the given endpoint URL.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// checkEnvironment refuses to submit when the endpoint cannot host an
// intake handler, e.g. a file:// page opened without a backend or an
// unset endpoint. It runs before any network call.
func (c *Client) checkEnvironment() error {
	if c.endpoint == "" {
		return fmt.Errorf("%w: no endpoint configured", ErrNoBackend)
	}
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return fmt.Errorf("%w: invalid endpoint %q", ErrNoBackend, c.endpoint)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q cannot serve the intake endpoint; serve the form from a host with the backend running", ErrNoBackend, u.Scheme+"://")
	}
	if u.Host == "" {
		return fmt.Errorf("%w: endpoint %q has no host", ErrNoBackend, c.endpoint)
	}
	return nil
}

// Submit serializes the submission and POSTs it to the intake endpoint,
// blocking until the round trip completes or the context is cancelled.
// While a submission is in flight, further Submit calls fail with
// ErrSubmissionInFlight.
func (c *Client) Submit(ctx context.Context, sub types.ReviewSubmission) (*Outcome, error) {
	if err := c.checkEnvironment(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	c.inFlight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	body, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submission failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody types.ErrorResponse
		reason := "failed to submit review"
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errBody); decodeErr == nil {
			if errBody.Details != "" {
				reason = errBody.Details
			} else if errBody.Error != "" {
				reason = errBody.Error
			}
		}
		return nil, &ServerError{StatusCode: resp.StatusCode, Reason: reason}
	}

	var ack types.MessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &Outcome{Message: ack.Message}, nil
}
