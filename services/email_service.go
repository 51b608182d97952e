// Package services provides the business logic collaborators wired into
// the intake handler: the confirmation email sender, the notification
// worker pool, and the Redis-backed rate limiter.
package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/lumicare/review-backend/config"
	"github.com/lumicare/review-backend/logger"
	"github.com/lumicare/review-backend/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/resend/resend-go/v2"
)

// Notifier sends the review confirmation email. Callers must treat the
// send as best-effort: a failure is logged and swallowed, never surfaced
// to the submitter.
type Notifier interface {
	SendReviewConfirmation(ctx context.Context, fb *types.Feedback) error
}

type emailMetrics struct {
	sendLatency prometheus.Histogram
	errorCount  prometheus.Counter
	sentCount   prometheus.Counter
}

// EmailService sends transactional email through Resend.
type EmailService struct {
	config  *config.EmailConfig
	emails  resend.EmailsSvc
	metrics *emailMetrics
}

var _ Notifier = (*EmailService)(nil)

// NewEmailService creates an EmailService using the default Prometheus
// registry.
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	client := resend.NewClient(cfg.ResendAPIKey)
	return NewEmailServiceWithSender(cfg, client.Emails, prometheus.DefaultRegisterer)
}

// NewEmailServiceWithSender creates an EmailService with an explicit
// sender and metrics registry. Used by tests.
func NewEmailServiceWithSender(cfg *config.EmailConfig, emails resend.EmailsSvc, reg prometheus.Registerer) *EmailService {
	metrics := &emailMetrics{
		sendLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "review_email_send_duration_seconds",
			Help:    "Time taken to send confirmation emails",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		}),
		errorCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "review_email_errors_total",
			Help: "Total number of confirmation email failures",
		}),
		sentCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "review_emails_sent_total",
			Help: "Total number of confirmation emails sent",
		}),
	}
	reg.MustRegister(metrics.sendLatency)
	reg.MustRegister(metrics.errorCount)
	reg.MustRegister(metrics.sentCount)

	return &EmailService{
		config:  cfg,
		emails:  emails,
		metrics: metrics,
	}
}

// SendReviewConfirmation renders and sends the receipt email for one
// accepted review.
func (s *EmailService) SendReviewConfirmation(ctx context.Context, fb *types.Feedback) error {
	start := time.Now()
	log := logger.GetLogger()
	defer func() {
		s.metrics.sendLatency.Observe(time.Since(start).Seconds())
	}()

	tmpl, err := template.New("confirmation").Parse(confirmationEmailTemplate)
	if err != nil {
		s.metrics.errorCount.Inc()
		return fmt.Errorf("failed to parse email template: %w", err)
	}

	rating := "Not rated"
	if fb.Rating.IsRated() {
		rating = fmt.Sprintf("%d/5", fb.Rating)
	}

	var htmlContent bytes.Buffer
	if err := tmpl.Execute(&htmlContent, map[string]string{
		"Name":    fb.Name,
		"Product": fb.Product,
		"Rating":  rating,
		"Review":  fb.Review,
	}); err != nil {
		s.metrics.errorCount.Inc()
		return fmt.Errorf("failed to execute email template: %w", err)
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromAddress),
		To:      []string{fb.Email},
		Subject: fmt.Sprintf("Thanks for reviewing %s", fb.Product),
		Html:    htmlContent.String(),
	}

	if _, err := s.emails.SendWithContext(ctx, params); err != nil {
		s.metrics.errorCount.Inc()
		log.Errorw("Failed to send confirmation email",
			"error", err,
			"to", logger.MaskEmail(fb.Email),
			"product", fb.Product)
		return fmt.Errorf("email send failed: %w", err)
	}

	s.metrics.sentCount.Inc()
	log.Infow("Confirmation email sent",
		"to", logger.MaskEmail(fb.Email),
		"product", fb.Product)
	return nil
}

const confirmationEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>We received your review</title>
    <style>
        body {
            font-family: 'sans-serif';
            background-color: #f7f7f7;
            color: #333333;
            margin: 0;
            padding: 20px;
        }
        .container {
            max-width: 600px;
            margin: 20px auto;
            background-color: #ffffff;
            padding: 30px;
            border-radius: 12px;
            box-shadow: 0 4px 8px rgba(0, 0, 0, 0.05);
        }
        h1 {
            color: #2A9D8F;
            font-size: 26px;
            margin-bottom: 20px;
        }
        p {
            font-size: 16px;
            line-height: 1.6;
            margin-bottom: 20px;
        }
        blockquote {
            border-left: 4px solid #2A9D8F;
            margin: 0;
            padding: 8px 16px;
            color: #555555;
            font-style: italic;
        }
        .meta {
            font-size: 14px;
            color: #777777;
        }
    </style>
</head>
<body>
    <div class="container">
        <h1>Thanks for your review, {{.Name}}!</h1>
        <p>We received your review of <strong>{{.Product}}</strong>.</p>
        <p class="meta">Your rating: {{.Rating}}</p>
        <blockquote>{{.Review}}</blockquote>
        <p>Your feedback helps other customers and helps us improve.</p>
    </div>
</body>
</html>`
