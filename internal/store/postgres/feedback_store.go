// Package postgres implements the store interfaces against PostgreSQL
// using pgxpool. All statements use parameter binding; no SQL is ever
// assembled from request input.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lumicare/review-backend/internal/store"
	"github.com/lumicare/review-backend/types"
)

// DBPool is the subset of pgxpool.Pool the feedback store needs. It is
// satisfied by *pgxpool.Pool and by pgxmock pools in tests.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

var _ store.FeedbackStore = (*FeedbackStore)(nil)

// FeedbackStore is the pgx-backed feedback ledger.
type FeedbackStore struct {
	pool DBPool
}

// NewFeedbackStore creates a feedback store backed by the given pool.
func NewFeedbackStore(pool DBPool) *FeedbackStore {
	return &FeedbackStore{pool: pool}
}

const insertFeedbackSQL = `INSERT INTO feedback (name, email, product, rating, review, subscribe)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

const insertFeedbackIdempotentSQL = `INSERT INTO feedback (name, email, product, rating, review, subscribe, idempotency_key)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (idempotency_key) DO NOTHING
RETURNING id`

const selectByIdempotencyKeySQL = `SELECT id FROM feedback WHERE idempotency_key = $1`

// CreateFeedback inserts one feedback record. A submission with an
// idempotency key that was already persisted creates nothing and returns
// the existing record's ID with created=false, so client retries and
// double-clicks collapse into a single stored row.
func (s *FeedbackStore) CreateFeedback(ctx context.Context, fb *types.Feedback) (string, bool, error) {
	rating := ratingValue(fb.Rating)

	if fb.IdempotencyKey == "" {
		var id string
		err := s.pool.QueryRow(ctx, insertFeedbackSQL,
			fb.Name, fb.Email, fb.Product, rating, fb.Review, fb.Subscribe,
		).Scan(&id)
		if err != nil {
			return "", false, fmt.Errorf("failed to create feedback: %w", err)
		}
		return id, true, nil
	}

	var id string
	err := s.pool.QueryRow(ctx, insertFeedbackIdempotentSQL,
		fb.Name, fb.Email, fb.Product, rating, fb.Review, fb.Subscribe, fb.IdempotencyKey,
	).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", false, fmt.Errorf("failed to create feedback: %w", err)
	}

	// ON CONFLICT DO NOTHING returns no row when the key already exists.
	err = s.pool.QueryRow(ctx, selectByIdempotencyKeySQL, fb.IdempotencyKey).Scan(&id)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve duplicate submission: %w", err)
	}
	return id, false, nil
}

// Ping checks connectivity to the database.
func (s *FeedbackStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// ratingValue maps the unrated sentinel to NULL.
func ratingValue(r types.Rating) *int16 {
	if !r.IsRated() {
		return nil
	}
	v := int16(r)
	return &v
}
