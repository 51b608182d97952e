// Package store defines the data access contracts consumed by handlers.
// Implementations live in subpackages; handlers depend only on these
// interfaces so tests can substitute mocks.
package store

import (
	"context"

	"github.com/lumicare/review-backend/types"
)

// FeedbackStore persists accepted reviews. The feedback ledger is
// append-only: implementations must never expose mutation or deletion.
type FeedbackStore interface {
	// CreateFeedback inserts one feedback record and returns the
	// store-assigned ID. When the submission carries an idempotency key
	// that was already persisted, no new record is created and created
	// is false; the ID of the existing record is returned instead.
	CreateFeedback(ctx context.Context, fb *types.Feedback) (id string, created bool, err error)

	// Ping reports whether the durable store is reachable.
	Ping(ctx context.Context) error
}
