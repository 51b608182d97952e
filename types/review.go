package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RatingUnrated is the sentinel for a submission without a rating.
const RatingUnrated Rating = 0

// Rating is a 1-5 product rating. Zero means unrated. The browser form
// historically sent the rating as a string ("5" or "Not rated"), so the
// JSON decoder accepts numbers, numeric strings, the unrated sentinel,
// and null.
type Rating int

// UnmarshalJSON implements lenient decoding of the rating field. Range
// checking is left to the intake handler so violations surface as a
// contract error rather than a parse error.
func (r *Rating) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*r = RatingUnrated
		return nil
	}

	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, "not rated") {
			*r = RatingUnrated
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("rating %q is not a number", s)
		}
		*r = Rating(n)
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("rating must be an integer: %w", err)
	}
	*r = Rating(n)
	return nil
}

// IsRated reports whether a rating was selected.
func (r Rating) IsRated() bool {
	return r != RatingUnrated
}

// InRange reports whether the rating is valid: either unrated or 1-5.
func (r Rating) InRange() bool {
	return r == RatingUnrated || (r >= 1 && r <= 5)
}

// FlexBool is a boolean that tolerates the loose encodings seen from
// form clients: true/false, 0/1, "true"/"false"/"yes". Whatever arrives
// is coerced to a strict boolean before persistence.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*b = false
		return nil
	}

	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch val := v.(type) {
	case bool:
		*b = FlexBool(val)
	case float64:
		*b = val != 0
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			// Mirror JS truthiness for unparseable strings.
			*b = strings.TrimSpace(val) != ""
			return nil
		}
		*b = FlexBool(parsed)
	default:
		return fmt.Errorf("subscribe must be a boolean, got %T", v)
	}
	return nil
}

// MarshalJSON always emits a strict JSON boolean.
func (b FlexBool) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(b))
}

// ReviewSubmission is the request body for submitting a review. It is
// built by the submission client and discarded after the response; the
// server re-validates every required field.
type ReviewSubmission struct {
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Product string   `json:"product"`
	Rating  Rating   `json:"rating,omitempty"`
	Review  string   `json:"review"`
	// Subscribe is the marketing opt-in checkbox.
	Subscribe FlexBool `json:"subscribe,omitempty"`
	// IdempotencyKey is a client-generated UUID used to deduplicate
	// retries and double-clicks at the store layer.
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	// Timestamp is the client-local submission time. Advisory only; the
	// store assigns the authoritative creation time.
	Timestamp string `json:"timestamp,omitempty"`
}

// Feedback represents one accepted review as persisted in the feedback
// ledger. Records are append-only: never mutated or deleted.
type Feedback struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Product        string    `json:"product"`
	Rating         Rating    `json:"rating,omitempty"`
	Review         string    `json:"review"`
	Subscribe      bool      `json:"subscribe"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
