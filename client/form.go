// Package client implements the review submission client: form state
// validation, payload assembly, and submission to the intake endpoint.
// Its validation is presentation-layer only; the server independently
// re-validates everything it receives.
package client

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lumicare/review-backend/types"
)

// emailPattern is the basic address shape: non-empty local part, "@",
// non-empty domain containing a dot.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FormState holds the raw field values as entered in the form.
type FormState struct {
	Name      string
	Email     string
	Product   string
	Review    string
	Subscribe bool
	Rating    RatingPicker
}

// Catalog optionally constrains the product field to known products,
// grouped by product family. Enforced client-side only.
type Catalog map[string][]string

// Contains reports whether the product appears in any family.
func (c Catalog) Contains(product string) bool {
	for _, products := range c {
		for _, p := range products {
			if p == product {
				return true
			}
		}
	}
	return false
}

// ValidationResult reports which fields failed validation. All failing
// fields are flagged at once, not just the first.
type ValidationResult struct {
	Valid  bool
	Fields []string
}

// FailedField reports whether the named field was flagged.
func (r ValidationResult) FailedField(name string) bool {
	for _, f := range r.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// Validate checks the form: name, email, product, and review must be
// non-empty after trimming, and email must match the basic address
// shape. When a catalog is given, the product must appear in it. Never
// returns an error; failures are reported per field.
func Validate(form FormState, catalog Catalog) ValidationResult {
	var failed []string

	name := strings.TrimSpace(form.Name)
	email := strings.TrimSpace(form.Email)
	product := strings.TrimSpace(form.Product)
	review := strings.TrimSpace(form.Review)

	if name == "" {
		failed = append(failed, "name")
	}
	if email == "" || !emailPattern.MatchString(email) {
		failed = append(failed, "email")
	}
	if product == "" || (catalog != nil && !catalog.Contains(product)) {
		failed = append(failed, "product")
	}
	if review == "" {
		failed = append(failed, "review")
	}

	return ValidationResult{Valid: len(failed) == 0, Fields: failed}
}

// RatingPicker models the mutually exclusive 1-5 rating control:
// selecting a value deactivates any previous selection, so at most one
// value is active. The zero value means no rating selected.
type RatingPicker struct {
	selected int
}

// Select activates the given rating, replacing any previous selection.
func (p *RatingPicker) Select(rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5, got %d", rating)
	}
	p.selected = rating
	return nil
}

// Clear deselects any active rating.
func (p *RatingPicker) Clear() {
	p.selected = 0
}

// Selected returns the active rating, if any.
func (p *RatingPicker) Selected() (int, bool) {
	return p.selected, p.selected != 0
}

// Collect builds the submission payload from the current form state.
// Call only after Validate succeeds. Each call stamps a fresh advisory
// timestamp and a generated idempotency key so server-side retries of
// the same collected payload deduplicate.
func Collect(form FormState) types.ReviewSubmission {
	rating := types.RatingUnrated
	if selected, ok := form.Rating.Selected(); ok {
		rating = types.Rating(selected)
	}

	return types.ReviewSubmission{
		Name:           form.Name,
		Email:          form.Email,
		Product:        form.Product,
		Rating:         rating,
		Review:         form.Review,
		Subscribe:      types.FlexBool(form.Subscribe),
		IdempotencyKey: uuid.NewString(),
		Timestamp:      time.Now().Format(time.RFC3339),
	}
}
