// reviewctl submits a product review to the intake endpoint from the
// command line, using the same validation and submission path as the
// web form.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lumicare/review-backend/client"
)

func main() {
	var (
		endpoint  = flag.String("endpoint", "http://localhost:8080/api/submit-review", "intake endpoint URL")
		name      = flag.String("name", "", "reviewer name")
		email     = flag.String("email", "", "reviewer email")
		product   = flag.String("product", "", "reviewed product")
		rating    = flag.Int("rating", 0, "rating 1-5 (0 = unrated)")
		review    = flag.String("review", "", "review text")
		subscribe = flag.Bool("subscribe", false, "opt in to marketing email")
	)
	flag.Parse()

	form := client.FormState{
		Name:      *name,
		Email:     *email,
		Product:   *product,
		Review:    *review,
		Subscribe: *subscribe,
	}
	if *rating != 0 {
		if err := form.Rating.Select(*rating); err != nil {
			fmt.Fprintf(os.Stderr, "invalid rating: %v\n", err)
			os.Exit(1)
		}
	}

	if result := client.Validate(form, nil); !result.Valid {
		fmt.Fprintf(os.Stderr, "invalid form fields: %s\n", strings.Join(result.Fields, ", "))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c := client.New(*endpoint)
	outcome, err := c.Submit(ctx, client.Collect(form))
	if err != nil {
		var serverErr *client.ServerError
		if errors.As(err, &serverErr) {
			fmt.Fprintf(os.Stderr, "rejected: %s\n", serverErr.Reason)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}

	fmt.Println(outcome.Message)
}
