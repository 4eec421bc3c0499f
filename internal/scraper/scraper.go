// Package scraper reads current prices from the web into batches, one
// Source per price domain.
package scraper

import (
	"context"
	"io"
	"strings"
	"time"

	"sjsage522/pricesheet/internal/price"
)

// Source produces one batch per call covering every tracked identity of
// its domain. Identities that cannot be priced are recorded as failures in
// the batch; an error is returned only when the run itself was cut short.
type Source interface {
	// Name identifies the source in logs and the error journal
	Name() string

	// Domain is the workbook the batch belongs to
	Domain() price.Domain

	// Scrape fetches the current prices
	Scrape(ctx context.Context) (*price.Batch, error)
}

// FetchFunc returns the UTF-8 body of a page.
type FetchFunc func(ctx context.Context, url string) (io.Reader, error)

// Renderer returns the HTML of a page after its scripts have run.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// RenderFetch adapts a Renderer to a FetchFunc.
func RenderFetch(r Renderer) FetchFunc {
	return func(ctx context.Context, url string) (io.Reader, error) {
		html, err := r.Render(ctx, url)
		if err != nil {
			return nil, err
		}
		return strings.NewReader(html), nil
	}
}

// clock returns now in loc, defaulting both.
func clock(now func() time.Time, loc *time.Location) func() time.Time {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return func() time.Time { return now().In(loc) }
}

// dayStart truncates t to midnight in its own location.
func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
