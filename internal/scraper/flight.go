package scraper

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"sjsage522/pricesheet/helpers"
	"sjsage522/pricesheet/internal/layout"
	"sjsage522/pricesheet/internal/price"
	"sjsage522/pricesheet/internal/targets"
	"sjsage522/pricesheet/logger"
	"sjsage522/pricesheet/pkg/errors"
)

// Plausible round-trip fares in QAR. Numbers outside the window are not fares.
const (
	MinFare = 100
	MaxFare = 50000

	faresPerSelector = 10
)

var qarAmount = regexp.MustCompile(`QAR\s*(\d{1,3}(?:,\d{3})+|\d+)`)

// FlightScraper prices every route from every configured source.
type FlightScraper struct {
	Base
	Routes  []targets.Route
	Sources []targets.FlightSource
	now     func() time.Time
}

// NewFlightScraper creates the flight source. Pages are rendered by the
// browser fetcher when one is configured.
func NewFlightScraper(opts Options) *FlightScraper {
	fetch := opts.Browser
	if fetch == nil {
		fetch = opts.HTTP
	}
	return &FlightScraper{
		Base:    newBase("flights", opts, fetch),
		Routes:  opts.Targets.Routes,
		Sources: opts.Targets.Sources,
		now:     clock(opts.Clock, opts.Location),
	}
}

// Domain returns price.DomainFlight
func (f *FlightScraper) Domain() price.Domain {
	return price.DomainFlight
}

// Scrape walks routes × sources in order. A source failing for one route
// does not stop the others.
func (f *FlightScraper) Scrape(ctx context.Context) (*price.Batch, error) {
	runAt := f.now()
	batch := price.NewBatch(price.DomainFlight, f.Name(), runAt)

	for _, r := range f.Routes {
		depart, ret := TravelDates(runAt, r.DurationMonths)
		log := logger.ForScraper(f.Name()).WithFields(logger.Fields{
			"route":  r.Code,
			"depart": depart.Format("2006-01-02"),
			"return": ret.Format("2006-01-02"),
		})

		for _, src := range f.Sources {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			identity := layout.FlightIdentity(r.Code, src.ID)

			fare, err := f.fare(ctx, src, FlightURL(src.URL, r, depart, ret))
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				log.Debug().Err(err).Str("source", src.ID).Msg("no fare")
				batch.Fail(identity, src.Name, err)
				continue
			}

			p := layout.FlightPoint(r, src, map[string]decimal.Decimal{layout.FlightCurrency: fare})
			p.ObservedAt = runAt
			batch.Add(p)
		}
	}
	return batch, nil
}

func (f *FlightScraper) fare(ctx context.Context, src targets.FlightSource, url string) (decimal.Decimal, error) {
	doc, err := f.fetchDocument(ctx, url)
	if err != nil {
		return decimal.Zero, err
	}
	fare, ok := ExtractFare(doc, src.Selectors)
	if !ok {
		return decimal.Zero, errors.NewFieldNotFound(src.Name, "fare")
	}
	return fare, nil
}

// ExtractFare returns the first plausible fare under the given selectors,
// then falls back to the first "QAR n" amount in the page text.
func ExtractFare(doc *goquery.Document, selectors []string) (decimal.Decimal, bool) {
	for _, sel := range selectors {
		var fare decimal.Decimal
		found := false
		doc.Find(sel).EachWithBreak(func(i int, el *goquery.Selection) bool {
			if i >= faresPerSelector {
				return false
			}
			text := strings.TrimSpace(el.Text())
			if text == "" {
				return true
			}
			d, err := helpers.ParseAmount(text)
			if err == nil && helpers.InRange(d, MinFare, MaxFare) {
				fare, found = d, true
				return false
			}
			return true
		})
		if found {
			return fare, true
		}
	}

	doc.Find("script, style, noscript").Remove()
	for _, m := range qarAmount.FindAllStringSubmatch(doc.Text(), 20) {
		d, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
		if err == nil && helpers.InRange(d, MinFare, MaxFare) {
			return d, true
		}
	}
	return decimal.Zero, false
}
