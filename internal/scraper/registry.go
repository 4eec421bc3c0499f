package scraper

import (
	"fmt"
	"time"

	"sjsage522/pricesheet/internal/price"
	"sjsage522/pricesheet/internal/targets"
	"sjsage522/pricesheet/services/cache"
)

// Options carries everything a source may need. Sources ignore the fields
// they do not use.
type Options struct {
	Targets *targets.Targets
	Cache   cache.CacheService

	// HTTP fetches static pages. Browser renders script-driven pages and
	// may be nil, in which case HTTP is used for them too.
	HTTP    FetchFunc
	Browser FetchFunc

	// Interval is the minimum time between two requests of one source.
	Interval time.Duration
	// BlockTime is how long a source stays idle after being rate limited.
	BlockTime time.Duration

	GoldURL    string
	BookingURL string

	Clock    func() time.Time
	Location *time.Location
}

// Factory builds the source of one domain.
type Factory func(opts Options) Source

var registry = map[price.Domain]Factory{
	price.DomainGold:   func(o Options) Source { return NewGoldScraper(o) },
	price.DomainHotel:  func(o Options) Source { return NewHotelScraper(o) },
	price.DomainFlight: func(o Options) Source { return NewFlightScraper(o) },
}

// New returns the source registered for domain.
func New(domain price.Domain, opts Options) (Source, error) {
	factory, ok := registry[domain]
	if !ok {
		return nil, fmt.Errorf("no source registered for domain %q", domain)
	}
	if opts.Targets == nil {
		opts.Targets = targets.Defaults()
	}
	if opts.HTTP == nil {
		return nil, fmt.Errorf("source %q needs an HTTP fetcher", domain)
	}
	return factory(opts), nil
}

// NeedsBrowser reports whether the domain's pages are script-rendered.
func NeedsBrowser(domain price.Domain) bool {
	return domain == price.DomainHotel || domain == price.DomainFlight
}
