package scraper

import (
	"context"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/antzucaro/matchr"
	"github.com/shopspring/decimal"

	"sjsage522/pricesheet/helpers"
	"sjsage522/pricesheet/internal/layout"
	"sjsage522/pricesheet/internal/price"
	"sjsage522/pricesheet/internal/targets"
	"sjsage522/pricesheet/pkg/errors"
)

// DefaultBookingURL is the booking.com search results endpoint.
const DefaultBookingURL = "https://www.booking.com/searchresults.html"

const (
	// Rates at or below minNightlyRate are badges or counters, not prices.
	minNightlyRate = 50
	minMatchScore  = 0.6
	wordMatchScore = 0.9
	maxCards       = 15
)

var (
	cardSelectors  = []string{"[data-testid='property-card']", ".sr_item"}
	titleSelectors = []string{"[data-testid='title']", "a[data-testid='title-link']", ".sr-hotel__name"}

	ratePriceSelectors = []string{
		"span[data-testid='price-and-discounted-price']",
		".bui-price-display__value",
		".prco-valign-middle-helper",
		".bui-price-display",
		"[data-testid='price']",
		".hprt-price-price",
		".sr_price",
	}

	pageTitleSelectors = []string{"h2.pp-header__title", "h2.pc-header__title", "[data-testid='hotel-name']", "h1"}

	commonNameWords = map[string]bool{
		"hotel": true, "hotels": true, "doha": true, "apartments": true, "residence": true,
		"residences": true, "resort": true, "the": true, "by": true, "and": true, "&": true,
	}
)

// HotelMatch is the search result chosen for a hotel.
type HotelMatch struct {
	Name  string
	Rate  decimal.Decimal
	Score float64
}

// HotelScraper prices each hotel from a one-night booking search.
type HotelScraper struct {
	Base
	SearchURL string
	Hotels    []targets.Hotel
	now       func() time.Time
}

// NewHotelScraper creates the hotel source. Pages are rendered by the
// browser fetcher when one is configured.
func NewHotelScraper(opts Options) *HotelScraper {
	searchURL := opts.BookingURL
	if searchURL == "" {
		searchURL = DefaultBookingURL
	}
	fetch := opts.Browser
	if fetch == nil {
		fetch = opts.HTTP
	}
	return &HotelScraper{
		Base:      newBase("booking", opts, fetch),
		SearchURL: searchURL,
		Hotels:    opts.Targets.Hotels,
		now:       clock(opts.Clock, opts.Location),
	}
}

// Domain returns price.DomainHotel
func (h *HotelScraper) Domain() price.Domain {
	return price.DomainHotel
}

// SearchURLFor builds the search for one adult, one room, checking in the
// day after runAt for one night, priced in QAR.
func (h *HotelScraper) SearchURLFor(hotel targets.Hotel, runAt time.Time) string {
	checkin := dayStart(runAt).AddDate(0, 0, 1)
	q := url.Values{}
	q.Set("ss", hotel.Query())
	q.Set("checkin", checkin.Format("2006-01-02"))
	q.Set("checkout", checkin.AddDate(0, 0, 1).Format("2006-01-02"))
	q.Set("group_adults", "1")
	q.Set("group_children", "0")
	q.Set("no_rooms", "1")
	q.Set("selected_currency", layout.HotelCurrency)
	q.Set("lang", "en-gb")

	sep := "?"
	if strings.Contains(h.SearchURL, "?") {
		sep = "&"
	}
	return h.SearchURL + sep + q.Encode()
}

// Scrape searches every hotel in turn.
func (h *HotelScraper) Scrape(ctx context.Context) (*price.Batch, error) {
	runAt := h.now()
	batch := price.NewBatch(price.DomainHotel, h.Name(), runAt)

	for _, hotel := range h.Hotels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		match, err := h.price(ctx, hotel, runAt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			batch.Fail(hotel.ID, hotel.Name, err)
			continue
		}
		batch.Add(price.PricePoint{
			Identity:   hotel.ID,
			Label:      hotel.Name,
			Amounts:    map[string]decimal.Decimal{layout.HotelCurrency: match.Rate},
			ObservedAt: runAt,
			Attrs:      map[string]string{"matched_name": match.Name},
		})
	}
	return batch, nil
}

func (h *HotelScraper) price(ctx context.Context, hotel targets.Hotel, runAt time.Time) (*HotelMatch, error) {
	doc, err := h.fetchDocument(ctx, h.SearchURLFor(hotel, runAt))
	if err != nil {
		return nil, err
	}
	match, ok := ParseHotelResults(doc, hotel.Query())
	if !ok {
		return nil, errors.NewFieldNotFound(h.Name(), "rate for "+hotel.Query())
	}
	return match, nil
}

// ParseHotelResults picks the result card whose title best matches query and
// reads its nightly rate. A page that is already the hotel's own page (the
// search redirected) is read directly.
func ParseHotelResults(doc *goquery.Document, query string) (*HotelMatch, bool) {
	var cards *goquery.Selection
	for _, sel := range cardSelectors {
		if found := doc.Find(sel); found.Length() > 0 {
			cards = found
			break
		}
	}
	if cards == nil {
		return parseHotelPage(doc.Selection)
	}

	var best *HotelMatch
	cards.EachWithBreak(func(i int, card *goquery.Selection) bool {
		if i >= maxCards {
			return false
		}
		title := firstText(card, titleSelectors)
		if title == "" {
			return true
		}
		score := NameScore(query, title)
		if score < minMatchScore || (best != nil && score <= best.Score) {
			return true
		}
		rate, ok := firstRate(card)
		if !ok {
			return true
		}
		best = &HotelMatch{Name: title, Rate: rate, Score: score}
		return true
	})
	return best, best != nil
}

func parseHotelPage(page *goquery.Selection) (*HotelMatch, bool) {
	rate, ok := firstRate(page)
	if !ok {
		return nil, false
	}
	return &HotelMatch{Name: firstText(page, pageTitleSelectors), Rate: rate, Score: 1}, true
}

func firstText(s *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if t := strings.TrimSpace(s.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

func firstRate(s *goquery.Selection) (decimal.Decimal, bool) {
	for _, sel := range ratePriceSelectors {
		var rate decimal.Decimal
		found := false
		s.Find(sel).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			d, err := helpers.ParseAmount(el.Text())
			if err == nil && d.GreaterThan(decimal.NewFromInt(minNightlyRate)) {
				rate, found = d, true
				return false
			}
			return true
		})
		if found {
			return rate, true
		}
	}
	return decimal.Zero, false
}

// NameScore rates how well a listing title matches a hotel name, from 0 to 1:
// the share of the name's keywords found in the title. Generic words like
// "hotel" and "doha" are ignored and a keyword counts as found when its
// Jaro-Winkler similarity to some title word reaches wordMatchScore, so
// spellings like "Mövenpick" and "Movenpick" agree.
func NameScore(name, title string) float64 {
	a, b := nameKeywords(name), nameKeywords(title)
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	hits := 0
	for _, w := range a {
		for _, t := range b {
			if w == t || matchr.JaroWinkler(w, t, false) >= wordMatchScore {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(a))
}

func nameKeywords(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '&'
	})
	var out []string
	for _, f := range fields {
		if !commonNameWords[f] {
			out = append(out, f)
		}
	}
	return out
}
