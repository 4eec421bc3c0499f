package scraper

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"sjsage522/pricesheet/internal/layout"
	"sjsage522/pricesheet/internal/price"
	"sjsage522/pricesheet/pkg/errors"
)

// DefaultGoldURL is the page listing per-gram gold prices in Qatar.
const DefaultGoldURL = "https://qatar-goldprice.com/"

var (
	karatInText  = regexp.MustCompile(`عيار\s*(\d{1,2})\b`)
	karatAlone   = regexp.MustCompile(`^\s*(\d{1,2})\s*(?:K|k|قيراط)?\s*$`)
	singleNumber = regexp.MustCompile(`^\D*?(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?)\D*$`)
)

// GoldQuote is the per-gram price of one karat.
type GoldQuote struct {
	QAR decimal.Decimal
	USD decimal.Decimal
	// HasUSD is false when the page only listed the QAR price.
	HasUSD bool
}

// GoldScraper reads the per-karat table of a gold price page.
type GoldScraper struct {
	Base
	URL    string
	Karats []int
	now    func() time.Time
}

// NewGoldScraper creates the gold source.
func NewGoldScraper(opts Options) *GoldScraper {
	url := opts.GoldURL
	if url == "" {
		url = DefaultGoldURL
	}
	return &GoldScraper{
		Base:   newBase("qatar-goldprice", opts, opts.HTTP),
		URL:    url,
		Karats: opts.Targets.Karats,
		now:    clock(opts.Clock, opts.Location),
	}
}

// Domain returns price.DomainGold
func (g *GoldScraper) Domain() price.Domain {
	return price.DomainGold
}

// Scrape fetches the page once and prices every configured karat.
func (g *GoldScraper) Scrape(ctx context.Context) (*price.Batch, error) {
	runAt := g.now()
	batch := price.NewBatch(price.DomainGold, g.Name(), runAt)

	doc, err := g.fetchDocument(ctx, g.URL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		for _, k := range g.Karats {
			batch.Fail(layout.KaratID(k), karatLabel(k), err)
		}
		return batch, nil
	}

	quotes := ParseGoldTable(doc, g.Karats)
	var missing []int
	for _, k := range g.Karats {
		if _, ok := quotes[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		for k, q := range ParseGoldText(doc.Text(), missing) {
			quotes[k] = q
		}
	}

	for _, k := range g.Karats {
		id := layout.KaratID(k)
		q, ok := quotes[k]
		if !ok {
			batch.Fail(id, karatLabel(k), errors.NewFieldNotFound(g.Name(), id))
			continue
		}
		amounts := map[string]decimal.Decimal{"QAR": q.QAR}
		if q.HasUSD {
			amounts["USD"] = q.USD
		}
		batch.Add(price.PricePoint{
			Identity:   id,
			Label:      karatLabel(k),
			Amounts:    amounts,
			ObservedAt: runAt,
		})
	}
	return batch, nil
}

func karatLabel(k int) string {
	return fmt.Sprintf("عيار %d", k)
}

// ParseGoldTable reads table rows of the form [description, QAR, USD, ...].
// The first row naming a karat wins.
func ParseGoldTable(doc *goquery.Document, karats []int) map[int]GoldQuote {
	wanted := make(map[int]bool, len(karats))
	for _, k := range karats {
		wanted[k] = true
	}

	quotes := make(map[int]GoldQuote)
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() < 3 {
			return
		}
		k, ok := rowKarat(cells)
		if !ok || !wanted[k] {
			return
		}
		if _, done := quotes[k]; done {
			return
		}

		var numbers []decimal.Decimal
		cells.Slice(1, cells.Length()).Each(func(_ int, cell *goquery.Selection) {
			if d, ok := cellNumber(cell.Text()); ok {
				numbers = append(numbers, d)
			}
		})
		if len(numbers) == 0 {
			return
		}
		q := GoldQuote{QAR: numbers[0]}
		if len(numbers) > 1 {
			q.USD, q.HasUSD = numbers[1], true
		}
		quotes[k] = q
	})
	return quotes
}

func rowKarat(cells *goquery.Selection) (int, bool) {
	desc := strings.TrimSpace(cells.First().Text())
	var text []string
	cells.Each(func(_ int, c *goquery.Selection) {
		text = append(text, strings.TrimSpace(c.Text()))
	})
	if m := karatInText.FindStringSubmatch(strings.Join(text, " ")); m != nil {
		k, err := strconv.Atoi(m[1])
		return k, err == nil
	}
	if m := karatAlone.FindStringSubmatch(desc); m != nil {
		k, err := strconv.Atoi(m[1])
		return k, err == nil
	}
	return 0, false
}

// cellNumber parses a cell holding exactly one number.
func cellNumber(text string) (decimal.Decimal, bool) {
	m := singleNumber.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	return d, err == nil
}

// ParseGoldText finds "عيار N ... QAR ... USD" in free page text.
func ParseGoldText(text string, karats []int) map[int]GoldQuote {
	quotes := make(map[int]GoldQuote)
	for _, k := range karats {
		re := regexp.MustCompile(fmt.Sprintf(`(?s)عيار\s*%d\b.*?(\d+[.,]\d+).*?(\d+[.,]\d+)`, k))
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		qar, err1 := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
		usd, err2 := decimal.NewFromString(strings.ReplaceAll(m[2], ",", ""))
		if err1 != nil || err2 != nil {
			continue
		}
		quotes[k] = GoldQuote{QAR: qar, USD: usd, HasUSD: true}
	}
	return quotes
}
