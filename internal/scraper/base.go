package scraper

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"sjsage522/pricesheet/logger"
	"sjsage522/pricesheet/pkg/errors"
	"sjsage522/pricesheet/services/cache"
)

// Base provides the fetch path shared by every source: a cache-backed
// block after the site rate-limits us, pacing between requests and HTML
// parsing.
type Base struct {
	SourceName string
	CacheKey   string
	CacheSvc   cache.CacheService
	BlockTime  time.Duration
	Fetch      FetchFunc
	Limiter    *rate.Limiter
}

// newBase builds a Base pacing requests at most once per interval.
func newBase(name string, opts Options, fetch FetchFunc) Base {
	limit := rate.Inf
	if opts.Interval > 0 {
		limit = rate.Every(opts.Interval)
	}
	block := opts.BlockTime
	if block <= 0 {
		block = 10 * time.Minute
	}
	return Base{
		SourceName: name,
		CacheKey:   name + "_rate_limited",
		CacheSvc:   opts.Cache,
		BlockTime:  block,
		Fetch:      fetch,
		Limiter:    rate.NewLimiter(limit, 1),
	}
}

// Name returns the source name
func (b *Base) Name() string {
	return b.SourceName
}

// blocked returns a rate_limit error while the block marker is cached.
func (b *Base) blocked() error {
	if b.CacheSvc == nil || b.CacheKey == "" {
		return nil
	}
	_, err := b.CacheSvc.Get(b.CacheKey)
	switch {
	case err == nil:
		return errors.NewRateLimit(b.SourceName, b.BlockTime)
	case stderrors.Is(err, cache.ErrMiss):
		return nil
	default:
		logger.ForCache().Warn().Err(err).Str("key", b.CacheKey).Msg("rate-limit lookup failed")
		return nil
	}
}

func (b *Base) block() {
	if b.CacheSvc == nil || b.CacheKey == "" {
		return
	}
	value := []byte(fmt.Sprintf("%d", int(b.BlockTime/time.Second)))
	if err := b.CacheSvc.Set(b.CacheKey, value, b.BlockTime); err != nil {
		logger.ForCache().Warn().Err(err).Str("key", b.CacheKey).Msg("could not store rate-limit block")
	}
}

// fetchDocument fetches url with pacing and rate-limit blocking and parses it
func (b *Base) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	if err := b.blocked(); err != nil {
		return nil, err
	}
	if b.Limiter != nil {
		if err := b.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	body, err := b.Fetch(ctx, url)
	if err != nil {
		if errors.Is(err, errors.ErrorTypeRateLimit) {
			b.block()
		}
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, errors.NewParsing(b.SourceName, "HTML parse error", err)
	}
	return doc, nil
}
