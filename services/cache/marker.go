package cache

import (
	stderrors "errors"
	"time"

	"sjsage522/pricesheet/logger"
)

// RunMarker remembers which days a domain already ran on.
type RunMarker struct {
	cache  CacheService
	prefix string
	ttl    time.Duration
}

// NewRunMarker creates a marker storing keys under prefix. Marks expire after ttl.
func NewRunMarker(c CacheService, prefix string, ttl time.Duration) *RunMarker {
	return &RunMarker{cache: c, prefix: prefix, ttl: ttl}
}

func (r *RunMarker) key(domain, day string) string {
	return r.prefix + ":last_run:" + domain + ":" + day
}

// Ran reports whether domain was marked for day. Cache errors other than a
// miss are logged and read as not run.
func (r *RunMarker) Ran(domain, day string) bool {
	_, err := r.cache.Get(r.key(domain, day))
	if err == nil {
		return true
	}
	if !stderrors.Is(err, ErrMiss) {
		logger.ForCache().Warn().Err(err).Str("domain", domain).Msg("last-run lookup failed")
	}
	return false
}

// Mark records that domain ran on day.
func (r *RunMarker) Mark(domain, day string) error {
	return r.cache.Set(r.key(domain, day), []byte(day), r.ttl)
}
