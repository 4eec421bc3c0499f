package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"sjsage522/pricesheet/config"
	"sjsage522/pricesheet/helpers"
	"sjsage522/pricesheet/internal/browser"
	"sjsage522/pricesheet/internal/layout"
	"sjsage522/pricesheet/internal/merge"
	"sjsage522/pricesheet/internal/price"
	"sjsage522/pricesheet/internal/schedule"
	"sjsage522/pricesheet/internal/scraper"
	"sjsage522/pricesheet/internal/targets"
	"sjsage522/pricesheet/internal/workbook"
	"sjsage522/pricesheet/logger"
	"sjsage522/pricesheet/services/cache"
	"sjsage522/pricesheet/services/publisher"
	"sjsage522/pricesheet/services/snapshot"
	"sjsage522/pricesheet/services/worker"
)

// markerTTL keeps run marks long enough to cover a missed day and a restart.
const markerTTL = 72 * time.Hour

// app holds the services shared by every command.
type app struct {
	cfg       *config.Config
	targets   *targets.Targets
	location  *time.Location
	layout    layout.Settings
	schedule  schedule.Settings
	cache     cache.CacheService
	publisher publisher.Publisher
	browser   *browser.Browser
	journal   *helpers.ErrorJournal
}

// newApp loads the configuration and connects the services. Connections to
// optional services that fail are logged and skipped.
func newApp(ctx context.Context, needBrowser bool) (*app, error) {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t, err := targets.Load(cfg.TargetsFile)
	if err != nil {
		return nil, err
	}

	// Validate has already checked these.
	loc, _ := cfg.Location()
	weekStart, _ := cfg.FirstWeekday()
	hour, minute, _ := cfg.RunClock()

	helpers.SetTimeout(cfg.FetchTimeout)

	a := &app{
		cfg:      cfg,
		targets:  t,
		location: loc,
		layout:   layout.Settings{Location: loc, WeekStart: weekStart},
		schedule: schedule.Settings{
			Location:   loc,
			Hour:       hour,
			Minute:     minute,
			WeekStart:  weekStart,
			FlightDays: cfg.FlightDays,
		},
		cache:   newCache(cfg),
		journal: helpers.NewErrorJournal(cfg.ErrorLog),
	}

	if cfg.RedisAddr != "" {
		pub := publisher.NewRedisPublisher(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamMaxLength)
		if err := pub.Ping(); err != nil {
			logger.ForPublisher().Warn().Err(err).Msg("publishing disabled")
			pub.Close()
		} else {
			a.publisher = pub
			logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)", cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		}
	}

	if needBrowser {
		a.browser = browser.New(browser.Config{
			Headless:  cfg.BrowserHeadless,
			NoSandbox: os.Geteuid() == 0,
			Bin:       cfg.BrowserBin,
			Settle:    3 * time.Second,
		})
	}
	return a, nil
}

func newCache(cfg *config.Config) cache.CacheService {
	if cfg.MemcacheAddr == "" {
		return cache.NewMemoryService()
	}
	mc := cache.NewMemcacheService(cfg.MemcacheAddr)
	if err := mc.Ping(); err != nil {
		logger.ForCache().Warn().Err(err).Msg("memcache unreachable, using in-process cache")
		return cache.NewMemoryService()
	}
	logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
	return mc
}

// Close releases the browser and the publisher connection.
func (a *app) Close() {
	if a.browser != nil {
		if err := a.browser.Close(); err != nil {
			logger.ForBrowser().Warn().Err(err).Msg("closing browser")
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			logger.Error("closing publisher: %v", err)
		}
	}
}

// merger returns the merger of a domain's workbook.
func (a *app) merger(d price.Domain) (*merge.Merger, error) {
	l, err := layout.For(d, a.layout, a.targets)
	if err != nil {
		return nil, err
	}
	return merge.NewMerger(l, workbook.NewStore()), nil
}

// job wires the source, merger and outputs of a domain.
func (a *app) job(d price.Domain) (worker.Job, error) {
	opts := scraper.Options{
		Targets:    a.targets,
		Cache:      a.cache,
		HTTP:       helpers.FetchWithRandomHeaders,
		Interval:   a.cfg.RequestInterval,
		BlockTime:  a.cfg.RateLimitBlock,
		GoldURL:    a.cfg.GoldURL,
		BookingURL: a.cfg.BookingURL,
		Location:   a.location,
	}
	if a.browser != nil && scraper.NeedsBrowser(d) {
		opts.Browser = scraper.RenderFetch(a.browser)
	}

	src, err := scraper.New(d, opts)
	if err != nil {
		return worker.Job{}, err
	}
	m, err := a.merger(d)
	if err != nil {
		return worker.Job{}, err
	}
	sch, err := schedule.For(d, a.schedule)
	if err != nil {
		return worker.Job{}, err
	}
	return worker.Job{
		Source:   src,
		Merger:   m,
		Workbook: a.cfg.Workbooks[d],
		Snapshot: snapshot.NewWriter(a.cfg.Snapshots[d]),
		Schedule: sch,
	}, nil
}

// worker builds a worker over the jobs of domains.
func (a *app) worker(ctx context.Context, domains []price.Domain) (*worker.Worker, []worker.Job, error) {
	jobs := make([]worker.Job, 0, len(domains))
	for _, d := range domains {
		j, err := a.job(d)
		if err != nil {
			return nil, nil, err
		}
		jobs = append(jobs, j)
	}
	w := worker.NewWorker(ctx, jobs, a.publisher, a.journal, worker.Options{
		Marker:     cache.NewRunMarker(a.cache, a.cfg.RedisStream, markerTTL),
		Report:     os.Stdout,
		RunOnStart: a.cfg.RunOnStart,
		Production: a.cfg.IsProduction(),
	})
	return w, jobs, nil
}

// parseDomains reads domain arguments. "all" selects every domain.
func parseDomains(args []string) ([]price.Domain, error) {
	var domains []price.Domain
	seen := make(map[price.Domain]bool)
	for _, arg := range args {
		if strings.EqualFold(arg, "all") {
			return price.Domains, nil
		}
		d, ok := price.ParseDomain(strings.ToLower(arg))
		if !ok {
			return nil, fmt.Errorf("unknown domain %q (want gold, hotel, flight or all)", arg)
		}
		if !seen[d] {
			seen[d] = true
			domains = append(domains, d)
		}
	}
	return domains, nil
}

func needsBrowser(domains []price.Domain) bool {
	for _, d := range domains {
		if scraper.NeedsBrowser(d) {
			return true
		}
	}
	return false
}
