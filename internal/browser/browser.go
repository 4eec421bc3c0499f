// Package browser renders JavaScript-heavy booking pages in a stealth
// Chromium session driven by rod.
package browser

import (
	"context"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"sjsage522/pricesheet/logger"
	"sjsage522/pricesheet/pkg/errors"
)

// Config controls how Chromium is launched.
type Config struct {
	Headless  bool
	NoSandbox bool
	// Bin is the browser executable. Empty lets rod find or download one.
	Bin string
	// Settle is how long to wait after the DOM is stable for late price
	// widgets to fill in.
	Settle time.Duration
}

// Browser launches Chromium on first use and renders pages one at a time.
// It is safe for concurrent use.
type Browser struct {
	cfg Config

	mu      sync.Mutex
	browser *rod.Browser
}

// New creates a Browser. Nothing is launched until the first Render.
func New(cfg Config) *Browser {
	return &Browser{cfg: cfg}
}

func newLauncher(cfg Config) *launcher.Launcher {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("lang"), "en-US")
	return l
}

func (b *Browser) connect() (*rod.Browser, error) {
	if b.browser != nil {
		return b.browser, nil
	}

	controlURL, err := newLauncher(b.cfg).Launch()
	if err != nil {
		return nil, errors.NewNetwork("browser", "failed to launch browser", err)
	}
	br := rod.New().ControlURL(controlURL)
	if err := br.Connect(); err != nil {
		return nil, errors.NewNetwork("browser", "failed to connect to browser", err)
	}
	logger.ForBrowser().Info().Str("control_url", controlURL).Bool("headless", b.cfg.Headless).Msg("browser launched")
	b.browser = br
	return br, nil
}

// Render navigates to url and returns the page HTML once the DOM settles.
func (b *Browser) Render(ctx context.Context, url string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	br, err := b.connect()
	if err != nil {
		return "", err
	}

	page, err := br.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", errors.NewNetwork(url, "failed to open page", err)
	}
	defer func() { _ = page.Close() }()

	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		logger.ForBrowser().Warn().Err(err).Msg("stealth injection failed, proceeding without stealth")
	}

	p := page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return "", errors.NewNetwork(url, "navigation failed", err)
	}
	if err := p.WaitDOMStable(500*time.Millisecond, 0.1); err != nil {
		logger.ForBrowser().Debug().Err(err).Str("url", url).Msg("DOM did not settle, using current content")
	}
	if b.cfg.Settle > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(b.cfg.Settle):
		}
	}

	html, err := p.HTML()
	if err != nil {
		return "", errors.NewParsing(url, "failed to read page HTML", err)
	}
	return html, nil
}

// Close kills the browser process if one was launched.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.browser = nil
	return err
}
