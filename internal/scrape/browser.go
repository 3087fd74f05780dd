package scrape

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"

	"github.com/sells-group/contentgrade/internal/config"
	"github.com/sells-group/contentgrade/internal/model"
	"github.com/sells-group/contentgrade/internal/resilience"
)

// BrowserScraper renders pages in headless Chrome so that client-side
// rendered content is visible. Each Scrape starts a fresh browser.
type BrowserScraper struct {
	timeout   time.Duration
	userAgent string
	breaker   *resilience.CircuitBreaker
	allocOpts []chromedp.ExecAllocatorOption
}

// NewBrowserScraper creates a BrowserScraper. breaker may be nil.
func NewBrowserScraper(cfg config.FetchConfig, breaker *resilience.CircuitBreaker) *BrowserScraper {
	timeout := time.Duration(cfg.BrowserTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(ua),
	)
	return &BrowserScraper{
		timeout:   timeout,
		userAgent: ua,
		breaker:   breaker,
		allocOpts: opts,
	}
}

func (b *BrowserScraper) Name() string { return "browser" }

// Supports returns false while the browser's circuit breaker is open.
func (b *BrowserScraper) Supports(_ string) bool {
	return b.breaker == nil || b.breaker.State() != resilience.CircuitOpen
}

// Scrape navigates to targetURL and extracts content from the rendered DOM.
func (b *BrowserScraper) Scrape(ctx context.Context, targetURL string) (*model.ContentRecord, error) {
	if b.breaker == nil {
		return b.render(ctx, targetURL)
	}
	return resilience.ExecuteVal(ctx, b.breaker, func(ctx context.Context) (*model.ContentRecord, error) {
		return b.render(ctx, targetURL)
	})
}

func (b *BrowserScraper) render(ctx context.Context, targetURL string) (*model.ContentRecord, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, b.allocOpts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	runCtx, cancel := context.WithTimeout(browserCtx, b.timeout)
	defer cancel()

	var outer string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &outer, chromedp.ByQuery),
	)
	if err != nil {
		return nil, eris.Wrap(err, "browser: render")
	}

	rec, err := parseHTML(targetURL, strings.NewReader(outer), "text/html; charset=utf-8")
	if err != nil {
		return nil, eris.Wrap(err, "browser")
	}
	rec.Source = b.Name()
	return rec, nil
}
