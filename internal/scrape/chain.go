// Package scrape acquires page content for the relevance grader: a local
// HTTP fetcher with optional headless-browser, Jina Reader and Firecrawl
// fallbacks.
package scrape

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contentgrade/internal/model"
)

// Chain tries scrapers in priority order and returns the first success.
// It implements Fetcher.
type Chain struct {
	scrapers []Scraper
}

// NewChain creates a Chain. Scrapers are tried in the given order.
func NewChain(scrapers ...Scraper) *Chain {
	return &Chain{scrapers: scrapers}
}

// Names returns the scraper names in order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.scrapers))
	for i, s := range c.scrapers {
		names[i] = s.Name()
	}
	return names
}

// Scrape tries each scraper in order for a single URL.
func (c *Chain) Scrape(ctx context.Context, targetURL string) (*model.ContentRecord, error) {
	var lastErr error
	for _, s := range c.scrapers {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "scrape: cancelled")
		}
		if !s.Supports(targetURL) {
			continue
		}
		start := time.Now()
		rec, err := s.Scrape(ctx, targetURL)
		if err == nil && rec != nil {
			zap.L().Debug("scrape: fetched",
				zap.String("scraper", s.Name()),
				zap.String("url", targetURL),
				zap.Int("text_len", len(rec.Text)),
				zap.Int("links", len(rec.Links)),
				zap.Duration("elapsed", time.Since(start)),
			)
			return rec, nil
		}
		if err == nil {
			err = eris.Errorf("scrape: %s returned no content", s.Name())
		}
		zap.L().Debug("scrape: scraper failed, trying next",
			zap.String("scraper", s.Name()),
			zap.String("url", targetURL),
			zap.Error(err),
		)
		lastErr = err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, eris.Errorf("scrape: no suitable scraper for url: %s", targetURL)
}

// Fetch implements Fetcher. When every scraper fails the returned record
// carries the last error.
func (c *Chain) Fetch(ctx context.Context, targetURL string) model.ContentRecord {
	rec, err := c.Scrape(ctx, targetURL)
	if err != nil {
		zap.L().Warn("scrape: fetch failed",
			zap.String("url", targetURL),
			zap.Error(err),
		)
		return model.NewErrorRecord(targetURL, err)
	}
	return *rec
}
