package scrape

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contentgrade/internal/model"
	"github.com/sells-group/contentgrade/internal/resilience"
	"github.com/sells-group/contentgrade/pkg/firecrawl"
)

// FirecrawlAdapter wraps a Firecrawl client as a Scraper for single-page
// scrapes. It shares the circuit-breaker behavior of JinaAdapter.
type FirecrawlAdapter struct {
	client  firecrawl.Client
	breaker *resilience.CircuitBreaker
}

// NewFirecrawlAdapter creates a FirecrawlAdapter. breaker may be nil.
func NewFirecrawlAdapter(client firecrawl.Client, breaker *resilience.CircuitBreaker) *FirecrawlAdapter {
	return &FirecrawlAdapter{client: client, breaker: breaker}
}

func (f *FirecrawlAdapter) Name() string { return "firecrawl" }

// Supports returns true unless the circuit breaker is open.
func (f *FirecrawlAdapter) Supports(_ string) bool {
	return f.breaker == nil || f.breaker.State() != resilience.CircuitOpen
}

// Scrape fetches a single URL via Firecrawl's scrape API.
func (f *FirecrawlAdapter) Scrape(ctx context.Context, targetURL string) (*model.ContentRecord, error) {
	if f.breaker == nil {
		return f.scrape(ctx, targetURL)
	}
	return resilience.ExecuteVal(ctx, f.breaker, func(ctx context.Context) (*model.ContentRecord, error) {
		return f.scrape(ctx, targetURL)
	})
}

func (f *FirecrawlAdapter) scrape(ctx context.Context, targetURL string) (*model.ContentRecord, error) {
	resp, err := f.client.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:             targetURL,
		Formats:         []string{"markdown", "links"},
		OnlyMainContent: true,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, eris.Errorf("firecrawl: scrape not successful: %s", resp.Error)
	}
	if code := resp.Data.Metadata.StatusCode; code >= 400 {
		return nil, eris.Errorf("firecrawl: upstream status %d", code)
	}

	return &model.ContentRecord{
		URL:         targetURL,
		Domain:      model.DomainOf(targetURL),
		Title:       strings.TrimSpace(resp.Data.Metadata.Title),
		Description: strings.TrimSpace(resp.Data.Metadata.Description),
		Text:        strings.TrimSpace(resp.Data.Markdown),
		Links:       dedupeLinks(resp.Data.Links),
		Source:      f.Name(),
	}, nil
}

// dedupeLinks keeps the first occurrence of each non-empty link.
func dedupeLinks(links []string) []string {
	seen := make(map[string]struct{}, len(links))
	var out []string
	for _, l := range links {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
