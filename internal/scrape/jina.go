package scrape

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contentgrade/internal/model"
	"github.com/sells-group/contentgrade/internal/resilience"
	"github.com/sells-group/contentgrade/pkg/jina"
)

// JinaAdapter wraps a Jina Reader client as a Scraper. Failures and unusable
// responses count against the circuit breaker; while it is open the adapter
// is skipped by the chain.
type JinaAdapter struct {
	client  jina.Client
	breaker *resilience.CircuitBreaker
}

// NewJinaAdapter creates a JinaAdapter. breaker may be nil.
func NewJinaAdapter(client jina.Client, breaker *resilience.CircuitBreaker) *JinaAdapter {
	return &JinaAdapter{client: client, breaker: breaker}
}

func (j *JinaAdapter) Name() string { return "jina" }

// Supports returns true unless the circuit breaker is open.
func (j *JinaAdapter) Supports(_ string) bool {
	return j.breaker == nil || j.breaker.State() != resilience.CircuitOpen
}

// Scrape fetches a URL via Jina Reader and validates the response.
func (j *JinaAdapter) Scrape(ctx context.Context, targetURL string) (*model.ContentRecord, error) {
	if j.breaker == nil {
		return j.read(ctx, targetURL)
	}
	return resilience.ExecuteVal(ctx, j.breaker, func(ctx context.Context) (*model.ContentRecord, error) {
		return j.read(ctx, targetURL)
	})
}

func (j *JinaAdapter) read(ctx context.Context, targetURL string) (*model.ContentRecord, error) {
	resp, err := j.client.Read(ctx, targetURL)
	if err != nil {
		return nil, err
	}
	if needsFallback(resp) {
		return nil, eris.New("jina: response has no usable content")
	}

	return &model.ContentRecord{
		URL:         targetURL,
		Domain:      model.DomainOf(targetURL),
		Title:       strings.TrimSpace(resp.Data.Title),
		Description: strings.TrimSpace(resp.Data.Description),
		Text:        strings.TrimSpace(resp.Data.Content),
		Links:       resp.Data.LinkURLs(),
		Source:      j.Name(),
	}, nil
}

var challengeSignatures = []string{
	"checking your browser",
	"enable javascript",
	"please enable cookies",
	"access denied",
	"403 forbidden",
	"just a moment",
	"attention required",
}

// needsFallback reports whether a Jina response is empty, an error, or a
// short anti-bot challenge page.
func needsFallback(resp *jina.ReadResponse) bool {
	if resp == nil {
		return true
	}
	if resp.Code != 0 && resp.Code != 200 {
		return true
	}

	content := strings.TrimSpace(resp.Data.Content)
	if content == "" {
		return true
	}

	if len(content) < 1000 {
		lower := strings.ToLower(content)
		for _, sig := range challengeSignatures {
			if strings.Contains(lower, sig) {
				return true
			}
		}
	}
	return false
}
