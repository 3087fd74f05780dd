package scrape

import (
	"context"

	"github.com/sells-group/contentgrade/internal/model"
)

// Fetcher turns a URL into a content record. Fetch never returns an error:
// failures are reported in the record's Error field.
type Fetcher interface {
	Fetch(ctx context.Context, url string) model.ContentRecord
}

// Scraper fetches a single URL and returns its content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*model.ContentRecord, error)
	Name() string
	Supports(url string) bool
}
