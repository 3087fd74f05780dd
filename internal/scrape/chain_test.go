package scrape

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contentgrade/internal/model"
)

// mockScraper implements Scraper for testing.
type mockScraper struct {
	name     string
	supports bool
	record   *model.ContentRecord
	err      error
	calls    int
}

func (m *mockScraper) Name() string           { return m.name }
func (m *mockScraper) Supports(_ string) bool { return m.supports }
func (m *mockScraper) Scrape(_ context.Context, _ string) (*model.ContentRecord, error) {
	m.calls++
	return m.record, m.err
}

func TestChain_FirstSuccessWins(t *testing.T) {
	s1 := &mockScraper{name: "primary", supports: true, record: &model.ContentRecord{URL: "https://acme.com", Text: "home", Source: "primary"}}
	s2 := &mockScraper{name: "fallback", supports: true}

	rec := NewChain(s1, s2).Fetch(context.Background(), "https://acme.com")
	assert.Equal(t, "primary", rec.Source)
	assert.False(t, rec.Failed())
	assert.Equal(t, 0, s2.calls)
}

func TestChain_FallbackOnError(t *testing.T) {
	s1 := &mockScraper{name: "primary", supports: true, err: errors.New("blocked")}
	s2 := &mockScraper{name: "fallback", supports: true, record: &model.ContentRecord{URL: "https://acme.com", Source: "fallback"}}

	rec, err := NewChain(s1, s2).Scrape(context.Background(), "https://acme.com")
	require.NoError(t, err)
	assert.Equal(t, "fallback", rec.Source)
}

func TestChain_SkipsUnsupported(t *testing.T) {
	s1 := &mockScraper{name: "open-breaker", supports: false, record: &model.ContentRecord{Source: "skipped"}}
	s2 := &mockScraper{name: "local", supports: true, record: &model.ContentRecord{Source: "local"}}

	rec := NewChain(s1, s2).Fetch(context.Background(), "https://acme.com")
	assert.Equal(t, "local", rec.Source)
	assert.Equal(t, 0, s1.calls)
}

func TestChain_AllFailReturnsErrorRecord(t *testing.T) {
	s1 := &mockScraper{name: "a", supports: true, err: errors.New("first")}
	s2 := &mockScraper{name: "b", supports: true, err: errors.New("connection refused")}

	rec := NewChain(s1, s2).Fetch(context.Background(), "https://acme.com/page")
	assert.True(t, rec.Failed())
	assert.Contains(t, rec.Error, "connection refused")
	assert.Equal(t, "acme.com", rec.Domain)
	assert.Equal(t, "https://acme.com/page", rec.URL)
	assert.Empty(t, rec.Text)
}

func TestChain_NilRecordTreatedAsFailure(t *testing.T) {
	s1 := &mockScraper{name: "empty", supports: true}
	rec := NewChain(s1).Fetch(context.Background(), "https://acme.com")
	assert.True(t, rec.Failed())
	assert.Contains(t, rec.Error, "returned no content")
}

func TestChain_NoScrapers(t *testing.T) {
	rec := NewChain().Fetch(context.Background(), "https://acme.com")
	assert.True(t, rec.Failed())
	assert.Contains(t, rec.Error, "no suitable scraper")
}

func TestChain_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s1 := &mockScraper{name: "a", supports: true, record: &model.ContentRecord{}}

	rec := NewChain(s1).Fetch(ctx, "https://acme.com")
	assert.True(t, rec.Failed())
	assert.Equal(t, 0, s1.calls)
}

func TestChain_Names(t *testing.T) {
	c := NewChain(&mockScraper{name: "local_http"}, &mockScraper{name: "jina"})
	assert.Equal(t, []string{"local_http", "jina"}, c.Names())
}
