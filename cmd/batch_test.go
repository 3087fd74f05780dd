package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contentgrade/internal/model"
	"github.com/sells-group/contentgrade/internal/pipeline"
)

func TestReadURLs(t *testing.T) {
	in := strings.NewReader(`
# submissions for the week
https://a.example.com/post

  https://b.example.com/post  
#https://skipped.example.com
`)
	urls, err := readURLs(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com/post", "https://b.example.com/post"}, urls)
}

func TestProcessBatch(t *testing.T) {
	urls := []string{
		"https://a.example.com",
		"https://b.example.com",
		"https://c.example.com",
		"not a url",
	}
	r := &fakeRunner{
		results: map[string]*model.RunResult{
			"https://a.example.com": relevantResult("https://a.example.com", "A"),
		},
		errs: map[string]error{
			"https://c.example.com": stageFailure(pipeline.NodeGenerateReport, "overloaded"),
			"not a url":             model.ErrInvalidURL,
		},
	}

	items := processBatch(context.Background(), urls, 2, map[string]any{"business_context": "x"}, r)

	require.Len(t, items, 4)
	for i, u := range urls {
		assert.Equal(t, u, items[i].URL, "items keep input order")
	}

	assert.True(t, items[0].Result.Relevant())
	assert.Empty(t, items[0].Error)

	assert.False(t, items[1].Result.Relevant())

	assert.Nil(t, items[2].Result)
	assert.Equal(t, "generate_report", items[2].Stage)
	assert.Contains(t, items[2].Error, "overloaded")

	assert.Nil(t, items[3].Result)
	assert.Empty(t, items[3].Stage)
	assert.NotEmpty(t, items[3].Error)

	assert.Len(t, r.calls, 4)
	for _, o := range r.overrides {
		assert.Equal(t, "x", o["business_context"])
	}
}

func TestProcessBatch_Empty(t *testing.T) {
	r := &fakeRunner{}
	items := processBatch(context.Background(), nil, 4, nil, r)
	assert.Empty(t, items)
	assert.Empty(t, r.calls)
}

func TestProcessBatch_ZeroConcurrency(t *testing.T) {
	r := &fakeRunner{}
	items := processBatch(context.Background(), []string{"https://a.example.com"}, 0, nil, r)
	require.Len(t, items, 1)
	assert.NotNil(t, items[0].Result)
}
