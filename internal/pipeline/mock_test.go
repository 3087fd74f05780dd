package pipeline

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/contentgrade/internal/llm"
	"github.com/sells-group/contentgrade/internal/model"
)

// --- Fetcher Mock ---

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) model.ContentRecord {
	args := m.Called(ctx, url)
	return args.Get(0).(model.ContentRecord)
}

// --- Invoker Mock ---

type mockInvoker struct {
	mock.Mock
}

func (m *mockInvoker) Invoke(ctx context.Context, modelID string, msgs []llm.Message) (*llm.Completion, error) {
	args := m.Called(ctx, modelID, msgs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Completion), args.Error(1)
}

func (m *mockInvoker) InvokeStructured(ctx context.Context, modelID string, msgs []llm.Message, schema *llm.Schema) (*llm.Completion, error) {
	args := m.Called(ctx, modelID, msgs, schema)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Completion), args.Error(1)
}

// verdictCompletion builds a structured completion carrying a verdict.
func verdictCompletion(relevant model.Relevance, reasoning string) *llm.Completion {
	raw, _ := json.Marshal(model.RelevanceVerdict{Relevant: relevant, Reasoning: reasoning})
	return &llm.Completion{
		JSON:  raw,
		Usage: model.TokenUsage{InputTokens: 500, OutputTokens: 40, Cost: 0.001},
	}
}

func textCompletion(text string) *llm.Completion {
	return &llm.Completion{
		Text:  text,
		Usage: model.TokenUsage{InputTokens: 1200, OutputTokens: 900, Cost: 0.01},
	}
}

func okRecord(url string) model.ContentRecord {
	return model.ContentRecord{
		URL:         url,
		Title:       "Building agents with Acme SDK",
		Description: "A walkthrough of the Acme agent SDK.",
		Text:        "This tutorial builds a support agent on the Acme SDK.",
		Domain:      model.DomainOf(url),
		Links:       []string{"https://github.com/example/agent"},
		Source:      "local_http",
	}
}
