package llm

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contentgrade/internal/model"
	"github.com/sells-group/contentgrade/internal/resilience"
	"github.com/sells-group/contentgrade/pkg/openrouter"
)

// OpenRouterBackend invokes models through OpenRouter. Structured output uses
// a strict json_schema response format.
type OpenRouterBackend struct {
	client openrouter.Client
	opts   BackendOptions
}

// NewOpenRouterBackend creates an OpenRouterBackend.
func NewOpenRouterBackend(client openrouter.Client, opts BackendOptions) *OpenRouterBackend {
	if opts.StructuredMaxTokens <= 0 {
		opts.StructuredMaxTokens = 1024
	}
	if opts.TextMaxTokens <= 0 {
		opts.TextMaxTokens = 8192
	}
	return &OpenRouterBackend{client: client, opts: opts}
}

func (b *OpenRouterBackend) request(name string, msgs []Message, maxTokens int64) openrouter.ChatCompletionRequest {
	req := openrouter.ChatCompletionRequest{
		Model:       name,
		Temperature: &b.opts.Temperature,
		MaxTokens:   &maxTokens,
		Messages:    make([]openrouter.Message, len(msgs)),
	}
	for i, m := range msgs {
		req.Messages[i] = openrouter.Message{Role: m.Role, Content: m.Content}
	}
	return req
}

// Invoke implements Invoker.
func (b *OpenRouterBackend) Invoke(ctx context.Context, name string, msgs []Message) (*Completion, error) {
	resp, err := b.client.ChatCompletion(ctx, b.request(name, msgs, b.opts.TextMaxTokens))
	if err != nil {
		return nil, classifyOpenRouter(err)
	}
	return &Completion{
		Text:  resp.Content(),
		Usage: fromOpenRouterUsage(resp.Usage),
	}, nil
}

// InvokeStructured implements Invoker.
func (b *OpenRouterBackend) InvokeStructured(ctx context.Context, name string, msgs []Message, schema *Schema) (*Completion, error) {
	req := b.request(name, msgs, b.opts.StructuredMaxTokens)
	req.ResponseFormat = openrouter.NewJSONSchemaFormat(schema.Name, schema.JSON())

	resp, err := b.client.ChatCompletion(ctx, req)
	if err != nil {
		return nil, classifyOpenRouter(err)
	}

	text := resp.Content()
	raw := extractJSON(text)
	if !json.Valid([]byte(raw)) {
		return nil, eris.Wrapf(ErrSchemaViolation, "%s: response is not json", schema.Name)
	}
	return &Completion{
		Text:  text,
		JSON:  json.RawMessage(raw),
		Usage: fromOpenRouterUsage(resp.Usage),
	}, nil
}

func classifyOpenRouter(err error) error {
	var statusErr *openrouter.StatusError
	if errors.As(err, &statusErr) {
		return resilience.WrapHTTPStatus(err, statusErr.StatusCode)
	}
	return err
}

func fromOpenRouterUsage(u openrouter.Usage) model.TokenUsage {
	return model.TokenUsage{
		InputTokens:  u.PromptTokens,
		OutputTokens: u.CompletionTokens,
	}
}
