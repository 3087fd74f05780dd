package llm

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contentgrade/internal/model"
	"github.com/sells-group/contentgrade/internal/resilience"
	"github.com/sells-group/contentgrade/pkg/anthropic"
)

// BackendOptions holds per-call generation settings shared by backends.
type BackendOptions struct {
	StructuredMaxTokens int64
	TextMaxTokens       int64
	Temperature         float64
}

// AnthropicBackend invokes Claude models. Structured output is obtained by
// forcing a call to a single tool whose input schema is the target schema.
type AnthropicBackend struct {
	client anthropic.Client
	opts   BackendOptions
}

// NewAnthropicBackend creates an AnthropicBackend.
func NewAnthropicBackend(client anthropic.Client, opts BackendOptions) *AnthropicBackend {
	if opts.StructuredMaxTokens <= 0 {
		opts.StructuredMaxTokens = 1024
	}
	if opts.TextMaxTokens <= 0 {
		opts.TextMaxTokens = 8192
	}
	return &AnthropicBackend{client: client, opts: opts}
}

func (b *AnthropicBackend) request(name string, msgs []Message, maxTokens int64) anthropic.MessageRequest {
	system, rest := splitSystem(msgs)

	req := anthropic.MessageRequest{
		Model:       name,
		MaxTokens:   maxTokens,
		Temperature: &b.opts.Temperature,
	}
	for _, s := range system {
		req.System = append(req.System, anthropic.BuildCachedSystemBlocks(s)...)
	}
	for _, m := range rest {
		req.Messages = append(req.Messages, anthropic.Message{Role: m.Role, Content: m.Content})
	}
	return req
}

// Invoke implements Invoker.
func (b *AnthropicBackend) Invoke(ctx context.Context, name string, msgs []Message) (*Completion, error) {
	resp, err := b.client.CreateMessage(ctx, b.request(name, msgs, b.opts.TextMaxTokens))
	if err != nil {
		return nil, classifyAnthropic(err)
	}
	resp.Usage.LogCost(name, "text")
	return &Completion{
		Text:  resp.Text(),
		Usage: fromAnthropicUsage(resp.Usage),
	}, nil
}

// InvokeStructured implements Invoker.
func (b *AnthropicBackend) InvokeStructured(ctx context.Context, name string, msgs []Message, schema *Schema) (*Completion, error) {
	req := b.request(name, msgs, b.opts.StructuredMaxTokens)
	req.Tools = []anthropic.Tool{{
		Name:        schema.Name,
		Description: schema.Description,
		InputSchema: schema.JSON(),
	}}
	req.ToolChoice = schema.Name

	resp, err := b.client.CreateMessage(ctx, req)
	if err != nil {
		return nil, classifyAnthropic(err)
	}
	resp.Usage.LogCost(name, "structured")

	input, ok := resp.ToolInput(schema.Name)
	if !ok {
		return nil, eris.Wrapf(ErrSchemaViolation, "%s: model did not call tool (stop_reason=%s)", schema.Name, resp.StopReason)
	}
	return &Completion{
		Text:  resp.Text(),
		JSON:  input,
		Usage: fromAnthropicUsage(resp.Usage),
	}, nil
}

func classifyAnthropic(err error) error {
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		return resilience.WrapHTTPStatus(err, apiErr.StatusCode)
	}
	return err
}

func fromAnthropicUsage(u anthropic.TokenUsage) model.TokenUsage {
	return model.TokenUsage{
		InputTokens:         int(u.InputTokens),
		OutputTokens:        int(u.OutputTokens),
		CacheCreationTokens: int(u.CacheCreationInputTokens),
		CacheReadTokens:     int(u.CacheReadInputTokens),
	}
}
