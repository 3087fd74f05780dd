// Package llm is the model-invocation layer: a provider-neutral Invoker, a
// router that dispatches "provider/model" IDs to backends, and structured
// output validated against a JSON Schema.
package llm

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contentgrade/internal/model"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	// ErrSchemaViolation is returned when a structured response is missing
	// or does not conform to the requested schema.
	ErrSchemaViolation = eris.New("llm: response violates schema")
	// ErrUnknownProvider is returned for model IDs with an unsupported prefix.
	ErrUnknownProvider = eris.New("llm: unknown model provider")
)

// Message is one entry of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// System builds a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User builds a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// Completion is the result of one model call. JSON is set for structured
// calls and holds the raw object the model produced.
type Completion struct {
	Text  string
	JSON  json.RawMessage
	Usage model.TokenUsage
	Model string
}

// Invoker sends messages to a model.
type Invoker interface {
	Invoke(ctx context.Context, modelID string, msgs []Message) (*Completion, error)
	InvokeStructured(ctx context.Context, modelID string, msgs []Message, schema *Schema) (*Completion, error)
}

// InvokeStructured calls inv and decodes the validated response into T.
func InvokeStructured[T any](ctx context.Context, inv Invoker, modelID string, msgs []Message, schema *Schema) (T, *Completion, error) {
	var out T
	comp, err := inv.InvokeStructured(ctx, modelID, msgs, schema)
	if err != nil {
		return out, comp, err
	}
	if err := schema.Validate(comp.JSON); err != nil {
		return out, comp, err
	}
	if err := json.Unmarshal(comp.JSON, &out); err != nil {
		return out, comp, eris.Wrapf(ErrSchemaViolation, "decode %s: %v", schema.Name, err)
	}
	return out, comp, nil
}

// splitSystem separates system messages from the conversation.
func splitSystem(msgs []Message) (system []string, rest []Message) {
	for _, m := range msgs {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
